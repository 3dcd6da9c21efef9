package sbit

import "encoding/binary"

// Index subtable formats shared by CBLC and EBLC.
const (
	indexFormat1 = 1 // Variable metrics, 32-bit offsets
	indexFormat2 = 2 // Constant metrics, no offset array
	indexFormat3 = 3 // Variable metrics, 16-bit offsets
	indexFormat4 = 4 // Variable metrics, sparse glyph IDs
	indexFormat5 = 5 // Constant metrics, sparse glyph IDs
)

// Glyph image formats.
const (
	imageFormat1  = 1  // Small metrics, byte-aligned mask rows
	imageFormat2  = 2  // Small metrics, bit-aligned mask rows
	imageFormat5  = 5  // Metrics in the location table, bit-aligned mask
	imageFormat6  = 6  // Big metrics, byte-aligned mask rows
	imageFormat7  = 7  // Big metrics, bit-aligned mask rows
	imageFormat17 = 17 // Small metrics, PNG
	imageFormat18 = 18 // Big metrics, PNG
	imageFormat19 = 19 // Metrics in the location table, PNG
)

// Table reads one embedded bitmap table pair: CBLC/CBDT for color
// strikes or EBLC/EBDT for mask strikes. Both pairs share the same
// binary layout and differ only in the glyph image formats they carry.
type Table struct {
	locData []byte // CBLC or EBLC
	imgData []byte // CBDT or EBDT
	color   bool
	strikes []strike
}

// strike is one BitmapSize record of the location table.
type strike struct {
	subtableListOffset uint32
	subtableCount      uint32
	startGlyph         uint16
	endGlyph           uint16
	ppem               uint16
	bitDepth           uint8

	// Parsed lazily on first glyph access.
	subtables []indexSubtable
	broken    bool
}

type indexSubtable struct {
	firstGlyph      uint16
	lastGlyph       uint16
	indexFormat     uint16
	imageFormat     uint16
	imageDataOffset uint32

	offsets32 []uint32      // format 1
	offsets16 []uint16      // format 3
	imageSize uint32        // formats 2, 5
	constant  *glyphMetrics // formats 2, 5
	sparse    []sparseEntry // format 4
	glyphIDs  []uint16      // format 5
}

type sparseEntry struct {
	glyphID uint16
	offset  uint16
}

// glyphMetrics is the horizontal half of BigGlyphMetrics; the small
// metrics record is its prefix.
type glyphMetrics struct {
	height   uint8
	width    uint8
	bearingX int8
	bearingY int8
}

// ParseCBDT reads a CBLC/CBDT color strike table pair.
func ParseCBDT(cblc, cbdt []byte) (*Table, error) {
	return parseTable(cblc, cbdt, true)
}

// ParseEBDT reads an EBLC/EBDT mask strike table pair.
func ParseEBDT(eblc, ebdt []byte) (*Table, error) {
	return parseTable(eblc, ebdt, false)
}

func parseTable(locData, imgData []byte, color bool) (*Table, error) {
	if len(locData) < 8 || len(imgData) == 0 {
		return nil, ErrInvalidData
	}
	// Both CBLC and EBLC use major version 2 or 3 with the same layout.
	major := binary.BigEndian.Uint16(locData)
	if major != 2 && major != 3 {
		return nil, ErrInvalidData
	}

	numSizes := binary.BigEndian.Uint32(locData[4:])
	const bitmapSizeRecordSize = 48
	if 8+int(numSizes)*bitmapSizeRecordSize > len(locData) {
		return nil, ErrInvalidData
	}

	t := &Table{locData: locData, imgData: imgData, color: color}
	t.strikes = make([]strike, numSizes)
	for i := range t.strikes {
		rec := locData[8+i*bitmapSizeRecordSize:]
		t.strikes[i] = strike{
			subtableListOffset: binary.BigEndian.Uint32(rec),
			subtableCount:      binary.BigEndian.Uint32(rec[8:]),
			// Line metrics at 16..40 are not needed for extraction.
			startGlyph: binary.BigEndian.Uint16(rec[40:]),
			endGlyph:   binary.BigEndian.Uint16(rec[42:]),
			ppem:       uint16(rec[45]), // vertical ppem
			bitDepth:   rec[46],
		}
	}
	return t, nil
}

// Color reports whether the table carries color strikes.
func (t *Table) Color() bool {
	return t.color
}

// NumStrikes returns the number of strikes in the table.
func (t *Table) NumStrikes() int {
	return len(t.strikes)
}

// StrikePPEM returns the pixel size of the strike at index, 0 if out of
// range.
func (t *Table) StrikePPEM(index int) uint16 {
	if index < 0 || index >= len(t.strikes) {
		return 0
	}
	return t.strikes[index].ppem
}

// HasGlyph reports whether the strike at index carries the glyph.
func (t *Table) HasGlyph(gid uint32, index int) bool {
	if index < 0 || index >= len(t.strikes) {
		return false
	}
	_, ok := t.locate(gid, &t.strikes[index])
	return ok
}

// SelectStrike picks a strike for the requested pixel size following
// the policy, considering only strikes that carry the glyph.
// Returns -1 when no strike qualifies.
func (t *Table) SelectStrike(gid uint32, ppem uint16, policy Policy) int {
	best := -1
	switch policy {
	case PolicyExact:
		for i := range t.strikes {
			if t.strikes[i].ppem == ppem && t.HasGlyph(gid, i) {
				return i
			}
		}
		return -1

	case PolicyLargest:
		for i := range t.strikes {
			if !t.HasGlyph(gid, i) {
				continue
			}
			if best < 0 || t.strikes[i].ppem > t.strikes[best].ppem {
				best = i
			}
		}
		return best

	default: // PolicyNearest
		largest := -1
		for i := range t.strikes {
			if !t.HasGlyph(gid, i) {
				continue
			}
			if largest < 0 || t.strikes[i].ppem > t.strikes[largest].ppem {
				largest = i
			}
			if t.strikes[i].ppem >= ppem {
				if best < 0 || t.strikes[i].ppem < t.strikes[best].ppem {
					best = i
				}
			}
		}
		if best >= 0 {
			return best
		}
		return largest
	}
}

// GlyphAt extracts the bitmap of a glyph from the strike at index.
func (t *Table) GlyphAt(gid uint32, index int) (*Glyph, error) {
	if index < 0 || index >= len(t.strikes) {
		return nil, ErrNoStrike
	}
	st := &t.strikes[index]
	loc, ok := t.locate(gid, st)
	if !ok {
		return nil, ErrGlyphNotFound
	}
	return t.extract(gid, st, loc)
}

// location is a resolved glyph image: its byte range in the image data
// table plus constant metrics when the index subtable provides them.
type location struct {
	offset  uint32
	size    uint32
	format  uint16
	metrics *glyphMetrics
}

// locate finds the glyph's image location within a strike.
func (t *Table) locate(gid uint32, st *strike) (location, bool) {
	if gid > 0xFFFF {
		return location{}, false
	}
	glyphID := uint16(gid)
	if glyphID < st.startGlyph || glyphID > st.endGlyph {
		return location{}, false
	}
	if err := t.parseSubtables(st); err != nil {
		return location{}, false
	}

	for i := range st.subtables {
		ist := &st.subtables[i]
		if glyphID < ist.firstGlyph || glyphID > ist.lastGlyph {
			continue
		}
		loc, ok := locateInSubtable(glyphID, ist)
		if !ok || loc.size == 0 {
			return location{}, false
		}
		return loc, true
	}
	return location{}, false
}

func locateInSubtable(glyphID uint16, ist *indexSubtable) (location, bool) {
	loc := location{format: ist.imageFormat}
	idx := int(glyphID) - int(ist.firstGlyph)

	switch ist.indexFormat {
	case indexFormat1:
		if idx < 0 || idx+1 >= len(ist.offsets32) {
			return loc, false
		}
		if ist.offsets32[idx+1] < ist.offsets32[idx] {
			return loc, false
		}
		loc.offset = ist.imageDataOffset + ist.offsets32[idx]
		loc.size = ist.offsets32[idx+1] - ist.offsets32[idx]

	case indexFormat2:
		loc.offset = ist.imageDataOffset + uint32(idx)*ist.imageSize
		loc.size = ist.imageSize
		loc.metrics = ist.constant

	case indexFormat3:
		if idx < 0 || idx+1 >= len(ist.offsets16) {
			return loc, false
		}
		if ist.offsets16[idx+1] < ist.offsets16[idx] {
			return loc, false
		}
		loc.offset = ist.imageDataOffset + uint32(ist.offsets16[idx])
		loc.size = uint32(ist.offsets16[idx+1] - ist.offsets16[idx])

	case indexFormat4:
		for i := 0; i+1 < len(ist.sparse); i++ {
			if ist.sparse[i].glyphID == glyphID {
				if ist.sparse[i+1].offset < ist.sparse[i].offset {
					return loc, false
				}
				loc.offset = ist.imageDataOffset + uint32(ist.sparse[i].offset)
				loc.size = uint32(ist.sparse[i+1].offset - ist.sparse[i].offset)
				return loc, true
			}
		}
		return loc, false

	case indexFormat5:
		for i, id := range ist.glyphIDs {
			if id == glyphID {
				loc.offset = ist.imageDataOffset + uint32(i)*ist.imageSize
				loc.size = ist.imageSize
				loc.metrics = ist.constant
				return loc, true
			}
		}
		return loc, false

	default:
		return loc, false
	}
	return loc, true
}

// parseSubtables parses a strike's index subtable list on first use.
func (t *Table) parseSubtables(st *strike) error {
	if st.subtables != nil || st.broken {
		if st.broken {
			return ErrInvalidData
		}
		return nil
	}

	data := t.locData
	listOffset := int(st.subtableListOffset)
	if listOffset < 0 || listOffset+int(st.subtableCount)*8 > len(data) {
		st.broken = true
		return ErrInvalidData
	}

	subtables := make([]indexSubtable, 0, st.subtableCount)
	for i := 0; i < int(st.subtableCount); i++ {
		rec := data[listOffset+i*8:]
		ist := indexSubtable{
			firstGlyph: binary.BigEndian.Uint16(rec),
			lastGlyph:  binary.BigEndian.Uint16(rec[2:]),
		}
		subtableOffset := listOffset + int(binary.BigEndian.Uint32(rec[4:]))
		if err := t.parseSubtable(subtableOffset, &ist); err != nil {
			st.broken = true
			return err
		}
		subtables = append(subtables, ist)
	}
	st.subtables = subtables
	return nil
}

func (t *Table) parseSubtable(offset int, ist *indexSubtable) error {
	data := t.locData
	if offset < 0 || offset+8 > len(data) {
		return ErrInvalidData
	}
	ist.indexFormat = binary.BigEndian.Uint16(data[offset:])
	ist.imageFormat = binary.BigEndian.Uint16(data[offset+2:])
	ist.imageDataOffset = binary.BigEndian.Uint32(data[offset+4:])

	body := offset + 8
	numGlyphs := int(ist.lastGlyph) - int(ist.firstGlyph) + 1
	if numGlyphs <= 0 {
		return ErrInvalidData
	}

	switch ist.indexFormat {
	case indexFormat1:
		n := numGlyphs + 1
		if body+n*4 > len(data) {
			return ErrInvalidData
		}
		ist.offsets32 = make([]uint32, n)
		for i := range ist.offsets32 {
			ist.offsets32[i] = binary.BigEndian.Uint32(data[body+i*4:])
		}

	case indexFormat2:
		if body+12 > len(data) {
			return ErrInvalidData
		}
		ist.imageSize = binary.BigEndian.Uint32(data[body:])
		ist.constant = parseMetrics(data[body+4:])

	case indexFormat3:
		n := numGlyphs + 1
		if body+n*2 > len(data) {
			return ErrInvalidData
		}
		ist.offsets16 = make([]uint16, n)
		for i := range ist.offsets16 {
			ist.offsets16[i] = binary.BigEndian.Uint16(data[body+i*2:])
		}

	case indexFormat4:
		if body+4 > len(data) {
			return ErrInvalidData
		}
		n := int(binary.BigEndian.Uint32(data[body:])) + 1
		if body+4+n*4 > len(data) {
			return ErrInvalidData
		}
		ist.sparse = make([]sparseEntry, n)
		for i := range ist.sparse {
			rec := data[body+4+i*4:]
			ist.sparse[i] = sparseEntry{
				glyphID: binary.BigEndian.Uint16(rec),
				offset:  binary.BigEndian.Uint16(rec[2:]),
			}
		}

	case indexFormat5:
		if body+16 > len(data) {
			return ErrInvalidData
		}
		ist.imageSize = binary.BigEndian.Uint32(data[body:])
		ist.constant = parseMetrics(data[body+4:])
		n := int(binary.BigEndian.Uint32(data[body+12:]))
		if body+16+n*2 > len(data) {
			return ErrInvalidData
		}
		ist.glyphIDs = make([]uint16, n)
		for i := range ist.glyphIDs {
			ist.glyphIDs[i] = binary.BigEndian.Uint16(data[body+16+i*2:])
		}

	default:
		return ErrUnsupportedIndexFormat
	}
	return nil
}

// parseMetrics reads the horizontal part of BigGlyphMetrics (8 bytes on
// disk, vertical half ignored) or SmallGlyphMetrics (5 bytes).
func parseMetrics(data []byte) *glyphMetrics {
	return &glyphMetrics{
		height:   data[0],
		width:    data[1],
		bearingX: int8(data[2]),
		bearingY: int8(data[3]),
	}
}

// extract decodes a located glyph image into a Glyph.
func (t *Table) extract(gid uint32, st *strike, loc location) (*Glyph, error) {
	data := t.imgData
	end := int64(loc.offset) + int64(loc.size)
	if end > int64(len(data)) {
		return nil, ErrInvalidData
	}
	img := data[loc.offset:end]

	g := &Glyph{
		GlyphID: gid,
		PPEM:    st.ppem,
	}

	setMetrics := func(m *glyphMetrics) {
		g.Width = int(m.width)
		g.Height = int(m.height)
		g.OriginX = float32(m.bearingX)
		g.OriginY = float32(m.bearingY)
	}

	switch loc.format {
	case imageFormat17, imageFormat18, imageFormat19:
		// PNG payloads: optional metrics, then a length-prefixed blob.
		var hdr int
		switch loc.format {
		case imageFormat17:
			hdr = 5
		case imageFormat18:
			hdr = 8
		default:
			hdr = 0
		}
		if len(img) < hdr+4 {
			return nil, ErrInvalidData
		}
		if hdr > 0 {
			setMetrics(parseMetrics(img))
		} else if loc.metrics != nil {
			setMetrics(loc.metrics)
		}
		n := binary.BigEndian.Uint32(img[hdr:])
		if int64(hdr)+4+int64(n) > int64(len(img)) {
			return nil, ErrInvalidData
		}
		g.Data = img[hdr+4 : hdr+4+int(n)]
		g.Format = FormatPNG

	case imageFormat1, imageFormat2, imageFormat6, imageFormat7:
		// Mask payloads with inline metrics.
		hdr := 5
		if loc.format == imageFormat6 || loc.format == imageFormat7 {
			hdr = 8
		}
		if len(img) < hdr {
			return nil, ErrInvalidData
		}
		setMetrics(parseMetrics(img))
		g.Data = img[hdr:]
		g.Format = FormatMask
		g.BitDepth = st.bitDepth

	case imageFormat5:
		// Mask payload, metrics live in the location table.
		if loc.metrics == nil {
			return nil, ErrInvalidData
		}
		setMetrics(loc.metrics)
		g.Data = img
		g.Format = FormatMask
		g.BitDepth = st.bitDepth

	default:
		return nil, ErrUnsupportedImageFormat
	}

	return g, nil
}
