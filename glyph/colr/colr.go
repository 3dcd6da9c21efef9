// Package colr interprets COLR/CPAL color glyph descriptions.
//
// A color glyph is a paint graph over ordinary glyph outlines: solid
// and gradient fills, affine transforms, clip shapes and composition
// layers. Paint flattens the graph of one glyph into a Scene, a linear
// command list a renderer can replay without knowing the table format.
//
// Both table versions are understood: version 0 layer lists and the
// version 1 paint graph, including the variable paint formats (their
// deltas are ignored and default values used).
package colr

import (
	"encoding/binary"
	"errors"

	"github.com/gogpu/fontdb/geom"
)

// COLR/CPAL table format errors.
var (
	// ErrInvalidCOLRData indicates the COLR table data is malformed.
	ErrInvalidCOLRData = errors.New("colr: invalid COLR table data")

	// ErrInvalidCPALData indicates the CPAL table data is malformed.
	ErrInvalidCPALData = errors.New("colr: invalid CPAL table data")

	// ErrGlyphNotInCOLR indicates the glyph is not a color glyph.
	ErrGlyphNotInCOLR = errors.New("colr: glyph not found in COLR table")

	// ErrUnsupportedVersion indicates an unsupported COLR version.
	ErrUnsupportedVersion = errors.New("colr: unsupported COLR version")
)

// foregroundPaletteIndex is the CPAL placeholder for the text color.
const foregroundPaletteIndex = 0xFFFF

// OutlineSource provides glyph outlines for clip shapes of a paint
// graph. Outlines are in font units.
type OutlineSource interface {
	GlyphOutline(gid uint32) (*geom.Path, bool)
}

// Table is a parsed COLR table with its CPAL palette.
type Table struct {
	data    []byte
	version uint16

	// Version 0 records.
	baseGlyphs []baseGlyphRecord
	layers     []layerRecord

	// Version 1 offsets, 0 when absent.
	baseGlyphList uint32
	layerList     uint32
	clipList      uint32

	// First palette of CPAL; color glyph rendering always uses it.
	palette []Color
}

// baseGlyphRecord maps a glyph to its version 0 layer run.
type baseGlyphRecord struct {
	glyphID    uint16
	firstLayer uint16
	numLayers  uint16
}

// layerRecord is one version 0 layer.
type layerRecord struct {
	glyphID      uint16
	paletteIndex uint16
}

// Parse reads the COLR and CPAL tables of a face.
func Parse(colrData, cpalData []byte) (*Table, error) {
	if len(colrData) < 14 {
		return nil, ErrInvalidCOLRData
	}

	t := &Table{data: colrData}
	t.version = binary.BigEndian.Uint16(colrData)
	if t.version > 1 {
		return nil, ErrUnsupportedVersion
	}

	numBaseGlyphs := binary.BigEndian.Uint16(colrData[2:])
	baseGlyphsOffset := binary.BigEndian.Uint32(colrData[4:])
	layersOffset := binary.BigEndian.Uint32(colrData[8:])
	numLayers := binary.BigEndian.Uint16(colrData[12:])

	if err := t.parseBaseGlyphs(baseGlyphsOffset, numBaseGlyphs); err != nil {
		return nil, err
	}
	if err := t.parseLayers(layersOffset, numLayers); err != nil {
		return nil, err
	}

	if t.version == 1 {
		if len(colrData) < 34 {
			return nil, ErrInvalidCOLRData
		}
		t.baseGlyphList = binary.BigEndian.Uint32(colrData[14:])
		t.layerList = binary.BigEndian.Uint32(colrData[18:])
		t.clipList = binary.BigEndian.Uint32(colrData[22:])
		// The variation index map and item variation store at 26 and
		// 30 carry deltas this package does not apply.
	}

	palette, err := parseCPAL(cpalData)
	if err != nil {
		return nil, err
	}
	t.palette = palette

	return t, nil
}

func (t *Table) parseBaseGlyphs(offset uint32, count uint16) error {
	data := t.data
	const recordSize = 6
	if int64(offset)+int64(count)*recordSize > int64(len(data)) {
		return ErrInvalidCOLRData
	}
	t.baseGlyphs = make([]baseGlyphRecord, count)
	for i := range t.baseGlyphs {
		rec := data[int(offset)+i*recordSize:]
		t.baseGlyphs[i] = baseGlyphRecord{
			glyphID:    binary.BigEndian.Uint16(rec),
			firstLayer: binary.BigEndian.Uint16(rec[2:]),
			numLayers:  binary.BigEndian.Uint16(rec[4:]),
		}
	}
	return nil
}

func (t *Table) parseLayers(offset uint32, count uint16) error {
	data := t.data
	const recordSize = 4
	if int64(offset)+int64(count)*recordSize > int64(len(data)) {
		return ErrInvalidCOLRData
	}
	t.layers = make([]layerRecord, count)
	for i := range t.layers {
		rec := data[int(offset)+i*recordSize:]
		t.layers[i] = layerRecord{
			glyphID:      binary.BigEndian.Uint16(rec),
			paletteIndex: binary.BigEndian.Uint16(rec[2:]),
		}
	}
	return nil
}

// parseCPAL extracts the first palette of the CPAL table.
// CPAL stores color records as BGRA.
func parseCPAL(data []byte) ([]Color, error) {
	if len(data) < 14 {
		return nil, ErrInvalidCPALData
	}
	numEntries := binary.BigEndian.Uint16(data[2:])
	numPalettes := binary.BigEndian.Uint16(data[4:])
	colorRecordsOffset := binary.BigEndian.Uint32(data[8:])
	if numPalettes == 0 {
		return nil, ErrInvalidCPALData
	}
	firstIndex := binary.BigEndian.Uint16(data[12:])

	palette := make([]Color, numEntries)
	for i := range palette {
		pos := int64(colorRecordsOffset) + (int64(firstIndex)+int64(i))*4
		if pos+4 > int64(len(data)) {
			return nil, ErrInvalidCPALData
		}
		palette[i] = Color{
			B: data[pos],
			G: data[pos+1],
			R: data[pos+2],
			A: data[pos+3],
		}
	}
	return palette, nil
}

// Version returns the COLR table version, 0 or 1.
func (t *Table) Version() uint16 {
	return t.version
}

// HasGlyph reports whether the glyph has a color description, in
// either the version 1 base glyph list or the version 0 records.
func (t *Table) HasGlyph(gid uint32) bool {
	if _, ok := t.findBasePaint(gid); ok {
		return true
	}
	_, ok := t.findBaseGlyph(gid)
	return ok
}

// paletteColor resolves a palette index to a color, applying alpha.
// The foreground placeholder resolves to opaque black and is flagged.
func (t *Table) paletteColor(index uint16, alpha float32) (Color, bool) {
	if index == foregroundPaletteIndex {
		return Color{A: 255}.WithAlpha(alpha), true
	}
	if int(index) >= len(t.palette) {
		return Color{}, false
	}
	return t.palette[index].WithAlpha(alpha), false
}

// findBaseGlyph locates a glyph's version 0 layer run.
func (t *Table) findBaseGlyph(gid uint32) (baseGlyphRecord, bool) {
	if gid > 0xFFFF {
		return baseGlyphRecord{}, false
	}
	glyphID := uint16(gid)
	for _, rec := range t.baseGlyphs {
		if rec.glyphID == glyphID {
			return rec, true
		}
	}
	return baseGlyphRecord{}, false
}

// findBasePaint locates a glyph's root paint offset in the version 1
// base glyph list. The returned offset is absolute within the table.
func (t *Table) findBasePaint(gid uint32) (int, bool) {
	if t.baseGlyphList == 0 || gid > 0xFFFF {
		return 0, false
	}
	data := t.data
	base := int(t.baseGlyphList)
	if base+4 > len(data) {
		return 0, false
	}
	count := int(binary.BigEndian.Uint32(data[base:]))
	const recordSize = 6 // glyphID (2) + paint offset (4)
	if int64(base)+4+int64(count)*recordSize > int64(len(data)) {
		return 0, false
	}
	glyphID := uint16(gid)
	for i := 0; i < count; i++ {
		rec := data[base+4+i*recordSize:]
		if binary.BigEndian.Uint16(rec) == glyphID {
			paintOffset := binary.BigEndian.Uint32(rec[2:])
			return base + int(paintOffset), true
		}
	}
	return 0, false
}

// layerPaint returns the absolute offset of an entry in the version 1
// layer list.
func (t *Table) layerPaint(index uint32) (int, bool) {
	if t.layerList == 0 {
		return 0, false
	}
	data := t.data
	base := int(t.layerList)
	if base+4 > len(data) {
		return 0, false
	}
	count := binary.BigEndian.Uint32(data[base:])
	if index >= count {
		return 0, false
	}
	pos := int64(base) + 4 + int64(index)*4
	if pos+4 > int64(len(data)) {
		return 0, false
	}
	return base + int(binary.BigEndian.Uint32(data[pos:])), true
}

// clipBox looks up the glyph's clip box in the version 1 clip list.
func (t *Table) clipBox(gid uint32) (geom.Rect, bool) {
	if t.clipList == 0 || gid > 0xFFFF {
		return geom.Rect{}, false
	}
	data := t.data
	base := int(t.clipList)
	if base+5 > len(data) {
		return geom.Rect{}, false
	}
	// format (1 byte) then the clip record count.
	count := int(binary.BigEndian.Uint32(data[base+1:]))
	const recordSize = 7 // start gid (2) + end gid (2) + box offset (3)
	if int64(base)+5+int64(count)*recordSize > int64(len(data)) {
		return geom.Rect{}, false
	}
	glyphID := uint16(gid)
	for i := 0; i < count; i++ {
		rec := data[base+5+i*recordSize:]
		start := binary.BigEndian.Uint16(rec)
		end := binary.BigEndian.Uint16(rec[2:])
		if glyphID < start || glyphID > end {
			continue
		}
		boxOffset := base + int(uint24(rec[4:]))
		// ClipBox: format (1 byte) then four FWORD coordinates. The
		// variable format appends a varIndexBase which is ignored.
		if boxOffset+9 > len(data) {
			return geom.Rect{}, false
		}
		box := data[boxOffset:]
		if box[0] != 1 && box[0] != 2 {
			return geom.Rect{}, false
		}
		return geom.Rect{
			MinX: float32(int16(binary.BigEndian.Uint16(box[1:]))),
			MinY: float32(int16(binary.BigEndian.Uint16(box[3:]))),
			MaxX: float32(int16(binary.BigEndian.Uint16(box[5:]))),
			MaxY: float32(int16(binary.BigEndian.Uint16(box[7:]))),
		}, true
	}
	return geom.Rect{}, false
}

func uint24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}
