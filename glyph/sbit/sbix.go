package sbit

import (
	"bytes"
	"encoding/binary"
	"image"
	_ "image/png" // sbix strikes are PNG in practice
)

// Sbix reads the sbix table, Apple's bitmap strike format.
//
// Unlike CBLC, sbix addresses glyph data by glyph ID directly, so the
// glyph count from the maxp table is required to parse a strike.
type Sbix struct {
	data      []byte
	numGlyphs uint16
	strikes   []sbixStrike
}

type sbixStrike struct {
	ppem    uint16
	offset  uint32
	offsets []uint32 // numGlyphs+1 entries, last one marks the end
}

// ParseSbix reads an sbix table. numGlyphs comes from maxp.
func ParseSbix(data []byte, numGlyphs uint16) (*Sbix, error) {
	if len(data) < 8 {
		return nil, ErrInvalidData
	}
	if binary.BigEndian.Uint16(data) != 1 {
		return nil, ErrInvalidData
	}

	numStrikes := binary.BigEndian.Uint32(data[4:])
	if 8+int64(numStrikes)*4 > int64(len(data)) {
		return nil, ErrInvalidData
	}

	s := &Sbix{data: data, numGlyphs: numGlyphs}
	s.strikes = make([]sbixStrike, 0, numStrikes)
	for i := 0; i < int(numStrikes); i++ {
		offset := binary.BigEndian.Uint32(data[8+i*4:])
		strike, err := s.parseStrike(offset)
		if err != nil {
			return nil, err
		}
		s.strikes = append(s.strikes, strike)
	}
	return s, nil
}

func (s *Sbix) parseStrike(offset uint32) (sbixStrike, error) {
	data := s.data
	n := int(s.numGlyphs) + 1
	if int64(offset)+4+int64(n)*4 > int64(len(data)) {
		return sbixStrike{}, ErrInvalidData
	}

	strike := sbixStrike{
		ppem:    binary.BigEndian.Uint16(data[offset:]),
		offset:  offset,
		offsets: make([]uint32, n),
	}
	// ppi at offset+2 is not needed for extraction.
	for i := range strike.offsets {
		strike.offsets[i] = binary.BigEndian.Uint32(data[int(offset)+4+i*4:])
	}
	return strike, nil
}

// NumStrikes returns the number of strikes in the table.
func (s *Sbix) NumStrikes() int {
	return len(s.strikes)
}

// StrikePPEM returns the pixel size of the strike at index, 0 if out of
// range.
func (s *Sbix) StrikePPEM(index int) uint16 {
	if index < 0 || index >= len(s.strikes) {
		return 0
	}
	return s.strikes[index].ppem
}

// HasGlyph reports whether the strike at index carries the glyph.
func (s *Sbix) HasGlyph(gid uint32, index int) bool {
	if index < 0 || index >= len(s.strikes) || gid >= uint32(s.numGlyphs) {
		return false
	}
	st := &s.strikes[index]
	return st.offsets[gid+1] > st.offsets[gid]
}

// SelectStrike picks a strike following the policy, considering only
// strikes that carry the glyph. Returns -1 when no strike qualifies.
func (s *Sbix) SelectStrike(gid uint32, ppem uint16, policy Policy) int {
	best := -1
	switch policy {
	case PolicyExact:
		for i := range s.strikes {
			if s.strikes[i].ppem == ppem && s.HasGlyph(gid, i) {
				return i
			}
		}
		return -1

	case PolicyLargest:
		for i := range s.strikes {
			if !s.HasGlyph(gid, i) {
				continue
			}
			if best < 0 || s.strikes[i].ppem > s.strikes[best].ppem {
				best = i
			}
		}
		return best

	default: // PolicyNearest
		largest := -1
		for i := range s.strikes {
			if !s.HasGlyph(gid, i) {
				continue
			}
			if largest < 0 || s.strikes[i].ppem > s.strikes[largest].ppem {
				largest = i
			}
			if s.strikes[i].ppem >= ppem {
				if best < 0 || s.strikes[i].ppem < s.strikes[best].ppem {
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
func (s *Sbix) GlyphAt(gid uint32, index int) (*Glyph, error) {
	if index < 0 || index >= len(s.strikes) {
		return nil, ErrNoStrike
	}
	if gid >= uint32(s.numGlyphs) {
		return nil, ErrGlyphNotFound
	}
	st := &s.strikes[index]
	start := st.offsets[gid]
	end := st.offsets[gid+1]
	if end <= start {
		return nil, ErrGlyphNotFound
	}

	dataStart := int64(st.offset) + int64(start)
	dataEnd := int64(st.offset) + int64(end)
	if dataStart+8 > dataEnd || dataEnd > int64(len(s.data)) {
		return nil, ErrInvalidData
	}
	rec := s.data[dataStart:dataEnd]

	var format Format
	switch string(rec[4:8]) {
	case "png ":
		format = FormatPNG
	case "jpg ":
		format = FormatJPEG
	case "tiff":
		format = FormatTIFF
	default:
		// "dupe" redirects and "mask" variants are not extracted.
		return nil, ErrUnsupportedImageFormat
	}

	g := &Glyph{
		GlyphID: gid,
		Data:    rec[8:],
		Format:  format,
		OriginX: float32(int16(binary.BigEndian.Uint16(rec))),
		OriginY: float32(int16(binary.BigEndian.Uint16(rec[2:]))),
		PPEM:    st.ppem,
	}

	// sbix records carry no dimensions; read them from the image
	// header when the decoder knows the format.
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(g.Data)); err == nil {
		g.Width = cfg.Width
		g.Height = cfg.Height
	}
	return g, nil
}
