package glyph

import (
	"encoding/binary"

	"github.com/gogpu/fontdb"
)

// FaceMetrics carries the face-wide layout metrics in font units.
// The Y axis points up, so Descent is typically negative. Subscript
// and superscript offsets follow the OS/2 convention: both are
// magnitudes measured from the baseline towards their direction.
type FaceMetrics struct {
	UnitsPerEm uint16

	Ascent  float32
	Descent float32
	LineGap float32

	XHeight float32

	UnderlinePosition  float32
	UnderlineThickness float32

	StrikeoutPosition  float32
	StrikeoutThickness float32

	SubscriptOffset   float32
	SuperscriptOffset float32
}

// Metrics returns the layout metrics of a face. Missing tables are
// substituted with conventional fallbacks, so a valid face always
// yields usable values.
func (e *Extractor) Metrics(id fontdb.ID) (FaceMetrics, bool) {
	pf := e.face(id)
	if pf == nil || pf.upem == 0 {
		return FaceMetrics{}, false
	}
	upem := float32(pf.upem)
	m := FaceMetrics{UnitsPerEm: pf.upem}

	switch {
	case len(pf.hhea) >= 10:
		m.Ascent = i16At(pf.hhea, 4)
		m.Descent = i16At(pf.hhea, 6)
		m.LineGap = i16At(pf.hhea, 8)
	case len(pf.os2) >= 74:
		m.Ascent = i16At(pf.os2, 68)
		m.Descent = i16At(pf.os2, 70)
		m.LineGap = i16At(pf.os2, 72)
	}

	// The 45% x-height fallback matches what browsers assume for fonts
	// without one.
	m.XHeight = xHeight(pf.os2)
	if m.XHeight <= 0 {
		m.XHeight = (m.Ascent - m.Descent) * 0.45
	}

	if len(pf.os2) >= 30 {
		m.StrikeoutThickness = i16At(pf.os2, 26)
		m.StrikeoutPosition = i16At(pf.os2, 28)
	} else {
		m.StrikeoutThickness = upem / 12
		m.StrikeoutPosition = m.XHeight / 2
	}

	if len(pf.post) >= 12 {
		m.UnderlinePosition = i16At(pf.post, 8)
		m.UnderlineThickness = i16At(pf.post, 10)
	} else {
		m.UnderlinePosition = -upem / 9
	}
	if m.UnderlineThickness <= 0 {
		m.UnderlineThickness = upem / 12
	}

	if len(pf.os2) >= 26 {
		m.SubscriptOffset = i16At(pf.os2, 16)
		m.SuperscriptOffset = i16At(pf.os2, 24)
	} else {
		m.SubscriptOffset = upem * 0.2
		m.SuperscriptOffset = upem * 0.4
	}

	return m, true
}

// xHeight reads sxHeight, present from OS/2 version 2 on.
func xHeight(os2 []byte) float32 {
	if len(os2) < 90 {
		return 0
	}
	if binary.BigEndian.Uint16(os2) < 2 {
		return 0
	}
	return i16At(os2, 86)
}

func i16At(data []byte, offset int) float32 {
	return float32(int16(binary.BigEndian.Uint16(data[offset:])))
}
