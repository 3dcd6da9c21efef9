// Package glyph extracts glyph representations from font faces stored
// in a database: vector outlines (optionally grid fitted and with
// variable font axes applied), SVG documents, embedded bitmaps and
// COLR paint scenes.
//
// An Extractor caches parsed faces, so repeated extractions from the
// same face parse its tables once. Outline results can additionally be
// memoized per rendering pass with an OutlineCache.
package glyph

import (
	"bytes"
	"encoding/binary"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"github.com/golang/freetype/truetype"

	"github.com/gogpu/fontdb"
	"github.com/gogpu/fontdb/geom"
	"github.com/gogpu/fontdb/glyph/colr"
	"github.com/gogpu/fontdb/glyph/sbit"
	"github.com/gogpu/fontdb/internal/cache"
)

// faceCacheSize bounds the number of parsed faces kept alive.
const faceCacheSize = 32

// Extractor extracts glyph data from faces of a database.
//
// Extractor is safe for concurrent use as long as the underlying
// database is not mutated concurrently.
type Extractor struct {
	db    *fontdb.Database
	faces *cache.Cache[fontdb.ID, *parsedFace]
}

// NewExtractor creates an extractor over the given database.
func NewExtractor(db *fontdb.Database) *Extractor {
	return &Extractor{
		db:    db,
		faces: cache.New[fontdb.ID, *parsedFace](faceCacheSize),
	}
}

// VariationAxis describes one variable font axis.
type VariationAxis struct {
	Tag     string
	Min     float32
	Default float32
	Max     float32
}

// parsedFace holds everything parsed out of one face. It is built once
// per face and shared by all extractions.
type parsedFace struct {
	id   fontdb.ID
	font *font.Font
	upem uint16
	axes []VariationAxis

	color *colr.Table
	svg   *svgTable
	cbdt  *sbit.Table
	ebdt  *sbit.Table
	sbix  *sbit.Sbix

	// Raw metrics tables, kept for FaceMetrics.
	hhea []byte
	os2  []byte
	post []byte

	// hinter is the bytecode interpreter font, nil when hinting is
	// unavailable for this face.
	hinter *truetype.Font
}

// face returns the parsed face for id, parsing and caching it on first
// use. Returns nil for stale handles and unparseable faces.
func (e *Extractor) face(id fontdb.ID) *parsedFace {
	return e.faces.GetOrCreate(id, func() *parsedFace {
		return e.parseFace(id)
	})
}

func (e *Extractor) parseFace(id fontdb.ID) *parsedFace {
	// Promote the face bytes to a shared copy: parsed tables keep
	// referencing them past this call.
	data, index, ok := e.db.MakeSharedFaceData(id)
	if !ok {
		return nil
	}

	loaders, err := opentype.NewLoaders(bytes.NewReader(data))
	if err != nil || index >= len(loaders) {
		return nil
	}
	ld := loaders[index]

	ft, err := font.NewFont(ld)
	if err != nil {
		return nil
	}

	pf := &parsedFace{id: id, font: ft, upem: ft.Upem()}

	rawTable := func(name string) []byte {
		raw, err := ld.RawTable(opentype.MustNewTag(name))
		if err != nil {
			return nil
		}
		return raw
	}

	pf.axes = parseAxes(rawTable("fvar"))
	pf.hhea = rawTable("hhea")
	pf.os2 = rawTable("OS/2")
	pf.post = rawTable("post")

	if colrData := rawTable("COLR"); colrData != nil {
		if cpalData := rawTable("CPAL"); cpalData != nil {
			pf.color, _ = colr.Parse(colrData, cpalData)
		}
	}
	if svgData := rawTable("SVG "); svgData != nil {
		pf.svg, _ = parseSVGTable(svgData)
	}
	if cbdt := rawTable("CBDT"); cbdt != nil {
		if cblc := rawTable("CBLC"); cblc != nil {
			pf.cbdt, _ = sbit.ParseCBDT(cblc, cbdt)
		}
	}
	if ebdt := rawTable("EBDT"); ebdt != nil {
		if eblc := rawTable("EBLC"); eblc != nil {
			pf.ebdt, _ = sbit.ParseEBDT(eblc, ebdt)
		}
	}
	if sbixData := rawTable("sbix"); sbixData != nil {
		if maxp := rawTable("maxp"); len(maxp) >= 6 {
			numGlyphs := binary.BigEndian.Uint16(maxp[4:])
			pf.sbix, _ = sbit.ParseSbix(sbixData, numGlyphs)
		}
	}

	// The bytecode interpreter reads the first face of a collection
	// only; later faces fall back to unhinted outlines.
	if index == 0 {
		pf.hinter, _ = truetype.Parse(data)
	}

	return pf
}

// parseAxes reads the axis records of an fvar table.
func parseAxes(data []byte) []VariationAxis {
	if len(data) < 16 {
		return nil
	}
	axesOffset := int(binary.BigEndian.Uint16(data[4:]))
	axisCount := int(binary.BigEndian.Uint16(data[8:]))
	axisSize := int(binary.BigEndian.Uint16(data[10:]))
	if axisSize < 20 || axesOffset+axisCount*axisSize > len(data) {
		return nil
	}

	axes := make([]VariationAxis, 0, axisCount)
	for i := 0; i < axisCount; i++ {
		rec := data[axesOffset+i*axisSize:]
		axes = append(axes, VariationAxis{
			Tag:     string(rec[:4]),
			Min:     fixedToFloat(rec[4:]),
			Default: fixedToFloat(rec[8:]),
			Max:     fixedToFloat(rec[12:]),
		})
	}
	return axes
}

func fixedToFloat(b []byte) float32 {
	return float32(int32(binary.BigEndian.Uint32(b))) / 65536
}

// Axes returns the variation axes of a face, nil for static faces.
func (e *Extractor) Axes(id fontdb.ID) []VariationAxis {
	pf := e.face(id)
	if pf == nil {
		return nil
	}
	return pf.axes
}

// UnitsPerEm returns the face's units per em, 0 for stale handles.
func (e *Extractor) UnitsPerEm(id fontdb.ID) uint16 {
	pf := e.face(id)
	if pf == nil {
		return 0
	}
	return pf.upem
}

// hasAxis reports whether the face declares the given axis tag.
func (pf *parsedFace) hasAxis(tag string) bool {
	for _, axis := range pf.axes {
		if axis.Tag == tag {
			return true
		}
	}
	return false
}

// effectiveVariations resolves the variation list actually applied:
// the caller's settings plus the optical size axis following the pixel
// size when the face has one and the caller leaves it unset.
func (pf *parsedFace) effectiveVariations(opts Options) []Variation {
	vars := opts.Variations
	if opts.PPEM <= 0 || !pf.hasAxis("opsz") {
		return vars
	}
	for _, v := range vars {
		if v.Tag == "opsz" {
			return vars
		}
	}
	out := make([]Variation, len(vars), len(vars)+1)
	copy(out, vars)
	return append(out, Variation{Tag: "opsz", Value: opts.PPEM})
}

// instance builds a variation-applied view of the face.
func (pf *parsedFace) instance(vars []Variation) *font.Face {
	face := font.NewFace(pf.font)
	if len(vars) == 0 {
		return face
	}
	applied := make([]font.Variation, 0, len(vars))
	for _, v := range vars {
		if len(v.Tag) != 4 {
			continue
		}
		applied = append(applied, font.Variation{
			Tag:   opentype.MustNewTag(v.Tag),
			Value: v.Value,
		})
	}
	face.SetVariations(applied)
	return face
}

// faceOutlines adapts a face instance to the paint interpreter's
// outline source.
type faceOutlines struct {
	face *font.Face
}

func (f faceOutlines) GlyphOutline(gid uint32) (*geom.Path, bool) {
	path := outlineFromFace(f.face, gid)
	if path.IsEmpty() {
		return nil, false
	}
	return path, true
}
