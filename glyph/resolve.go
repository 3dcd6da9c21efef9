package glyph

import (
	"github.com/gogpu/fontdb"
	"github.com/gogpu/fontdb/geom"
	"github.com/gogpu/fontdb/glyph/colr"
	"github.com/gogpu/fontdb/glyph/sbit"
)

// Kind identifies which representation a glyph resolved to.
type Kind uint8

const (
	// KindOutline is a plain vector outline.
	KindOutline Kind = iota

	// KindColor is a layered color paint scene.
	KindColor

	// KindSVG is an embedded SVG document.
	KindSVG

	// KindBitmap is an embedded bitmap strike.
	KindBitmap
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindOutline:
		return "outline"
	case KindColor:
		return "color"
	case KindSVG:
		return "svg"
	case KindBitmap:
		return "bitmap"
	default:
		return "unknown"
	}
}

// Representation is the resolved form of one glyph. Exactly the field
// matching Kind is set.
type Representation struct {
	Kind Kind

	Scene    *colr.Scene
	Document *SVGDocument
	Bitmap   *sbit.Glyph
	Outline  *geom.Path
}

// Resolve picks the richest representation a face offers for a glyph.
//
// Color formats win over monochrome ones: COLR paint first, then SVG
// documents, then color bitmap strikes. Otherwise the vector outline
// is used. Monochrome bitmap strikes beat the outline only on an exact
// pixel size match; for bitmap only faces the nearest strike serves as
// the fallback.
func (e *Extractor) Resolve(id fontdb.ID, glyphID uint32, opts Options) (*Representation, bool) {
	pf := e.face(id)
	if pf == nil {
		return nil, false
	}

	if pf.color != nil && pf.color.HasGlyph(glyphID) {
		face := pf.instance(pf.effectiveVariations(opts))
		scene, err := pf.color.Paint(glyphID, faceOutlines{face})
		if err == nil && !scene.IsEmpty() {
			return &Representation{Kind: KindColor, Scene: scene}, true
		}
	}

	if pf.svg != nil {
		if entry, ok := pf.svg.lookup(glyphID); ok {
			if doc, err := entry.document(); err == nil {
				return &Representation{Kind: KindSVG, Document: doc}, true
			}
		}
	}

	ppem := roundPPEM(opts.PPEM)

	if bm := colorBitmap(pf, glyphID, ppem); bm != nil {
		return &Representation{Kind: KindBitmap, Bitmap: bm}, true
	}

	if ppem > 0 {
		if bm := maskBitmap(pf, glyphID, ppem, sbit.PolicyExact); bm != nil {
			return &Representation{Kind: KindBitmap, Bitmap: bm}, true
		}
	}

	path, hasOutline := e.Outline(id, glyphID, opts)
	if hasOutline && !path.IsEmpty() {
		return &Representation{Kind: KindOutline, Outline: path}, true
	}

	policy := sbit.PolicyNearest
	if ppem == 0 {
		policy = sbit.PolicyLargest
	}
	if bm := maskBitmap(pf, glyphID, ppem, policy); bm != nil {
		return &Representation{Kind: KindBitmap, Bitmap: bm}, true
	}

	// Glyphs that exist but draw nothing still resolve, so callers can
	// tell a space apart from a missing glyph.
	if hasOutline {
		return &Representation{Kind: KindOutline, Outline: path}, true
	}
	return nil, false
}

func roundPPEM(ppem float32) uint16 {
	if ppem <= 0 {
		return 0
	}
	if ppem >= 0xFFFF {
		return 0xFFFF
	}
	return uint16(ppem + 0.5)
}

// colorBitmap looks up a color strike glyph, largest strike first for
// best downscaling quality.
func colorBitmap(pf *parsedFace, gid uint32, ppem uint16) *sbit.Glyph {
	if pf.cbdt != nil {
		if idx := pf.cbdt.SelectStrike(gid, ppem, sbit.PolicyLargest); idx >= 0 {
			if g, err := pf.cbdt.GlyphAt(gid, idx); err == nil {
				return g
			}
		}
	}
	if pf.sbix != nil {
		if idx := pf.sbix.SelectStrike(gid, ppem, sbit.PolicyLargest); idx >= 0 {
			if g, err := pf.sbix.GlyphAt(gid, idx); err == nil {
				return g
			}
		}
	}
	return nil
}

func maskBitmap(pf *parsedFace, gid uint32, ppem uint16, policy sbit.Policy) *sbit.Glyph {
	if pf.ebdt == nil {
		return nil
	}
	idx := pf.ebdt.SelectStrike(gid, ppem, policy)
	if idx < 0 {
		return nil
	}
	g, err := pf.ebdt.GlyphAt(gid, idx)
	if err != nil {
		return nil
	}
	return g
}
