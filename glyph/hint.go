package glyph

import (
	"github.com/golang/freetype/truetype"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/fontdb/geom"
)

// hintedOutline runs the TrueType bytecode interpreter at the given
// pixel size and rebuilds the grid fitted outline, rescaled back to
// font units so callers see one coordinate space regardless of
// hinting.
func (pf *parsedFace) hintedOutline(gid uint32, ppem float32, params HintingParams) (*geom.Path, bool) {
	scale := fixed.Int26_6(ppem * 64)
	if scale <= 0 {
		return nil, false
	}

	var buf truetype.GlyphBuf
	if err := buf.Load(pf.hinter, scale, truetype.Index(gid), hintingMode(params)); err != nil {
		return nil, false
	}

	// Loaded points are 26.6 pixel values.
	unscale := float32(pf.upem) / (ppem * 64)

	var b geom.PathBuilder
	e0 := 0
	for _, e1 := range buf.Ends {
		if e1 < e0 || e1 > len(buf.Points) {
			return nil, false
		}
		appendContour(&b, buf.Points[e0:e1], unscale)
		e0 = e1
	}
	path := b.Finish()
	if path == nil {
		path = &geom.Path{}
	}
	return path, true
}

func hintingMode(params HintingParams) xfont.Hinting {
	if params.Target == TargetMono {
		return xfont.HintingFull
	}
	return xfont.HintingVertical
}

// appendContour rebuilds one quadratic contour from TrueType points.
// Off curve points are quadratic controls; two adjacent off curve
// points imply an on curve point at their midpoint.
func appendContour(b *geom.PathBuilder, pts []truetype.Point, scale float32) {
	if len(pts) == 0 {
		return
	}

	onCurve := func(p truetype.Point) bool { return p.Flags&0x01 != 0 }
	at := func(p truetype.Point) (float32, float32) {
		return float32(p.X) * scale, float32(p.Y) * scale
	}

	var start truetype.Point
	rest := pts
	switch {
	case onCurve(pts[0]):
		start = pts[0]
		rest = pts[1:]
	case onCurve(pts[len(pts)-1]):
		start = pts[len(pts)-1]
		rest = pts[:len(pts)-1]
	default:
		// A contour with no on curve start begins at the implied
		// midpoint of its first and last points.
		start = truetype.Point{
			X: (pts[0].X + pts[len(pts)-1].X) / 2,
			Y: (pts[0].Y + pts[len(pts)-1].Y) / 2,
		}
	}

	startX, startY := at(start)
	b.MoveTo(startX, startY)

	haveCtrl := false
	var ctrl truetype.Point
	for _, p := range rest {
		x, y := at(p)
		switch {
		case !haveCtrl && onCurve(p):
			b.LineTo(x, y)
		case !haveCtrl:
			ctrl, haveCtrl = p, true
		case onCurve(p):
			cx, cy := at(ctrl)
			b.QuadTo(cx, cy, x, y)
			haveCtrl = false
		default:
			cx, cy := at(ctrl)
			b.QuadTo(cx, cy, (cx+x)/2, (cy+y)/2)
			ctrl = p
		}
	}
	if haveCtrl {
		cx, cy := at(ctrl)
		b.QuadTo(cx, cy, startX, startY)
	}
	b.Close()
}
