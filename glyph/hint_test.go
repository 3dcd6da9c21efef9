package glyph

import (
	"testing"

	"github.com/golang/freetype/truetype"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/fontdb/geom"
)

func ttPoint(x, y fixed.Int26_6, onCurve bool) truetype.Point {
	p := truetype.Point{X: x, Y: y}
	if onCurve {
		p.Flags = 0x01
	}
	return p
}

func contourVerbs(pts []truetype.Point) *geom.Path {
	var b geom.PathBuilder
	appendContour(&b, pts, 1)
	return b.Finish()
}

func TestAppendContourAllOnCurve(t *testing.T) {
	path := contourVerbs([]truetype.Point{
		ttPoint(0, 0, true),
		ttPoint(10, 0, true),
		ttPoint(10, 10, true),
		ttPoint(0, 10, true),
	})

	want := []geom.PathVerb{
		geom.VerbMoveTo, geom.VerbLineTo, geom.VerbLineTo,
		geom.VerbLineTo, geom.VerbClose,
	}
	if len(path.Verbs) != len(want) {
		t.Fatalf("got %d verbs, want %d", len(path.Verbs), len(want))
	}
	for i, v := range want {
		if path.Verbs[i] != v {
			t.Errorf("verb %d = %v, want %v", i, path.Verbs[i], v)
		}
	}
}

func TestAppendContourOffCurveControl(t *testing.T) {
	path := contourVerbs([]truetype.Point{
		ttPoint(0, 0, true),
		ttPoint(10, 10, false),
		ttPoint(20, 0, true),
	})

	want := []geom.PathVerb{geom.VerbMoveTo, geom.VerbQuadTo, geom.VerbClose}
	if len(path.Verbs) != len(want) {
		t.Fatalf("got %d verbs, want %d", len(path.Verbs), len(want))
	}
	if path.Points[1] != (geom.Point{X: 10, Y: 10}) {
		t.Errorf("control point = %v, want (10, 10)", path.Points[1])
	}
}

func TestAppendContourStartsAtTrailingOnCurve(t *testing.T) {
	// First point off curve, last on curve: the contour starts at the
	// last point.
	path := contourVerbs([]truetype.Point{
		ttPoint(10, 10, false),
		ttPoint(20, 0, true),
		ttPoint(0, 0, true),
	})

	if path.Verbs[0] != geom.VerbMoveTo {
		t.Fatalf("first verb = %v, want MoveTo", path.Verbs[0])
	}
	if path.Points[0] != (geom.Point{X: 0, Y: 0}) {
		t.Errorf("start point = %v, want (0, 0)", path.Points[0])
	}
	if path.Verbs[1] != geom.VerbQuadTo {
		t.Errorf("verb 1 = %v, want QuadTo", path.Verbs[1])
	}
}

func TestAppendContourAllOffCurve(t *testing.T) {
	// A contour of only off curve points starts at the implied midpoint
	// of its first and last points and is all quads.
	path := contourVerbs([]truetype.Point{
		ttPoint(10, 0, false),
		ttPoint(10, 10, false),
		ttPoint(0, 10, false),
		ttPoint(0, 0, false),
	})

	if path.Points[0] != (geom.Point{X: 5, Y: 0}) {
		t.Errorf("start point = %v, want the (5, 0) midpoint", path.Points[0])
	}
	quads := 0
	for _, v := range path.Verbs {
		if v == geom.VerbQuadTo {
			quads++
		}
	}
	if quads != 4 {
		t.Errorf("got %d quads, want 4", quads)
	}
}

func TestAppendContourTrailingControlClosesWithQuad(t *testing.T) {
	path := contourVerbs([]truetype.Point{
		ttPoint(0, 0, true),
		ttPoint(20, 0, true),
		ttPoint(10, 10, false),
	})

	last := path.Verbs[len(path.Verbs)-2]
	if last != geom.VerbQuadTo {
		t.Fatalf("closing verb = %v, want QuadTo", last)
	}
	end := path.Points[len(path.Points)-1]
	if end != (geom.Point{X: 0, Y: 0}) {
		t.Errorf("closing quad ends at %v, want the start point", end)
	}
}

func TestAppendContourScale(t *testing.T) {
	var b geom.PathBuilder
	appendContour(&b, []truetype.Point{
		ttPoint(64, 0, true),
		ttPoint(128, 64, true),
		ttPoint(0, 64, true),
	}, 0.5)
	path := b.Finish()

	if path.Points[0] != (geom.Point{X: 32, Y: 0}) {
		t.Errorf("scaled start = %v, want (32, 0)", path.Points[0])
	}
	if path.Points[1] != (geom.Point{X: 64, Y: 32}) {
		t.Errorf("scaled point = %v, want (64, 32)", path.Points[1])
	}
}

func TestHintingMode(t *testing.T) {
	if got := hintingMode(HintingParams{Target: TargetMono}); got != xfont.HintingFull {
		t.Errorf("mono target = %v, want HintingFull", got)
	}
	if got := hintingMode(HintingParams{Target: TargetSmooth}); got != xfont.HintingVertical {
		t.Errorf("smooth target = %v, want HintingVertical", got)
	}
}
