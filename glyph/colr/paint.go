package colr

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/fontdb/geom"
)

// maxPaintDepth bounds paint graph recursion. Well-formed fonts stay
// far below this; malicious ones must not overflow the stack.
const maxPaintDepth = 64

// Paint format identifiers. Odd formats right after an even one are the
// variable flavor of the same paint; their base fields share the layout
// and the trailing variation index is ignored.
const (
	paintColrLayers                  = 1
	paintSolid                       = 2
	paintVarSolid                    = 3
	paintLinearGradient              = 4
	paintVarLinearGradient           = 5
	paintRadialGradient              = 6
	paintVarRadialGradient           = 7
	paintSweepGradient               = 8
	paintVarSweepGradient            = 9
	paintGlyph                       = 10
	paintColrGlyph                   = 11
	paintTransform                   = 12
	paintVarTransform                = 13
	paintTranslate                   = 14
	paintVarTranslate                = 15
	paintScale                       = 16
	paintVarScale                    = 17
	paintScaleAroundCenter           = 18
	paintVarScaleAroundCenter        = 19
	paintScaleUniform                = 20
	paintVarScaleUniform             = 21
	paintScaleUniformAroundCenter    = 22
	paintVarScaleUniformAroundCenter = 23
	paintRotate                      = 24
	paintVarRotate                   = 25
	paintRotateAroundCenter          = 26
	paintVarRotateAroundCenter       = 27
	paintSkew                        = 28
	paintVarSkew                     = 29
	paintSkewAroundCenter            = 30
	paintVarSkewAroundCenter         = 31
	paintComposite                   = 32
)

// Paint flattens the color description of a glyph into a Scene.
//
// The version 1 paint graph takes precedence; glyphs present only in
// the version 0 records fall back to the layer list interpretation.
// Returns ErrGlyphNotInCOLR for glyphs without a color description.
func (t *Table) Paint(gid uint32, outlines OutlineSource) (*Scene, error) {
	if offset, ok := t.findBasePaint(gid); ok {
		p := &painter{table: t, outlines: outlines, scene: &Scene{}}

		boxed := false
		if box, ok := t.clipBox(gid); ok {
			p.emit(PushClipBox{Box: box})
			boxed = true
		}
		if err := p.paint(offset, geom.Identity()); err != nil {
			return nil, err
		}
		if boxed {
			p.emit(PopClip{})
		}
		return p.scene, nil
	}
	return t.paintV0(gid, outlines)
}

// paintV0 renders a version 0 layer run: each layer is a glyph outline
// filled with one palette color, bottom to top.
func (t *Table) paintV0(gid uint32, outlines OutlineSource) (*Scene, error) {
	rec, ok := t.findBaseGlyph(gid)
	if !ok {
		return nil, ErrGlyphNotInCOLR
	}
	first := int(rec.firstLayer)
	if first+int(rec.numLayers) > len(t.layers) {
		return nil, ErrInvalidCOLRData
	}

	scene := &Scene{}
	identity := geom.Identity()
	for _, layer := range t.layers[first : first+int(rec.numLayers)] {
		path, ok := outlines.GlyphOutline(uint32(layer.glyphID))
		if !ok || path.IsEmpty() {
			continue
		}
		color, foreground := t.paletteColor(layer.paletteIndex, 1)
		if !foreground && int(layer.paletteIndex) >= len(t.palette) {
			continue
		}
		scene.Commands = append(scene.Commands,
			PushClip{Path: path, Transform: identity},
			Fill{Brush: SolidBrush{Color: color, Foreground: foreground}, Transform: identity},
			PopClip{},
		)
	}
	return scene, nil
}

// painter walks a version 1 paint graph.
type painter struct {
	table    *Table
	outlines OutlineSource
	scene    *Scene
	depth    int

	// visited guards against PaintColrGlyph reference cycles.
	visited map[uint16]bool
}

func (p *painter) emit(cmd Command) {
	p.scene.Commands = append(p.scene.Commands, cmd)
}

// read returns n bytes at the absolute offset, or fails.
func (p *painter) read(offset, n int) ([]byte, bool) {
	data := p.table.data
	if offset < 0 || n < 0 || offset+n > len(data) {
		return nil, false
	}
	return data[offset : offset+n], true
}

func f2dot14(b []byte) float32 {
	return float32(int16(binary.BigEndian.Uint16(b))) / 16384
}

func fixed1616(b []byte) float32 {
	return float32(int32(binary.BigEndian.Uint32(b))) / 65536
}

func fword(b []byte) float32 {
	return float32(int16(binary.BigEndian.Uint16(b)))
}

// paint interprets one paint record and its subgraph.
func (p *painter) paint(offset int, transform geom.Matrix) error {
	if p.depth >= maxPaintDepth {
		return ErrInvalidCOLRData
	}
	p.depth++
	defer func() { p.depth-- }()

	hdr, ok := p.read(offset, 1)
	if !ok {
		return ErrInvalidCOLRData
	}
	format := hdr[0]
	body := offset + 1

	switch format {
	case paintColrLayers:
		rec, ok := p.read(body, 5)
		if !ok {
			return ErrInvalidCOLRData
		}
		numLayers := int(rec[0])
		firstLayer := binary.BigEndian.Uint32(rec[1:])
		for i := 0; i < numLayers; i++ {
			child, ok := p.table.layerPaint(firstLayer + uint32(i))
			if !ok {
				return ErrInvalidCOLRData
			}
			if err := p.paint(child, transform); err != nil {
				return err
			}
		}

	case paintSolid, paintVarSolid:
		rec, ok := p.read(body, 4)
		if !ok {
			return ErrInvalidCOLRData
		}
		index := binary.BigEndian.Uint16(rec)
		alpha := f2dot14(rec[2:])
		color, foreground := p.table.paletteColor(index, alpha)
		if !foreground && int(index) >= len(p.table.palette) {
			return nil
		}
		p.emit(Fill{
			Brush:     SolidBrush{Color: color, Foreground: foreground},
			Transform: transform,
		})

	case paintLinearGradient, paintVarLinearGradient:
		rec, ok := p.read(body, 15)
		if !ok {
			return ErrInvalidCOLRData
		}
		stops, extend, ok := p.colorLine(offset+int(uint24(rec)), format == paintVarLinearGradient)
		if !ok {
			return ErrInvalidCOLRData
		}
		p0 := geom.Point{X: fword(rec[3:]), Y: fword(rec[5:])}
		p1 := geom.Point{X: fword(rec[7:]), Y: fword(rec[9:])}
		p2 := geom.Point{X: fword(rec[11:]), Y: fword(rec[13:])}
		p.fillGradient(stops, transform, func(stops []ColorStop) Brush {
			end, ok := linearGradientEnd(p0, p1, p2)
			if !ok {
				return nil
			}
			return LinearGradientBrush{Start: p0, End: end, Stops: stops, Extend: extend}
		})

	case paintRadialGradient, paintVarRadialGradient:
		rec, ok := p.read(body, 15)
		if !ok {
			return ErrInvalidCOLRData
		}
		stops, extend, ok := p.colorLine(offset+int(uint24(rec)), format == paintVarRadialGradient)
		if !ok {
			return ErrInvalidCOLRData
		}
		c0 := geom.Point{X: fword(rec[3:]), Y: fword(rec[5:])}
		r0 := float32(binary.BigEndian.Uint16(rec[7:]))
		c1 := geom.Point{X: fword(rec[9:]), Y: fword(rec[11:])}
		r1 := float32(binary.BigEndian.Uint16(rec[13:]))
		p.fillGradient(stops, transform, func(stops []ColorStop) Brush {
			if c0 == c1 && r0 == r1 {
				return nil
			}
			return RadialGradientBrush{
				Center0: c0, Radius0: r0,
				Center1: c1, Radius1: r1,
				Stops: stops, Extend: extend,
			}
		})

	case paintSweepGradient, paintVarSweepGradient:
		rec, ok := p.read(body, 11)
		if !ok {
			return ErrInvalidCOLRData
		}
		stops, _, ok := p.colorLine(offset+int(uint24(rec)), format == paintVarSweepGradient)
		if !ok {
			return ErrInvalidCOLRData
		}
		// Sweep gradients degrade to a solid fill of the first stop.
		if len(stops) > 0 {
			p.emit(Fill{
				Brush:     SolidBrush{Color: stops[0].Color},
				Transform: transform,
			})
		}

	case paintGlyph:
		rec, ok := p.read(body, 5)
		if !ok {
			return ErrInvalidCOLRData
		}
		child := offset + int(uint24(rec))
		glyphID := uint32(binary.BigEndian.Uint16(rec[3:]))
		path, ok := p.outlines.GlyphOutline(glyphID)
		if !ok || path.IsEmpty() {
			// A clip glyph without an outline selects nothing.
			return nil
		}
		p.emit(PushClip{Path: path, Transform: transform})
		if err := p.paint(child, transform); err != nil {
			return err
		}
		p.emit(PopClip{})

	case paintColrGlyph:
		rec, ok := p.read(body, 2)
		if !ok {
			return ErrInvalidCOLRData
		}
		glyphID := binary.BigEndian.Uint16(rec)
		if p.visited == nil {
			p.visited = make(map[uint16]bool)
		}
		if p.visited[glyphID] {
			return ErrInvalidCOLRData
		}
		p.visited[glyphID] = true
		defer delete(p.visited, glyphID)

		child, ok := p.table.findBasePaint(uint32(glyphID))
		if !ok {
			return nil
		}
		boxed := false
		if box, ok := p.table.clipBox(uint32(glyphID)); ok {
			p.emit(PushClipBox{Box: box})
			boxed = true
		}
		if err := p.paint(child, transform); err != nil {
			return err
		}
		if boxed {
			p.emit(PopClip{})
		}

	case paintTransform, paintVarTransform:
		rec, ok := p.read(body, 6)
		if !ok {
			return ErrInvalidCOLRData
		}
		child := offset + int(uint24(rec))
		aff, ok := p.read(offset+int(uint24(rec[3:])), 24)
		if !ok {
			return ErrInvalidCOLRData
		}
		m := geom.Matrix{
			A: fixed1616(aff), D: fixed1616(aff[4:]),
			B: fixed1616(aff[8:]), E: fixed1616(aff[12:]),
			C: fixed1616(aff[16:]), F: fixed1616(aff[20:]),
		}
		return p.paint(child, transform.Multiply(m))

	case paintTranslate, paintVarTranslate:
		rec, ok := p.read(body, 7)
		if !ok {
			return ErrInvalidCOLRData
		}
		child := offset + int(uint24(rec))
		m := geom.Translate(fword(rec[3:]), fword(rec[5:]))
		return p.paint(child, transform.Multiply(m))

	case paintScale, paintVarScale:
		rec, ok := p.read(body, 7)
		if !ok {
			return ErrInvalidCOLRData
		}
		child := offset + int(uint24(rec))
		m := geom.Scale(f2dot14(rec[3:]), f2dot14(rec[5:]))
		return p.paint(child, transform.Multiply(m))

	case paintScaleAroundCenter, paintVarScaleAroundCenter:
		rec, ok := p.read(body, 11)
		if !ok {
			return ErrInvalidCOLRData
		}
		child := offset + int(uint24(rec))
		m := aroundCenter(
			geom.Scale(f2dot14(rec[3:]), f2dot14(rec[5:])),
			fword(rec[7:]), fword(rec[9:]),
		)
		return p.paint(child, transform.Multiply(m))

	case paintScaleUniform, paintVarScaleUniform:
		rec, ok := p.read(body, 5)
		if !ok {
			return ErrInvalidCOLRData
		}
		child := offset + int(uint24(rec))
		s := f2dot14(rec[3:])
		return p.paint(child, transform.Multiply(geom.Scale(s, s)))

	case paintScaleUniformAroundCenter, paintVarScaleUniformAroundCenter:
		rec, ok := p.read(body, 9)
		if !ok {
			return ErrInvalidCOLRData
		}
		child := offset + int(uint24(rec))
		s := f2dot14(rec[3:])
		m := aroundCenter(geom.Scale(s, s), fword(rec[5:]), fword(rec[7:]))
		return p.paint(child, transform.Multiply(m))

	case paintRotate, paintVarRotate:
		rec, ok := p.read(body, 5)
		if !ok {
			return ErrInvalidCOLRData
		}
		child := offset + int(uint24(rec))
		m := geom.Rotate(angleRadians(rec[3:]))
		return p.paint(child, transform.Multiply(m))

	case paintRotateAroundCenter, paintVarRotateAroundCenter:
		rec, ok := p.read(body, 9)
		if !ok {
			return ErrInvalidCOLRData
		}
		child := offset + int(uint24(rec))
		m := aroundCenter(geom.Rotate(angleRadians(rec[3:])), fword(rec[5:]), fword(rec[7:]))
		return p.paint(child, transform.Multiply(m))

	case paintSkew, paintVarSkew:
		rec, ok := p.read(body, 7)
		if !ok {
			return ErrInvalidCOLRData
		}
		child := offset + int(uint24(rec))
		return p.paint(child, transform.Multiply(skewMatrix(rec[3:], rec[5:])))

	case paintSkewAroundCenter, paintVarSkewAroundCenter:
		rec, ok := p.read(body, 11)
		if !ok {
			return ErrInvalidCOLRData
		}
		child := offset + int(uint24(rec))
		m := aroundCenter(skewMatrix(rec[3:], rec[5:]), fword(rec[7:]), fword(rec[9:]))
		return p.paint(child, transform.Multiply(m))

	case paintComposite:
		rec, ok := p.read(body, 7)
		if !ok {
			return ErrInvalidCOLRData
		}
		source := offset + int(uint24(rec))
		mode := rec[3]
		backdrop := offset + int(uint24(rec[4:]))
		if mode > uint8(CompositeHSLLuminosity) {
			mode = uint8(CompositeSrcOver)
		}
		if err := p.paint(backdrop, transform); err != nil {
			return err
		}
		p.emit(PushLayer{Mode: CompositeMode(mode)})
		if err := p.paint(source, transform); err != nil {
			return err
		}
		p.emit(PopLayer{})

	default:
		return ErrInvalidCOLRData
	}
	return nil
}

// fillGradient emits a gradient fill, degrading an empty color line to
// nothing and a single stop to a solid fill.
func (p *painter) fillGradient(stops []ColorStop, transform geom.Matrix, brush func([]ColorStop) Brush) {
	switch len(stops) {
	case 0:
		return
	case 1:
		p.emit(Fill{Brush: SolidBrush{Color: stops[0].Color}, Transform: transform})
		return
	}
	b := brush(stops)
	if b == nil {
		// Degenerate geometry paints the last stop like a pad extend.
		p.emit(Fill{Brush: SolidBrush{Color: stops[len(stops)-1].Color}, Transform: transform})
		return
	}
	p.emit(Fill{Brush: b, Transform: transform})
}

// colorLine parses a ColorLine or VarColorLine at the absolute offset.
// Stops referencing out-of-range palette entries are dropped.
func (p *painter) colorLine(offset int, isVar bool) ([]ColorStop, ExtendMode, bool) {
	hdr, ok := p.read(offset, 3)
	if !ok {
		return nil, ExtendPad, false
	}
	extend := ExtendMode(hdr[0])
	if extend > ExtendReflect {
		extend = ExtendPad
	}
	count := int(binary.BigEndian.Uint16(hdr[1:]))

	stopSize := 6
	if isVar {
		stopSize = 10 // trailing varIndexBase is ignored
	}
	raw, ok := p.read(offset+3, count*stopSize)
	if !ok {
		return nil, extend, false
	}

	stops := make([]ColorStop, 0, count)
	for i := 0; i < count; i++ {
		rec := raw[i*stopSize:]
		index := binary.BigEndian.Uint16(rec[2:])
		color, foreground := p.table.paletteColor(index, f2dot14(rec[4:]))
		if !foreground && int(index) >= len(p.table.palette) {
			continue
		}
		stops = append(stops, ColorStop{Offset: f2dot14(rec), Color: color})
	}
	return stops, extend, true
}

// linearGradientEnd reduces the three point linear gradient definition
// to an effective end point: the gradient vector is projected onto the
// line through p0 perpendicular to the rotation vector p2 - p0.
// Reports false for ill-formed definitions (p1 or p2 coincident with
// p0, or a gradient vector parallel to the rotation vector), which
// paint like any other degenerate gradient geometry.
func linearGradientEnd(p0, p1, p2 geom.Point) (geom.Point, bool) {
	if p1 == p0 || p2 == p0 {
		return geom.Point{}, false
	}
	dx, dy := p1.X-p0.X, p1.Y-p0.Y
	px, py := p2.Y-p0.Y, -(p2.X - p0.X)
	dot := dx*px + dy*py
	if dot == 0 {
		return geom.Point{}, false
	}
	norm := px*px + py*py
	return geom.Point{X: p0.X + px*dot/norm, Y: p0.Y + py*dot/norm}, true
}

// aroundCenter wraps a transform so it pivots on (cx, cy).
func aroundCenter(m geom.Matrix, cx, cy float32) geom.Matrix {
	return geom.Translate(cx, cy).Multiply(m).Multiply(geom.Translate(-cx, -cy))
}

// angleRadians converts an F2Dot14 angle, stored in units of 180
// degrees, to radians.
func angleRadians(b []byte) float32 {
	return f2dot14(b) * math.Pi
}

// skewMatrix builds the skew transform from the two F2Dot14 skew
// angles. The y angle is negated, matching the table's definition.
func skewMatrix(xAngle, yAngle []byte) geom.Matrix {
	tanX := float32(math.Tan(float64(angleRadians(xAngle))))
	tanY := float32(math.Tan(float64(angleRadians(yAngle))))
	return geom.Shear(tanX, -tanY)
}
