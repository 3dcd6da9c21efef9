package geom

// PathVerb identifies one path segment operation.
type PathVerb uint8

const (
	// VerbMoveTo starts a new subpath at the next point.
	VerbMoveTo PathVerb = iota
	// VerbLineTo draws a straight line to the next point.
	VerbLineTo
	// VerbQuadTo draws a quadratic Bezier (one control point).
	VerbQuadTo
	// VerbCubicTo draws a cubic Bezier (two control points).
	VerbCubicTo
	// VerbClose closes the current subpath.
	VerbClose
)

// pointsFor is the number of points consumed by a verb.
var pointsFor = [...]int{
	VerbMoveTo:  1,
	VerbLineTo:  1,
	VerbQuadTo:  2,
	VerbCubicTo: 3,
	VerbClose:   0,
}

// Path is an immutable glyph outline: a verb list plus the flat point
// array the verbs consume. Coordinates are in font units unless noted
// otherwise by the producer.
//
// Build paths with PathBuilder; a finished Path should not be mutated.
type Path struct {
	Verbs  []PathVerb
	Points []Point
}

// IsEmpty returns true if the path has no segments.
func (p *Path) IsEmpty() bool {
	return p == nil || len(p.Verbs) == 0
}

// Bounds returns the control-point bounding box of the path.
// For curves this is a conservative box, not the tight curve extent.
func (p *Path) Bounds() Rect {
	if p.IsEmpty() || len(p.Points) == 0 {
		return Rect{}
	}
	b := Rect{
		MinX: p.Points[0].X, MinY: p.Points[0].Y,
		MaxX: p.Points[0].X, MaxY: p.Points[0].Y,
	}
	for _, pt := range p.Points[1:] {
		b.MinX = minf(b.MinX, pt.X)
		b.MinY = minf(b.MinY, pt.Y)
		b.MaxX = maxf(b.MaxX, pt.X)
		b.MaxY = maxf(b.MaxY, pt.Y)
	}
	return b
}

// Transform returns a copy of the path with every point transformed by m.
func (p *Path) Transform(m Matrix) *Path {
	if p.IsEmpty() {
		return p
	}
	out := &Path{
		Verbs:  p.Verbs, // verbs are immutable, share them
		Points: make([]Point, len(p.Points)),
	}
	for i, pt := range p.Points {
		out.Points[i] = m.TransformPoint(pt)
	}
	return out
}

// ScaleBy returns a copy of the path uniformly scaled by factor.
func (p *Path) ScaleBy(factor float32) *Path {
	return p.Transform(Scale(factor, factor))
}

// PathBuilder incrementally constructs a Path.
// The zero value is ready to use.
type PathBuilder struct {
	verbs  []PathVerb
	points []Point
	open   bool
}

// MoveTo starts a new subpath. An open subpath is closed first, since
// glyph contours are always closed shapes.
func (b *PathBuilder) MoveTo(x, y float32) {
	if b.open {
		b.Close()
	}
	b.verbs = append(b.verbs, VerbMoveTo)
	b.points = append(b.points, Point{x, y})
	b.open = true
}

// LineTo appends a line segment.
func (b *PathBuilder) LineTo(x, y float32) {
	b.verbs = append(b.verbs, VerbLineTo)
	b.points = append(b.points, Point{x, y})
}

// QuadTo appends a quadratic Bezier segment.
func (b *PathBuilder) QuadTo(cx, cy, x, y float32) {
	b.verbs = append(b.verbs, VerbQuadTo)
	b.points = append(b.points, Point{cx, cy}, Point{x, y})
}

// CubicTo appends a cubic Bezier segment.
func (b *PathBuilder) CubicTo(cx0, cy0, cx1, cy1, x, y float32) {
	b.verbs = append(b.verbs, VerbCubicTo)
	b.points = append(b.points, Point{cx0, cy0}, Point{cx1, cy1}, Point{x, y})
}

// Close closes the current subpath.
func (b *PathBuilder) Close() {
	if !b.open {
		return
	}
	b.verbs = append(b.verbs, VerbClose)
	b.open = false
}

// Finish closes any open subpath and returns the built path, or nil if
// nothing was drawn. The builder must not be reused afterwards.
func (b *PathBuilder) Finish() *Path {
	if b.open {
		b.Close()
	}
	if len(b.verbs) == 0 {
		return nil
	}
	return &Path{Verbs: b.verbs, Points: b.points}
}
