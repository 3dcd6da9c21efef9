package colr

import "github.com/gogpu/fontdb/geom"

// Color is a straight-alpha sRGB color.
type Color struct {
	R, G, B, A uint8
}

// WithAlpha returns the color scaled by an additional alpha in [0, 1].
func (c Color) WithAlpha(alpha float32) Color {
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}
	c.A = uint8(float32(c.A)*alpha + 0.5)
	return c
}

// ColorStop is one gradient stop.
type ColorStop struct {
	// Offset is the stop position along the gradient, usually in [0, 1].
	Offset float32

	// Color is the stop color with alpha applied.
	Color Color
}

// ExtendMode describes how a gradient paints outside its stop range.
type ExtendMode uint8

const (
	// ExtendPad repeats the terminal stop colors.
	ExtendPad ExtendMode = iota
	// ExtendRepeat tiles the stop range.
	ExtendRepeat
	// ExtendReflect tiles the stop range, mirroring every other tile.
	ExtendReflect
)

// String returns the string representation of the extend mode.
func (m ExtendMode) String() string {
	switch m {
	case ExtendPad:
		return "Pad"
	case ExtendRepeat:
		return "Repeat"
	case ExtendReflect:
		return "Reflect"
	default:
		return "Unknown"
	}
}

// CompositeMode describes how a layer combines with its backdrop.
// The values mirror the OpenType COLR composite mode enumeration.
type CompositeMode uint8

const (
	CompositeClear CompositeMode = iota
	CompositeSrc
	CompositeDest
	CompositeSrcOver
	CompositeDestOver
	CompositeSrcIn
	CompositeDestIn
	CompositeSrcOut
	CompositeDestOut
	CompositeSrcAtop
	CompositeDestAtop
	CompositeXor
	CompositePlus
	CompositeScreen
	CompositeOverlay
	CompositeDarken
	CompositeLighten
	CompositeColorDodge
	CompositeColorBurn
	CompositeHardLight
	CompositeSoftLight
	CompositeDifference
	CompositeExclusion
	CompositeMultiply
	CompositeHSLHue
	CompositeHSLSaturation
	CompositeHSLColor
	CompositeHSLLuminosity
)

// Brush is a fill source: a solid color or a gradient.
type Brush interface {
	isBrush()
}

// SolidBrush fills with a single color.
type SolidBrush struct {
	Color Color

	// Foreground marks the palette's foreground placeholder. The
	// consumer substitutes the current text color; Color then holds
	// black with the paint's alpha applied.
	Foreground bool
}

// LinearGradientBrush fills with a two-point linear gradient. The
// geometry is in the paint's coordinate space; the enclosing command's
// transform maps it to glyph space.
type LinearGradientBrush struct {
	Start  geom.Point
	End    geom.Point
	Stops  []ColorStop
	Extend ExtendMode
}

// RadialGradientBrush fills with a two-circle radial gradient.
type RadialGradientBrush struct {
	Center0 geom.Point
	Radius0 float32
	Center1 geom.Point
	Radius1 float32
	Stops   []ColorStop
	Extend  ExtendMode
}

func (SolidBrush) isBrush()          {}
func (LinearGradientBrush) isBrush() {}
func (RadialGradientBrush) isBrush() {}

// Command is one step of a color glyph paint program. A Scene's
// commands form a balanced sequence: every PushClip, PushClipBox and
// PushLayer has a matching PopClip or PopLayer.
type Command interface {
	isCommand()
}

// Fill paints the area selected by the current clip stack.
type Fill struct {
	// Brush supplies the fill color or gradient.
	Brush Brush

	// Transform maps the brush geometry to glyph space.
	Transform geom.Matrix
}

// PushClip intersects the clip stack with a glyph outline.
type PushClip struct {
	// Path is the clip outline in font units.
	Path *geom.Path

	// Transform maps the path to glyph space.
	Transform geom.Matrix
}

// PushClipBox intersects the clip stack with an axis-aligned box.
type PushClipBox struct {
	Box geom.Rect
}

// PopClip removes the most recent clip.
type PopClip struct{}

// PushLayer starts an offscreen layer composited with the given mode
// at the matching PopLayer.
type PushLayer struct {
	Mode CompositeMode
}

// PopLayer composites the current layer into its backdrop.
type PopLayer struct{}

func (Fill) isCommand()        {}
func (PushClip) isCommand()    {}
func (PushClipBox) isCommand() {}
func (PopClip) isCommand()     {}
func (PushLayer) isCommand()   {}
func (PopLayer) isCommand()    {}

// Scene is the flattened paint program of one color glyph.
type Scene struct {
	Commands []Command
}

// IsEmpty returns true if the scene paints nothing.
func (s *Scene) IsEmpty() bool {
	return s == nil || len(s.Commands) == 0
}
