package glyph

// Variation is one variable font axis setting in design units.
type Variation struct {
	// Tag is the four character axis tag, for example "wght".
	Tag string

	// Value is the axis value in design space.
	Value float32
}

// HintEngine selects the hinting implementation.
type HintEngine uint8

const (
	// EngineAuto lets the extractor pick the available engine.
	EngineAuto HintEngine = iota

	// EngineInterpreter runs the font's TrueType bytecode.
	EngineInterpreter

	// EngineAutoFallback prefers the bytecode interpreter and falls
	// back to automatic selection when the font carries no programs.
	EngineAutoFallback
)

// HintTarget selects the rasterization style hints are tuned for.
type HintTarget uint8

const (
	// TargetSmooth hints for grayscale antialiased rendering.
	TargetSmooth HintTarget = iota

	// TargetMono hints for monochrome rendering, snapping aggressively
	// to the pixel grid.
	TargetMono
)

// SmoothMode refines TargetSmooth for subpixel rendering layouts.
type SmoothMode uint8

const (
	// SmoothNormal is plain grayscale antialiasing.
	SmoothNormal SmoothMode = iota

	// SmoothLCD targets horizontal subpixel striping.
	SmoothLCD

	// SmoothVerticalLCD targets vertical subpixel striping.
	SmoothVerticalLCD
)

// HintingParams configures grid fitting of extracted outlines.
//
// Every field takes part in outline cache keys even where the single
// available engine renders some of them equivalent, so changing any
// setting never serves stale outlines.
type HintingParams struct {
	Engine HintEngine
	Target HintTarget

	// SmoothMode applies when Target is TargetSmooth.
	SmoothMode SmoothMode

	// Symmetric requests symmetric smoothing along the hinted axis.
	Symmetric bool

	// PreserveLinearMetrics keeps advance widths unhinted.
	PreserveLinearMetrics bool
}

// PPEMForSize derives the pixel size for a font size under a DPI
// context. A zero or negative dpi means the coordinate space already
// is in pixels and the size is used as is.
func PPEMForSize(size, dpi float32) float32 {
	if dpi <= 0 {
		return size
	}
	return size * dpi / 72
}

// Options configures glyph representation resolution and outline
// extraction for one glyph.
type Options struct {
	// PPEM is the requested pixel size. Zero means no pixel size is
	// known: strikes are selected by glyph coverage alone, hinting is
	// skipped and outlines stay in font units.
	PPEM float32

	// Variations are the variable font axis settings. When the face
	// has an optical sizing axis that is not set explicitly and PPEM
	// is known, the axis follows the pixel size.
	Variations []Variation

	// Hinting enables grid fitting with the given parameters.
	// Hinting requires PPEM and is skipped for variable axis settings,
	// since the bytecode interpreter works on the default outlines.
	Hinting *HintingParams
}
