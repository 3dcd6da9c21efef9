// Package sbit reads embedded bitmap glyphs from OpenType fonts.
//
// It covers the three strike table families: CBLC/CBDT (color PNG
// strikes), EBLC/EBDT (monochrome and grayscale mask strikes) and sbix
// (Apple PNG strikes). Strikes are fixed pixel sizes; the package also
// implements the strike selection policies used during glyph
// resolution.
package sbit

import "errors"

// Bitmap table errors.
var (
	// ErrInvalidData indicates a malformed strike table.
	ErrInvalidData = errors.New("sbit: invalid bitmap table data")

	// ErrGlyphNotFound indicates the glyph has no bitmap in the
	// selected strike.
	ErrGlyphNotFound = errors.New("sbit: glyph not found in bitmap table")

	// ErrUnsupportedIndexFormat indicates an index subtable format this
	// package does not read.
	ErrUnsupportedIndexFormat = errors.New("sbit: unsupported index subtable format")

	// ErrUnsupportedImageFormat indicates a glyph image format this
	// package does not read.
	ErrUnsupportedImageFormat = errors.New("sbit: unsupported image format")

	// ErrNoStrike indicates no strike satisfied the selection policy.
	ErrNoStrike = errors.New("sbit: no suitable bitmap strike")
)

// Format indicates how a bitmap glyph's data is encoded.
type Format uint8

const (
	// FormatPNG is PNG-compressed color data.
	FormatPNG Format = iota

	// FormatJPEG is JPEG-compressed color data.
	FormatJPEG

	// FormatTIFF is TIFF-compressed color data.
	FormatTIFF

	// FormatMask is uncompressed alpha mask data, one row after
	// another. Bit depth 1 packs eight pixels per byte, bit depth 8
	// stores one byte per pixel.
	FormatMask
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "PNG"
	case FormatJPEG:
		return "JPEG"
	case FormatTIFF:
		return "TIFF"
	case FormatMask:
		return "Mask"
	default:
		return "Unknown"
	}
}

// Glyph is one embedded bitmap image.
type Glyph struct {
	// GlyphID is the glyph this bitmap renders.
	GlyphID uint32

	// Data is the encoded image payload.
	Data []byte

	// Format indicates how Data is encoded.
	Format Format

	// BitDepth is the bits per pixel for FormatMask glyphs, 0 otherwise.
	BitDepth uint8

	// Width and Height are the pixel dimensions, when known without
	// decoding the payload.
	Width, Height int

	// OriginX and OriginY position the bitmap relative to the glyph
	// origin, in pixels.
	OriginX, OriginY float32

	// PPEM is the pixel size of the strike the bitmap came from.
	PPEM uint16
}

// IsColor reports whether the glyph carries color image data rather
// than an alpha mask.
func (g *Glyph) IsColor() bool {
	return g.Format != FormatMask
}

// Policy selects a strike for a requested pixel size.
type Policy uint8

const (
	// PolicyLargest picks the largest strike containing the glyph.
	// Color glyphs use this so downscaling never loses detail.
	PolicyLargest Policy = iota

	// PolicyExact picks only a strike whose PPEM matches exactly.
	// Mask strikes are sharp at their native size only.
	PolicyExact

	// PolicyNearest picks the smallest strike at or above the
	// requested PPEM, or the largest strike when none is big enough.
	PolicyNearest
)

// String returns the string representation of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyLargest:
		return "Largest"
	case PolicyExact:
		return "Exact"
	case PolicyNearest:
		return "Nearest"
	default:
		return "Unknown"
	}
}
