package glyph

import (
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"

	"github.com/gogpu/fontdb"
	"github.com/gogpu/fontdb/geom"
)

// Outline extracts a glyph outline in font units with the Y axis
// pointing up. Variable axis settings from opts are applied before
// extraction; when hinting is requested and available, the outline is
// grid fitted at opts.PPEM and scaled back to font units.
//
// The second return value is false when the face handle is stale or
// the glyph has no outline representation. Glyphs that exist but draw
// nothing, like spaces, return an empty path and true.
func (e *Extractor) Outline(id fontdb.ID, glyphID uint32, opts Options) (*geom.Path, bool) {
	pf := e.face(id)
	if pf == nil || pf.font == nil {
		return nil, false
	}

	vars := pf.effectiveVariations(opts)

	// The bytecode interpreter works on the default outlines, so
	// hinting and axis settings are mutually exclusive.
	if opts.Hinting != nil && opts.PPEM > 0 && len(vars) == 0 && pf.hinter != nil {
		if path, ok := pf.hintedOutline(glyphID, opts.PPEM, *opts.Hinting); ok {
			return path, true
		}
	}

	face := pf.instance(vars)
	data := face.GlyphData(font.GID(glyphID))
	out, ok := data.(font.GlyphOutline)
	if !ok {
		return nil, false
	}
	return segmentsToPath(out.Segments), true
}

// outlineFromFace extracts the outline of one glyph from an already
// configured face instance.
func outlineFromFace(face *font.Face, gid uint32) *geom.Path {
	out, ok := face.GlyphData(font.GID(gid)).(font.GlyphOutline)
	if !ok {
		return nil
	}
	return segmentsToPath(out.Segments)
}

// segmentsToPath converts a packed segment list to a path. Each
// segment packs up to three operations into its Op field, two bits per
// single point operation and four or six bits for curves, consuming
// arguments left to right.
func segmentsToPath(segments []opentype.Segment) *geom.Path {
	var b geom.PathBuilder
	for _, seg := range segments {
		op := seg.Op
		arg := 0
		for op != opentype.SegmentOpNone {
			switch {
			case op&opentype.SegmentOpCubeTo == opentype.SegmentOpCubeTo:
				b.CubicTo(
					seg.Args[arg].X, seg.Args[arg].Y,
					seg.Args[arg+1].X, seg.Args[arg+1].Y,
					seg.Args[arg+2].X, seg.Args[arg+2].Y,
				)
				arg += 3
				op >>= 6
			case op&opentype.SegmentOpQuadTo == opentype.SegmentOpQuadTo:
				b.QuadTo(
					seg.Args[arg].X, seg.Args[arg].Y,
					seg.Args[arg+1].X, seg.Args[arg+1].Y,
				)
				arg += 2
				op >>= 4
			case op&0b11 == opentype.SegmentOpMoveTo:
				b.MoveTo(seg.Args[arg].X, seg.Args[arg].Y)
				arg++
				op >>= 2
			case op&0b11 == opentype.SegmentOpLineTo:
				b.LineTo(seg.Args[arg].X, seg.Args[arg].Y)
				arg++
				op >>= 2
			default:
				return b.Finish()
			}
		}
	}
	path := b.Finish()
	if path == nil {
		return &geom.Path{}
	}
	return path
}
