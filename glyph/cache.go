package glyph

import (
	"encoding/binary"
	"hash/fnv"
	"io"
	"math"
	"sort"

	"github.com/gogpu/fontdb"
	"github.com/gogpu/fontdb/geom"
)

// OutlineCache memoizes outline extraction for the duration of one
// rendering pass. Text runs repeat glyphs heavily, so caching per pass
// avoids re-decoding the same outlines while keeping lifetime simple:
// drop the cache when the pass ends.
//
// OutlineCache is not safe for concurrent use. Use one per goroutine.
type OutlineCache struct {
	entries map[outlineKey]outlineEntry
}

type outlineKey struct {
	face    fontdb.ID
	glyph   uint32
	ppem    uint32
	varHash uint64
	hinting uint8
}

// outlineEntry records misses too, so a glyph known to have no outline
// is not re-queried every occurrence.
type outlineEntry struct {
	path *geom.Path
	ok   bool
}

// NewOutlineCache creates an empty outline cache.
func NewOutlineCache() *OutlineCache {
	return &OutlineCache{entries: make(map[outlineKey]outlineEntry)}
}

// Len returns the number of cached entries, including negative ones.
func (c *OutlineCache) Len() int {
	return len(c.entries)
}

// Reset drops all entries, keeping the cache usable.
func (c *OutlineCache) Reset() {
	clear(c.entries)
}

// Outline returns the glyph outline, computing it through the
// extractor at most once per distinct face, glyph and options.
func (c *OutlineCache) Outline(e *Extractor, id fontdb.ID, glyphID uint32, opts Options) (*geom.Path, bool) {
	return c.GetOrCompute(id, glyphID, opts, func() (*geom.Path, bool) {
		return e.Outline(id, glyphID, opts)
	})
}

// GetOrCompute returns the cached outline for the face, glyph and
// options, calling compute at most once per distinct key. A miss is
// cached as firmly as a hit.
func (c *OutlineCache) GetOrCompute(id fontdb.ID, glyphID uint32, opts Options, compute func() (*geom.Path, bool)) (*geom.Path, bool) {
	key := makeOutlineKey(id, glyphID, opts)
	if ent, hit := c.entries[key]; hit {
		return ent.path, ent.ok
	}
	path, ok := compute()
	c.entries[key] = outlineEntry{path: path, ok: ok}
	return path, ok
}

// makeOutlineKey hashes the caller's variation settings, not the
// effective list after automatic optical sizing. The auto-derived
// opsz value is a pure function of the face handle and the pixel
// size, and both are part of the key, so two keys that match always
// resolve to the same effective variations.
func makeOutlineKey(id fontdb.ID, glyphID uint32, opts Options) outlineKey {
	key := outlineKey{
		face:    id,
		glyph:   glyphID,
		varHash: HashVariations(opts.Variations),
	}
	if opts.PPEM > 0 {
		key.ppem = math.Float32bits(opts.PPEM)
	}
	if h := opts.Hinting; h != nil {
		key.hinting = 1 |
			uint8(h.Engine)<<1 |
			uint8(h.Target)<<3 |
			uint8(h.SmoothMode)<<4
		if h.Symmetric {
			key.hinting |= 1 << 6
		}
		if h.PreserveLinearMetrics {
			key.hinting |= 1 << 7
		}
	}
	return key
}

// HashVariations hashes an axis setting list, insensitive to order.
// Two lists with the same settings hash equal; the zero hash is
// reserved for the empty list.
func HashVariations(vars []Variation) uint64 {
	if len(vars) == 0 {
		return 0
	}
	sorted := make([]Variation, len(vars))
	copy(sorted, vars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Tag < sorted[j].Tag })

	h := fnv.New64a()
	var buf [4]byte
	for _, v := range sorted {
		io.WriteString(h, v.Tag)
		binary.BigEndian.PutUint32(buf[:], math.Float32bits(v.Value))
		h.Write(buf[:])
	}
	return h.Sum64()
}
