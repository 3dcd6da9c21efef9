package glyph

import (
	"encoding/binary"
	"testing"

	"github.com/gogpu/fontdb"
)

// buildFvar assembles an fvar table with 20 byte axis records.
func buildFvar(axes []VariationAxis) []byte {
	data := make([]byte, 16+len(axes)*20)
	binary.BigEndian.PutUint16(data, 1)                     // major version
	binary.BigEndian.PutUint16(data[4:], 16)                // axesArrayOffset
	binary.BigEndian.PutUint16(data[8:], uint16(len(axes))) // axisCount
	binary.BigEndian.PutUint16(data[10:], 20)               // axisSize
	binary.BigEndian.PutUint16(data[12:], 0)                // instanceCount

	for i, a := range axes {
		rec := data[16+i*20:]
		copy(rec, a.Tag)
		binary.BigEndian.PutUint32(rec[4:], uint32(int32(a.Min*65536)))
		binary.BigEndian.PutUint32(rec[8:], uint32(int32(a.Default*65536)))
		binary.BigEndian.PutUint32(rec[12:], uint32(int32(a.Max*65536)))
	}
	return data
}

func TestParseAxes(t *testing.T) {
	want := []VariationAxis{
		{Tag: "wght", Min: 100, Default: 400, Max: 900},
		{Tag: "opsz", Min: 8, Default: 14, Max: 144.5},
	}
	axes := parseAxes(buildFvar(want))
	if len(axes) != len(want) {
		t.Fatalf("got %d axes, want %d", len(axes), len(want))
	}
	for i, a := range want {
		if axes[i] != a {
			t.Errorf("axis %d = %+v, want %+v", i, axes[i], a)
		}
	}
}

func TestParseAxesMalformed(t *testing.T) {
	valid := buildFvar([]VariationAxis{{Tag: "wght", Default: 400}})
	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"short header", valid[:10]},
		{"axis count beyond table", func() []byte {
			d := buildFvar([]VariationAxis{{Tag: "wght"}})
			binary.BigEndian.PutUint16(d[8:], 1000)
			return d
		}()},
		{"undersized axis record", func() []byte {
			d := buildFvar([]VariationAxis{{Tag: "wght"}})
			binary.BigEndian.PutUint16(d[10:], 4)
			return d
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if axes := parseAxes(tt.data); axes != nil {
				t.Errorf("got %d axes, want none", len(axes))
			}
		})
	}
}

func TestEffectiveVariations(t *testing.T) {
	withOpsz := &parsedFace{axes: []VariationAxis{
		{Tag: "wght", Min: 100, Default: 400, Max: 900},
		{Tag: "opsz", Min: 8, Default: 14, Max: 144},
	}}
	withoutOpsz := &parsedFace{axes: []VariationAxis{
		{Tag: "wght", Min: 100, Default: 400, Max: 900},
	}}

	// Optical size follows the pixel size when unset.
	vars := withOpsz.effectiveVariations(Options{PPEM: 17})
	if len(vars) != 1 || vars[0] != (Variation{Tag: "opsz", Value: 17}) {
		t.Errorf("vars = %+v, want implicit opsz 17", vars)
	}

	// An explicit setting wins.
	explicit := []Variation{{Tag: "opsz", Value: 72}}
	vars = withOpsz.effectiveVariations(Options{PPEM: 17, Variations: explicit})
	if len(vars) != 1 || vars[0].Value != 72 {
		t.Errorf("vars = %+v, want the explicit opsz 72", vars)
	}

	// No pixel size, no implicit axis.
	if vars := withOpsz.effectiveVariations(Options{}); len(vars) != 0 {
		t.Errorf("vars = %+v, want none", vars)
	}

	// Faces without the axis are untouched.
	weight := []Variation{{Tag: "wght", Value: 650}}
	vars = withoutOpsz.effectiveVariations(Options{PPEM: 17, Variations: weight})
	if len(vars) != 1 || vars[0] != weight[0] {
		t.Errorf("vars = %+v, want just the weight setting", vars)
	}

	// The caller's slice must not be appended to in place.
	caller := make([]Variation, 1, 4)
	caller[0] = Variation{Tag: "wght", Value: 650}
	vars = withOpsz.effectiveVariations(Options{PPEM: 17, Variations: caller})
	if len(vars) != 2 {
		t.Fatalf("got %d settings, want 2", len(vars))
	}
	if cap(caller) >= 2 && &caller[:2][1] == &vars[1] {
		t.Error("effectiveVariations must not share the caller's backing array")
	}
}

func TestExtractorStaleHandle(t *testing.T) {
	e := NewExtractor(fontdb.New())
	var id fontdb.ID

	if axes := e.Axes(id); axes != nil {
		t.Error("Axes on a stale handle must be nil")
	}
	if upem := e.UnitsPerEm(id); upem != 0 {
		t.Error("UnitsPerEm on a stale handle must be 0")
	}
	if _, ok := e.Outline(id, 1, Options{}); ok {
		t.Error("Outline on a stale handle must fail")
	}
	if _, ok := e.Resolve(id, 1, Options{}); ok {
		t.Error("Resolve on a stale handle must fail")
	}
	if _, ok := e.Metrics(id); ok {
		t.Error("Metrics on a stale handle must fail")
	}
}
