package glyph

import (
	"encoding/binary"
	"testing"

	"github.com/gogpu/fontdb"
	"github.com/gogpu/fontdb/geom"
	"github.com/gogpu/fontdb/glyph/sbit"
)

func squareOutline(size float32) *geom.Path {
	var b geom.PathBuilder
	b.MoveTo(0, 0)
	b.LineTo(size, 0)
	b.LineTo(size, size)
	b.LineTo(0, size)
	return b.Finish()
}

// buildColorStrike builds a CBLC/CBDT pair with one PNG strike
// covering glyph 1 (index format 1, image format 17).
func buildColorStrike(t *testing.T, ppem uint8, payload []byte) *sbit.Table {
	t.Helper()

	img := make([]byte, 9+len(payload))
	img[0] = 20 // height
	img[1] = 24 // width
	binary.BigEndian.PutUint32(img[5:], uint32(len(payload)))
	copy(img[9:], payload)

	cblc := make([]byte, 8+48+8+8+12)
	binary.BigEndian.PutUint16(cblc[0:], 3)
	binary.BigEndian.PutUint32(cblc[4:], 1)

	rec := cblc[8:]
	binary.BigEndian.PutUint32(rec[0:], 56)
	binary.BigEndian.PutUint32(rec[8:], 1)
	binary.BigEndian.PutUint16(rec[40:], 1)
	binary.BigEndian.PutUint16(rec[42:], 2)
	rec[45] = ppem
	rec[46] = 32

	arr := cblc[56:]
	binary.BigEndian.PutUint16(arr[0:], 1)
	binary.BigEndian.PutUint16(arr[2:], 2)
	binary.BigEndian.PutUint32(arr[4:], 8)

	sub := cblc[64:]
	binary.BigEndian.PutUint16(sub[0:], 1)  // index format
	binary.BigEndian.PutUint16(sub[2:], 17) // image format
	binary.BigEndian.PutUint32(sub[4:], 0)
	binary.BigEndian.PutUint32(sub[8:], 0)
	binary.BigEndian.PutUint32(sub[12:], uint32(len(img)))
	binary.BigEndian.PutUint32(sub[16:], uint32(len(img)))

	table, err := sbit.ParseCBDT(cblc, img)
	if err != nil {
		t.Fatalf("ParseCBDT: %v", err)
	}
	return table
}

// buildMaskStrikeTable builds an EBLC/EBDT pair with one mask strike
// per ppem covering glyph 1 (index format 2, image format 5).
func buildMaskStrikeTable(t *testing.T, ppems []uint8) *sbit.Table {
	t.Helper()

	const recordSize = 48
	const regionSize = 8 + 20
	listBase := 8 + len(ppems)*recordSize

	eblc := make([]byte, listBase+len(ppems)*regionSize)
	binary.BigEndian.PutUint16(eblc[0:], 2)
	binary.BigEndian.PutUint32(eblc[4:], uint32(len(ppems)))

	for i, ppem := range ppems {
		rec := eblc[8+i*recordSize:]
		listOffset := listBase + i*regionSize
		binary.BigEndian.PutUint32(rec[0:], uint32(listOffset))
		binary.BigEndian.PutUint32(rec[8:], 1)
		binary.BigEndian.PutUint16(rec[40:], 1)
		binary.BigEndian.PutUint16(rec[42:], 1)
		rec[45] = ppem
		rec[46] = 1

		arr := eblc[listOffset:]
		binary.BigEndian.PutUint16(arr[0:], 1)
		binary.BigEndian.PutUint16(arr[2:], 1)
		binary.BigEndian.PutUint32(arr[4:], 8)

		sub := eblc[listOffset+8:]
		binary.BigEndian.PutUint16(sub[0:], 2) // index format
		binary.BigEndian.PutUint16(sub[2:], 5) // image format
		binary.BigEndian.PutUint32(sub[4:], 0)
		binary.BigEndian.PutUint32(sub[8:], 4)
		sub[12] = 8
		sub[13] = 8
	}

	table, err := sbit.ParseEBDT(eblc, make([]byte, 8))
	if err != nil {
		t.Fatalf("ParseEBDT: %v", err)
	}
	return table
}

func resolverFor(pf *parsedFace) (*Extractor, fontdb.ID) {
	e := NewExtractor(fontdb.New())
	var id fontdb.ID
	e.faces.Set(id, pf)
	return e, id
}

func TestResolvePrefersSVGOverBitmap(t *testing.T) {
	svg, err := parseSVGTable(buildSVGTable([]svgDocSpec{
		{start: 1, end: 1, doc: []byte("<svg/>")},
	}))
	if err != nil {
		t.Fatal(err)
	}
	e, id := resolverFor(&parsedFace{
		upem: 1000,
		svg:  svg,
		cbdt: buildColorStrike(t, 64, []byte("png")),
	})

	rep, ok := e.Resolve(id, 1, Options{PPEM: 16})
	if !ok {
		t.Fatal("Resolve failed")
	}
	if rep.Kind != KindSVG {
		t.Fatalf("Kind = %v, want svg", rep.Kind)
	}
	if rep.Document == nil {
		t.Error("SVG representation must carry the document")
	}
}

func TestResolveColorBitmap(t *testing.T) {
	e, id := resolverFor(&parsedFace{
		upem: 1000,
		cbdt: buildColorStrike(t, 64, []byte("png")),
	})

	rep, ok := e.Resolve(id, 1, Options{PPEM: 16})
	if !ok {
		t.Fatal("Resolve failed")
	}
	if rep.Kind != KindBitmap {
		t.Fatalf("Kind = %v, want bitmap", rep.Kind)
	}
	if !rep.Bitmap.IsColor() {
		t.Error("CBDT strike must resolve to a color bitmap")
	}
	if rep.Bitmap.PPEM != 64 {
		t.Errorf("strike ppem = %d, want 64", rep.Bitmap.PPEM)
	}
}

func TestResolveColorBitmapBeatsMask(t *testing.T) {
	e, id := resolverFor(&parsedFace{
		upem: 1000,
		cbdt: buildColorStrike(t, 64, []byte("png")),
		ebdt: buildMaskStrikeTable(t, []uint8{16}),
	})

	rep, ok := e.Resolve(id, 1, Options{PPEM: 16})
	if !ok {
		t.Fatal("Resolve failed")
	}
	if !rep.Bitmap.IsColor() {
		t.Error("color strike must win over an exact mask strike")
	}
}

func TestResolveMaskStrikes(t *testing.T) {
	e, id := resolverFor(&parsedFace{
		upem: 1000,
		ebdt: buildMaskStrikeTable(t, []uint8{16, 32}),
	})

	tests := []struct {
		name string
		ppem float32
		want uint16
	}{
		{"exact match", 32, 32},
		{"nearest above", 20, 32},
		{"largest when above all", 100, 32},
		{"largest without pixel size", 0, 32},
		{"exact small strike", 16, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, ok := e.Resolve(id, 1, Options{PPEM: tt.ppem})
			if !ok {
				t.Fatal("Resolve failed")
			}
			if rep.Kind != KindBitmap {
				t.Fatalf("Kind = %v, want bitmap", rep.Kind)
			}
			if rep.Bitmap.PPEM != tt.want {
				t.Errorf("strike ppem = %d, want %d", rep.Bitmap.PPEM, tt.want)
			}
		})
	}
}

func TestResolveMissingGlyph(t *testing.T) {
	e, id := resolverFor(&parsedFace{upem: 1000})
	if _, ok := e.Resolve(id, 1, Options{}); ok {
		t.Error("a glyph with no representation must not resolve")
	}
}

func TestRoundPPEM(t *testing.T) {
	tests := []struct {
		in   float32
		want uint16
	}{
		{0, 0},
		{-3, 0},
		{15.4, 15},
		{15.5, 16},
		{70000, 0xFFFF},
	}
	for _, tt := range tests {
		if got := roundPPEM(tt.in); got != tt.want {
			t.Errorf("roundPPEM(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindOutline, "outline"},
		{KindColor, "color"},
		{KindSVG, "svg"},
		{KindBitmap, "bitmap"},
		{Kind(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
