package sbit

import (
	"encoding/binary"
	"testing"
)

// buildColorTable builds a CBLC/CBDT pair with one strike, one index
// subtable (format 1, image format 17) covering glyphs 1..2. Glyph 1
// carries payload, glyph 2 is empty.
func buildColorTable(ppem uint8, payload []byte) (cblc, cbdt []byte) {
	// Image format 17 record: small metrics (5) + data length (4) + PNG.
	img := make([]byte, 9+len(payload))
	img[0] = 20 // height
	img[1] = 24 // width
	img[2] = 1  // bearingX
	img[3] = 2  // bearingY
	binary.BigEndian.PutUint32(img[5:], uint32(len(payload)))
	copy(img[9:], payload)
	cbdt = img

	// Header + one BitmapSize record + one array entry + format 1
	// subtable with three 32-bit offsets.
	cblc = make([]byte, 8+48+8+8+12)
	binary.BigEndian.PutUint16(cblc[0:], 3) // major version
	binary.BigEndian.PutUint32(cblc[4:], 1) // numSizes

	rec := cblc[8:]
	binary.BigEndian.PutUint32(rec[0:], 56) // indexSubtableListOffset
	binary.BigEndian.PutUint32(rec[8:], 1)  // numberOfIndexSubtables
	binary.BigEndian.PutUint16(rec[40:], 1) // startGlyphIndex
	binary.BigEndian.PutUint16(rec[42:], 2) // endGlyphIndex
	rec[45] = ppem                          // vertical ppem
	rec[46] = 32                            // bitDepth

	arr := cblc[56:]
	binary.BigEndian.PutUint16(arr[0:], 1) // firstGlyphIndex
	binary.BigEndian.PutUint16(arr[2:], 2) // lastGlyphIndex
	binary.BigEndian.PutUint32(arr[4:], 8) // additionalOffset

	sub := cblc[64:]
	binary.BigEndian.PutUint16(sub[0:], indexFormat1)
	binary.BigEndian.PutUint16(sub[2:], imageFormat17)
	binary.BigEndian.PutUint32(sub[4:], 0) // imageDataOffset
	binary.BigEndian.PutUint32(sub[8:], 0)
	binary.BigEndian.PutUint32(sub[12:], uint32(len(img)))
	binary.BigEndian.PutUint32(sub[16:], uint32(len(img))) // glyph 2 empty

	return cblc, cbdt
}

func TestParseCBDTExtractGlyph(t *testing.T) {
	payload := []byte("png payload")
	cblc, cbdt := buildColorTable(64, payload)

	table, err := ParseCBDT(cblc, cbdt)
	if err != nil {
		t.Fatalf("ParseCBDT: %v", err)
	}
	if !table.Color() {
		t.Error("CBDT table must report color strikes")
	}
	if n := table.NumStrikes(); n != 1 {
		t.Fatalf("NumStrikes() = %d, want 1", n)
	}
	if ppem := table.StrikePPEM(0); ppem != 64 {
		t.Errorf("StrikePPEM(0) = %d, want 64", ppem)
	}

	g, err := table.GlyphAt(1, 0)
	if err != nil {
		t.Fatalf("GlyphAt: %v", err)
	}
	if g.Format != FormatPNG {
		t.Errorf("format = %v, want PNG", g.Format)
	}
	if string(g.Data) != string(payload) {
		t.Errorf("payload mismatch: got %q", g.Data)
	}
	if g.Width != 24 || g.Height != 20 {
		t.Errorf("size = %dx%d, want 24x20", g.Width, g.Height)
	}
	if g.OriginX != 1 || g.OriginY != 2 {
		t.Errorf("origin = (%v, %v), want (1, 2)", g.OriginX, g.OriginY)
	}
	if g.PPEM != 64 {
		t.Errorf("PPEM = %d, want 64", g.PPEM)
	}
	if !g.IsColor() {
		t.Error("PNG glyph must be color")
	}
}

func TestCBDTEmptyAndMissingGlyphs(t *testing.T) {
	cblc, cbdt := buildColorTable(64, []byte("x"))
	table, err := ParseCBDT(cblc, cbdt)
	if err != nil {
		t.Fatal(err)
	}

	// Glyph 2 has a zero-length range, glyphs 0 and 3 are outside the
	// strike's range.
	for _, gid := range []uint32{0, 2, 3} {
		if table.HasGlyph(gid, 0) {
			t.Errorf("HasGlyph(%d) = true, want false", gid)
		}
		if _, err := table.GlyphAt(gid, 0); err == nil {
			t.Errorf("GlyphAt(%d) succeeded, want error", gid)
		}
	}
}

func TestCBDTMalformed(t *testing.T) {
	tests := []struct {
		name string
		mod  func(cblc, cbdt []byte) ([]byte, []byte)
	}{
		{"empty location table", func(cblc, cbdt []byte) ([]byte, []byte) {
			return nil, cbdt
		}},
		{"bad version", func(cblc, cbdt []byte) ([]byte, []byte) {
			binary.BigEndian.PutUint16(cblc[0:], 9)
			return cblc, cbdt
		}},
		{"strike count beyond table", func(cblc, cbdt []byte) ([]byte, []byte) {
			binary.BigEndian.PutUint32(cblc[4:], 1000)
			return cblc, cbdt
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cblc, cbdt := buildColorTable(32, []byte("x"))
			cblc, cbdt = tt.mod(cblc, cbdt)
			if _, err := ParseCBDT(cblc, cbdt); err == nil {
				t.Error("expected a parse error")
			}
		})
	}
}

func TestCBDTTruncatedSubtable(t *testing.T) {
	cblc, cbdt := buildColorTable(32, []byte("x"))
	// Point the subtable list past the end of the table. Parsing is
	// lazy, so the failure surfaces on glyph access, not table load.
	binary.BigEndian.PutUint32(cblc[8:], uint32(len(cblc)))
	table, err := ParseCBDT(cblc, cbdt)
	if err != nil {
		t.Fatal(err)
	}
	if table.HasGlyph(1, 0) {
		t.Error("glyph must be unreachable through a broken subtable list")
	}
}

// buildMaskStrikes builds an EBLC/EBDT pair with one strike per given
// ppem, each using a constant-metrics subtable (index format 2, image
// format 5) for glyph 1.
func buildMaskStrikes(ppems []uint8) (eblc, ebdt []byte) {
	const recordSize = 48
	const regionSize = 8 + 20 // array entry + format 2 subtable
	listBase := 8 + len(ppems)*recordSize

	eblc = make([]byte, listBase+len(ppems)*regionSize)
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
		rec[46] = 1 // bit depth

		arr := eblc[listOffset:]
		binary.BigEndian.PutUint16(arr[0:], 1)
		binary.BigEndian.PutUint16(arr[2:], 1)
		binary.BigEndian.PutUint32(arr[4:], 8)

		sub := eblc[listOffset+8:]
		binary.BigEndian.PutUint16(sub[0:], indexFormat2)
		binary.BigEndian.PutUint16(sub[2:], imageFormat5)
		binary.BigEndian.PutUint32(sub[4:], 0) // imageDataOffset
		binary.BigEndian.PutUint32(sub[8:], 4) // imageSize
		sub[12] = 8                            // height
		sub[13] = 8                            // width
	}

	ebdt = make([]byte, 8)
	return eblc, ebdt
}

func TestSelectStrikePolicies(t *testing.T) {
	eblc, ebdt := buildMaskStrikes([]uint8{16, 32, 64})
	table, err := ParseEBDT(eblc, ebdt)
	if err != nil {
		t.Fatal(err)
	}
	if table.Color() {
		t.Error("EBDT table must report mask strikes")
	}

	tests := []struct {
		name   string
		ppem   uint16
		policy Policy
		want   int // strike index, -1 for none
	}{
		{"exact hit", 32, PolicyExact, 1},
		{"exact miss", 20, PolicyExact, -1},
		{"largest ignores request", 20, PolicyLargest, 2},
		{"nearest picks smallest at or above", 20, PolicyNearest, 1},
		{"nearest exact", 16, PolicyNearest, 0},
		{"nearest falls back to largest", 100, PolicyNearest, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.SelectStrike(1, tt.ppem, tt.policy); got != tt.want {
				t.Errorf("SelectStrike(1, %d, %v) = %d, want %d", tt.ppem, tt.policy, got, tt.want)
			}
		})
	}

	// A glyph absent from every strike never selects one.
	if got := table.SelectStrike(5, 32, PolicyLargest); got != -1 {
		t.Errorf("SelectStrike for missing glyph = %d, want -1", got)
	}
}

func TestMaskGlyphExtraction(t *testing.T) {
	eblc, ebdt := buildMaskStrikes([]uint8{16})
	table, err := ParseEBDT(eblc, ebdt)
	if err != nil {
		t.Fatal(err)
	}

	g, err := table.GlyphAt(1, 0)
	if err != nil {
		t.Fatalf("GlyphAt: %v", err)
	}
	if g.Format != FormatMask {
		t.Errorf("format = %v, want Mask", g.Format)
	}
	if g.BitDepth != 1 {
		t.Errorf("bit depth = %d, want 1", g.BitDepth)
	}
	if g.Width != 8 || g.Height != 8 {
		t.Errorf("size = %dx%d, want 8x8", g.Width, g.Height)
	}
	if len(g.Data) != 4 {
		t.Errorf("payload length = %d, want 4", len(g.Data))
	}
	if g.IsColor() {
		t.Error("mask glyph must not be color")
	}
}
