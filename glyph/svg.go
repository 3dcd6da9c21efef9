package glyph

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"io"
	"strconv"

	"github.com/gogpu/fontdb"
)

// ErrInvalidSVGTable reports a malformed SVG font table.
var ErrInvalidSVGTable = errors.New("glyph: invalid SVG table")

// SVGDocument is one SVG document from a font, covering a contiguous
// glyph range. Data is the decompressed UTF-8 document.
type SVGDocument struct {
	Data []byte

	// StartGlyphID and EndGlyphID delimit the covered range, both
	// inclusive.
	StartGlyphID uint16
	EndGlyphID   uint16
}

// ElementID returns the document element id that renders the given
// glyph, following the "glyph" plus decimal glyph id convention.
func (d *SVGDocument) ElementID(gid uint32) string {
	return "glyph" + strconv.FormatUint(uint64(gid), 10)
}

// svgTable indexes the document list of an SVG table. Document bytes
// stay compressed until a glyph is looked up.
type svgTable struct {
	entries []svgEntry
}

type svgEntry struct {
	start, end uint16
	doc        []byte
}

func parseSVGTable(data []byte) (*svgTable, error) {
	if len(data) < 10 {
		return nil, ErrInvalidSVGTable
	}
	if binary.BigEndian.Uint16(data) != 0 {
		return nil, ErrInvalidSVGTable
	}
	listOffset := binary.BigEndian.Uint32(data[2:])
	if listOffset < 10 || int64(listOffset)+2 > int64(len(data)) {
		return nil, ErrInvalidSVGTable
	}
	list := data[listOffset:]
	numEntries := int(binary.BigEndian.Uint16(list))
	if 2+numEntries*12 > len(list) {
		return nil, ErrInvalidSVGTable
	}

	t := &svgTable{entries: make([]svgEntry, 0, numEntries)}
	for i := 0; i < numEntries; i++ {
		rec := list[2+i*12:]
		start := binary.BigEndian.Uint16(rec)
		end := binary.BigEndian.Uint16(rec[2:])
		docOffset := binary.BigEndian.Uint32(rec[4:])
		docLength := binary.BigEndian.Uint32(rec[8:])
		if end < start {
			continue
		}
		// Document offsets are relative to the document list.
		if int64(docOffset)+int64(docLength) > int64(len(list)) {
			continue
		}
		t.entries = append(t.entries, svgEntry{
			start: start,
			end:   end,
			doc:   list[docOffset : docOffset+docLength],
		})
	}
	return t, nil
}

func (t *svgTable) lookup(gid uint32) (svgEntry, bool) {
	if gid > 0xFFFF {
		return svgEntry{}, false
	}
	g := uint16(gid)
	for _, e := range t.entries {
		if e.start <= g && g <= e.end {
			return e, true
		}
	}
	return svgEntry{}, false
}

// document decompresses the entry into an SVGDocument.
func (e svgEntry) document() (*SVGDocument, error) {
	data := e.doc
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		data, err = io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
	}
	return &SVGDocument{
		Data:         data,
		StartGlyphID: e.start,
		EndGlyphID:   e.end,
	}, nil
}

// SVG returns the SVG document covering a glyph, if the face carries
// one. Compressed documents are decompressed.
func (e *Extractor) SVG(id fontdb.ID, glyphID uint32) (*SVGDocument, bool) {
	pf := e.face(id)
	if pf == nil || pf.svg == nil {
		return nil, false
	}
	entry, ok := pf.svg.lookup(glyphID)
	if !ok {
		return nil, false
	}
	doc, err := entry.document()
	if err != nil {
		return nil, false
	}
	return doc, true
}
