package fontdb

import (
	"encoding/binary"
	"errors"

	"github.com/go-text/typesetting/font/opentype"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	// ErrMalformedFont is returned when a font's tables cannot be read.
	ErrMalformedFont = errors.New("fontdb: malformed font")

	// ErrUnnamedFont is returned when a face carries no family name at
	// all. Such faces are rejected because they can never be matched.
	ErrUnnamedFont = errors.New("fontdb: font doesn't have a family name")
)

// OpenType name IDs consulted during face parsing.
const (
	nameIDFamily            = 1
	nameIDPostScriptName    = 6
	nameIDTypographicFamily = 16
)

// parseFaceInfo extracts the metadata record of one face.
//
// Only the name, OS/2 and post tables are consulted; a face missing OS/2
// or post still loads with default style attributes, but a face without
// any family name is rejected.
func parseFaceInfo(source Source, ld *opentype.Loader, index int) (FaceInfo, error) {
	nameData, err := ld.RawTable(opentype.MustNewTag("name"))
	if err != nil {
		return FaceInfo{}, ErrMalformedFont
	}
	families, psName := parseNames(nameData)
	if len(families) == 0 {
		return FaceInfo{}, ErrUnnamedFont
	}

	info := FaceInfo{
		Source:         source,
		Index:          index,
		Families:       families,
		PostScriptName: psName,
		Style:          StyleNormal,
		Weight:         WeightNormal,
		Stretch:        StretchNormal,
	}

	var italicAngle float64
	if postData, err := ld.RawTable(opentype.MustNewTag("post")); err == nil {
		italicAngle, info.Monospaced = parsePost(postData)
	}

	if os2Data, err := ld.RawTable(opentype.MustNewTag("OS/2")); err == nil && len(os2Data) >= 64 {
		info.Weight = Weight(binary.BigEndian.Uint16(os2Data[4:]))
		if w := binary.BigEndian.Uint16(os2Data[6:]); w >= 1 && w <= 9 {
			info.Stretch = Stretch(w)
		}
		fsSelection := binary.BigEndian.Uint16(os2Data[62:])
		switch {
		case fsSelection&(1<<9) != 0:
			info.Style = StyleOblique
		case fsSelection&1 != 0:
			info.Style = StyleItalic
		}
	}

	// Some italic fonts do not set the italic flag and only report a
	// non-zero slant angle in the post table.
	if info.Style == StyleNormal && italicAngle != 0 {
		info.Style = StyleItalic
	}

	return info, nil
}

// nameRecord is one decoded entry of the name table.
type nameRecord struct {
	platformID uint16
	encodingID uint16
	languageID uint16
	nameID     uint16
	value      []byte
}

// parseNames collects the family names and PostScript name of a face.
//
// Typographic family names (ID 16) are preferred; legacy family names
// (ID 1) are used only when no typographic name exists. The US English
// entry, when present, is moved to the front of the family list.
func parseNames(data []byte) ([]FamilyEntry, string) {
	records := parseNameRecords(data)

	collect := func(nameID uint16) []FamilyEntry {
		var out []FamilyEntry
		for _, rec := range records {
			if rec.nameID != nameID {
				continue
			}
			name, ok := decodeName(rec)
			if !ok || name == "" {
				continue
			}
			entry := FamilyEntry{Name: name, Language: recordLanguage(rec)}
			if containsFamily(out, entry) {
				continue
			}
			out = append(out, entry)
		}
		return out
	}

	families := collect(nameIDTypographicFamily)
	if len(families) == 0 {
		families = collect(nameIDFamily)
	}

	// Keep the US English name first so it acts as the primary family.
	for i, fam := range families {
		if fam.Language == "en-US" && i != 0 {
			families[0], families[i] = families[i], families[0]
			break
		}
	}

	var psName string
	for _, rec := range records {
		if rec.nameID != nameIDPostScriptName {
			continue
		}
		if name, ok := decodeName(rec); ok && name != "" {
			psName = name
			break
		}
	}

	return families, psName
}

// parseNameRecords walks the raw name table, bounds-checking every
// record. Malformed records are skipped rather than failing the face.
func parseNameRecords(data []byte) []nameRecord {
	if len(data) < 6 {
		return nil
	}
	count := int(binary.BigEndian.Uint16(data[2:]))
	stringOffset := int(binary.BigEndian.Uint16(data[4:]))

	var records []nameRecord
	for i := range count {
		off := 6 + i*12
		if off+12 > len(data) {
			break
		}
		length := int(binary.BigEndian.Uint16(data[off+8:]))
		strOff := stringOffset + int(binary.BigEndian.Uint16(data[off+10:]))
		if strOff+length > len(data) {
			continue
		}
		records = append(records, nameRecord{
			platformID: binary.BigEndian.Uint16(data[off:]),
			encodingID: binary.BigEndian.Uint16(data[off+2:]),
			languageID: binary.BigEndian.Uint16(data[off+4:]),
			nameID:     binary.BigEndian.Uint16(data[off+6:]),
			value:      data[strOff : strOff+length],
		})
	}
	return records
}

// decodeName converts a name record's raw bytes to UTF-8.
// Unsupported platform/encoding pairs are skipped.
func decodeName(rec nameRecord) (string, bool) {
	switch rec.platformID {
	case 0, 3: // Unicode and Windows store UTF-16BE.
		dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		out, err := dec.Bytes(rec.value)
		if err != nil {
			return "", false
		}
		return string(out), true
	case 1: // Macintosh.
		if rec.encodingID != 0 {
			return "", false
		}
		out, err := charmap.Macintosh.NewDecoder().Bytes(rec.value)
		if err != nil {
			return "", false
		}
		return string(out), true
	default:
		return "", false
	}
}

// recordLanguage maps a name record's language ID to a BCP 47 tag.
// Only the languages needed for family selection are distinguished.
func recordLanguage(rec nameRecord) string {
	switch rec.platformID {
	case 3:
		if rec.languageID == 0x0409 {
			return "en-US"
		}
	case 0:
		// The Unicode platform carries no language; treat it as the
		// primary English name like most tooling does.
		return "en-US"
	case 1:
		if rec.languageID == 0 {
			return "en"
		}
	}
	return "und"
}

func containsFamily(entries []FamilyEntry, e FamilyEntry) bool {
	for _, have := range entries {
		if have == e {
			return true
		}
	}
	return false
}

// parsePost reads the italic angle and fixed pitch flag from the post
// table. The italic angle is a 16.16 fixed point value.
func parsePost(data []byte) (italicAngle float64, fixedPitch bool) {
	if len(data) < 16 {
		return 0, false
	}
	angle := int32(binary.BigEndian.Uint32(data[4:]))
	italicAngle = float64(angle) / 65536
	fixedPitch = binary.BigEndian.Uint32(data[12:]) != 0
	return italicAngle, fixedPitch
}
