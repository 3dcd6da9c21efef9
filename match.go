package fontdb

// Family is a font family query term.
//
// A Family is either a concrete name or one of the five CSS generic
// families. Generic families resolve to concrete names configured on the
// Database.
type Family struct {
	generic GenericFamily
	name    string
}

// GenericFamily enumerates the CSS generic font families.
type GenericFamily uint8

const (
	genericNone GenericFamily = iota

	// GenericSerif corresponds to the CSS 'serif' keyword.
	GenericSerif
	// GenericSansSerif corresponds to the CSS 'sans-serif' keyword.
	GenericSansSerif
	// GenericCursive corresponds to the CSS 'cursive' keyword.
	GenericCursive
	// GenericFantasy corresponds to the CSS 'fantasy' keyword.
	GenericFantasy
	// GenericMonospace corresponds to the CSS 'monospace' keyword.
	GenericMonospace
)

// FamilyName creates a Family referring to a concrete family name.
func FamilyName(name string) Family {
	return Family{name: name}
}

// FamilyGeneric creates a Family referring to a CSS generic family.
func FamilyGeneric(g GenericFamily) Family {
	return Family{generic: g}
}

// Weight is a font weight on the usual 1..1000 scale.
type Weight uint16

// Common CSS font weights.
const (
	WeightThin       Weight = 100
	WeightExtraLight Weight = 200
	WeightLight      Weight = 300
	WeightNormal     Weight = 400
	WeightMedium     Weight = 500
	WeightSemiBold   Weight = 600
	WeightBold       Weight = 700
	WeightExtraBold  Weight = 800
	WeightBlack      Weight = 900
)

// Stretch is a font width class, 1 (ultra-condensed) to 9 (ultra-expanded).
type Stretch uint8

// OS/2 usWidthClass values.
const (
	StretchUltraCondensed Stretch = 1
	StretchExtraCondensed Stretch = 2
	StretchCondensed      Stretch = 3
	StretchSemiCondensed  Stretch = 4
	StretchNormal         Stretch = 5
	StretchSemiExpanded   Stretch = 6
	StretchExpanded       Stretch = 7
	StretchExtraExpanded  Stretch = 8
	StretchUltraExpanded  Stretch = 9
)

// String returns the CSS name of the stretch value.
func (s Stretch) String() string {
	switch s {
	case StretchUltraCondensed:
		return "ultra-condensed"
	case StretchExtraCondensed:
		return "extra-condensed"
	case StretchCondensed:
		return "condensed"
	case StretchSemiCondensed:
		return "semi-condensed"
	case StretchNormal:
		return "normal"
	case StretchSemiExpanded:
		return "semi-expanded"
	case StretchExpanded:
		return "expanded"
	case StretchExtraExpanded:
		return "extra-expanded"
	case StretchUltraExpanded:
		return "ultra-expanded"
	default:
		return "unknown"
	}
}

// Style is the face slope: normal, italic or oblique.
type Style uint8

const (
	// StyleNormal is an upright face.
	StyleNormal Style = iota
	// StyleItalic is a cursive italic face.
	StyleItalic
	// StyleOblique is a slanted upright face.
	StyleOblique
)

// String returns the CSS name of the style value.
func (s Style) String() string {
	switch s {
	case StyleItalic:
		return "italic"
	case StyleOblique:
		return "oblique"
	default:
		return "normal"
	}
}

// Query describes a face request in CSS font matching terms.
//
// Families are tried in order; the first family with at least one
// candidate wins and the remaining families are ignored. Zero values for
// Weight and Stretch are treated as WeightNormal and StretchNormal.
type Query struct {
	// Families to search, in priority order.
	Families []Family

	// Weight is the desired font weight. Zero means WeightNormal.
	Weight Weight

	// Stretch is the desired width class. Zero means StretchNormal.
	Stretch Stretch

	// Style is the desired slope.
	Style Style
}

// Query performs a CSS-like font matching and returns the best match.
//
// The algorithm follows the CSS Fonts Level 3 matching order: stretch
// first, then style, then weight. Font size is intentionally not part of
// the query. Returns false when no loaded face matches.
func (db *Database) Query(q *Query) (ID, bool) {
	weight := q.Weight
	if weight == 0 {
		weight = WeightNormal
	}
	stretch := q.Stretch
	if stretch == 0 {
		stretch = StretchNormal
	}

	for _, family := range q.Families {
		name, ok := db.FamilyName(family)
		if !ok {
			continue
		}

		var candidates []*FaceInfo
		for _, slot := range db.slots {
			if !slot.live {
				continue
			}
			if faceMatchesFamily(&slot.info, name) {
				candidates = append(candidates, &slot.info)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		if info := findBestMatch(candidates, stretch, q.Style, weight); info != nil {
			return info.ID, true
		}
	}
	var zero ID
	return zero, false
}

// FamilyName resolves a Family to a concrete family name, using the
// configured generic family defaults. Returns false for a generic family
// that was explicitly unset.
func (db *Database) FamilyName(family Family) (string, bool) {
	switch family.generic {
	case genericNone:
		return family.name, true
	case GenericSerif:
		return db.familySerif, db.familySerif != ""
	case GenericSansSerif:
		return db.familySansSerif, db.familySansSerif != ""
	case GenericCursive:
		return db.familyCursive, db.familyCursive != ""
	case GenericFantasy:
		return db.familyFantasy, db.familyFantasy != ""
	case GenericMonospace:
		return db.familyMonospace, db.familyMonospace != ""
	default:
		return "", false
	}
}

func faceMatchesFamily(info *FaceInfo, name string) bool {
	for _, fam := range info.Families {
		if fam.Name == name {
			return true
		}
	}
	return false
}

// findBestMatch narrows candidates by stretch, then style, then weight,
// per the CSS Fonts Level 3 font style matching algorithm.
// https://www.w3.org/TR/css-fonts-3/#font-style-matching
func findBestMatch(candidates []*FaceInfo, stretch Stretch, style Style, weight Weight) *FaceInfo {
	// Step 4a: font-stretch.
	matchesStretch := func(s Stretch) []*FaceInfo {
		var out []*FaceInfo
		for _, c := range candidates {
			if c.Stretch == s {
				out = append(out, c)
			}
		}
		return out
	}

	matching := matchesStretch(stretch)
	if matching == nil {
		if stretch <= StretchNormal {
			// Prefer narrower faces, then wider ones.
			if s, ok := closestStretch(candidates, stretch, true); ok {
				matching = matchesStretch(s)
			} else if s, ok := closestStretch(candidates, stretch, false); ok {
				matching = matchesStretch(s)
			}
		} else {
			if s, ok := closestStretch(candidates, stretch, false); ok {
				matching = matchesStretch(s)
			} else if s, ok := closestStretch(candidates, stretch, true); ok {
				matching = matchesStretch(s)
			}
		}
	}
	if matching == nil {
		return nil
	}
	candidates = matching

	// Step 4b: font-style.
	var stylePreference [3]Style
	switch style {
	case StyleItalic:
		stylePreference = [3]Style{StyleItalic, StyleOblique, StyleNormal}
	case StyleOblique:
		stylePreference = [3]Style{StyleOblique, StyleItalic, StyleNormal}
	default:
		stylePreference = [3]Style{StyleNormal, StyleOblique, StyleItalic}
	}
	var styled []*FaceInfo
	for _, want := range stylePreference {
		for _, c := range candidates {
			if c.Style == want {
				styled = append(styled, c)
			}
		}
		if styled != nil {
			break
		}
	}
	if styled == nil {
		return nil
	}
	candidates = styled

	// Step 4c: font-weight.
	//
	// Exact match wins. Weights in [400, 450) prefer 500 before falling
	// back to thinner weights; weights in [450, 500] prefer 400 first.
	for _, c := range candidates {
		if c.Weight == weight {
			return c
		}
	}
	if weight >= 400 && weight < 450 {
		for _, c := range candidates {
			if c.Weight == 500 {
				return c
			}
		}
	}
	if weight >= 450 && weight <= 500 {
		for _, c := range candidates {
			if c.Weight == 400 {
				return c
			}
		}
	}
	if weight <= 500 {
		if c := closestWeight(candidates, weight, true); c != nil {
			return c
		}
		return closestWeight(candidates, weight, false)
	}
	if c := closestWeight(candidates, weight, false); c != nil {
		return c
	}
	return closestWeight(candidates, weight, true)
}

// closestStretch returns the stretch value among candidates nearest to
// want on the narrower (below) or wider side.
func closestStretch(candidates []*FaceInfo, want Stretch, below bool) (Stretch, bool) {
	var best Stretch
	bestDist := -1
	for _, c := range candidates {
		var dist int
		if below {
			if c.Stretch > want {
				continue
			}
			dist = int(want) - int(c.Stretch)
		} else {
			if c.Stretch < want {
				continue
			}
			dist = int(c.Stretch) - int(want)
		}
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = c.Stretch
		}
	}
	return best, bestDist >= 0
}

// closestWeight returns the candidate whose weight is nearest to want on
// the thinner (below) or fatter side.
func closestWeight(candidates []*FaceInfo, want Weight, below bool) *FaceInfo {
	var best *FaceInfo
	bestDist := -1
	for _, c := range candidates {
		var dist int
		if below {
			if c.Weight > want {
				continue
			}
			dist = int(want) - int(c.Weight)
		} else {
			if c.Weight < want {
				continue
			}
			dist = int(c.Weight) - int(want)
		}
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = c
		}
	}
	return best
}
