package inventory

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// MatchKind classifies a DuplicateMatch by score, per §4.1/GLOSSARY.
type MatchKind string

const (
	MatchExact  MatchKind = "EXACT"  // score >= 0.95
	MatchSimilar MatchKind = "SIMILAR" // score >= 0.7
	MatchFuzzy  MatchKind = "FUZZY"  // score >= 0.5
	MatchNone   MatchKind = "NONE"   // score < 0.5, treated as a new item
)

// ClassifyMatch maps a similarity score to its match kind.
func ClassifyMatch(score float64) MatchKind {
	switch {
	case score >= 0.95:
		return MatchExact
	case score >= 0.7:
		return MatchSimilar
	case score >= 0.5:
		return MatchFuzzy
	default:
		return MatchNone
	}
}

// unitVocabulary is the closed set of unit tokens recognized by quantity
// extraction (§4.1). Some longer tokens are listed before their short
// prefixes (e.g. "sqmm" before "mm"); where a short token comes first
// ("m" before "mm"), the pattern's trailing \b stops it matching inside
// the longer one.
var unitVocabulary = []string{
	"pieces", "piece", "pcs", "pc",
	"bags", "bag",
	"meters", "meter", "metres", "metre", "m",
	"kgs", "kg",
	"tons", "ton",
	"ltrs", "litres", "liters", "litre", "liter", "l",
	"sqmm", "sqm",
	"mm", "cm",
	"boxes", "box",
	"rolls", "roll",
	"bundles", "bundle",
	"cartons", "carton",
	"sets", "set",
	"pairs", "pair",
}

// thicknessUnits are descriptor units that, when attached to a number
// embedded in the item name, do not count as the item's base quantity
// (§4.1: "Pure thickness descriptors ... are ignored for quantity
// extraction").
var thicknessUnits = map[string]bool{
	"mm":   true,
	"cm":   true,
	"inch": true,
}

var (
	caseFolder = cases.Fold()

	// quantityPattern matches <optional sign><number>[<space>]<unit>,
	// where unit is drawn from the vocabulary above, in list order and
	// followed by a word boundary.
	quantityPattern = regexp.MustCompile(`(?i)([+-]?\d+(?:\.\d+)?)\s*(` + strings.Join(unitVocabulary, "|") + `)\b`)

	// bareQuantityPattern matches a number with no recognized unit,
	// used when the item line carries no unit suffix.
	bareQuantityPattern = regexp.MustCompile(`(?i)([+-]?\d+(?:\.\d+)?)\b`)

	whitespacePattern = regexp.MustCompile(`\s+`)

	stopwords = map[string]bool{
		"a": true, "an": true, "the": true, "of": true, "for": true,
		"and": true, "or": true, "to": true, "in": true, "on": true,
		"at": true, "with": true,
	}
)

// NormalizeName lowercases (Unicode-aware), trims, collapses whitespace, and
// replaces hyphens/underscores with spaces, per §4.1.
func NormalizeName(name string) string {
	folded := caseFolder.String(name)
	folded = strings.ReplaceAll(folded, "-", " ")
	folded = strings.ReplaceAll(folded, "_", " ")
	folded = whitespacePattern.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}

func normalizedName(name string) string {
	return NormalizeName(name)
}

// ExtractedQuantity is the result of scanning a name/line for a
// <number><unit> pair.
type ExtractedQuantity struct {
	Quantity float64
	Unit     string
	Found    bool
}

// ExtractQuantity finds the first <number>[<unit>] token in normalized text.
// If no unit from the vocabulary is present, Unit defaults to "piece".
// Thickness units attached to item descriptors (mm, cm, inch) never count
// as the base quantity's unit — they remain descriptors and Unit is
// reported as "piece" when the only match found is a thickness unit.
func ExtractQuantity(normalized string) ExtractedQuantity {
	matches := quantityPattern.FindAllStringSubmatch(normalized, -1)
	for _, m := range matches {
		unit := canonicalUnit(strings.ToLower(m[2]))
		if thicknessUnits[unit] {
			continue
		}
		qty, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return ExtractedQuantity{Quantity: qty, Unit: unit, Found: true}
	}

	// No non-thickness unit match; fall back to a bare number so callers can
	// still report a quantity with the default "piece" unit.
	if bare := bareQuantityPattern.FindStringSubmatch(normalized); bare != nil {
		qty, err := strconv.ParseFloat(bare[1], 64)
		if err == nil {
			return ExtractedQuantity{Quantity: qty, Unit: "piece", Found: true}
		}
	}

	return ExtractedQuantity{Unit: "piece", Found: false}
}

// canonicalUnit folds unit synonyms to a single canonical token.
func canonicalUnit(unit string) string {
	switch unit {
	case "pieces", "pcs", "pc":
		return "piece"
	case "bags":
		return "bag"
	case "meters", "metres", "metre":
		return "meter"
	case "kgs":
		return "kg"
	case "tons":
		return "ton"
	case "ltrs", "litres", "liters", "litre", "liter", "l":
		return "litre"
	case "boxes":
		return "box"
	case "rolls":
		return "roll"
	case "bundles":
		return "bundle"
	case "cartons":
		return "carton"
	case "sets":
		return "set"
	case "pairs":
		return "pair"
	default:
		return unit
	}
}

// ExtractKeywords tokenizes normalized text, removes stopwords and
// quantity tokens (number+unit-vocab pairs), and discards single-character
// tokens, per §4.1. Embedded decimals like "2.5sqmm" preserve the "2.5"
// token rather than dropping it outright.
func ExtractKeywords(normalized string) []string {
	// Strip recognized quantity tokens entirely (number + unit glued or
	// spaced) before falling back to word splitting, so "50kg" doesn't
	// leave behind a stray "50" and "kg" pair once the unit is removed —
	// except embedded decimals, which are preserved as their own keyword.
	withoutUnits := quantityPattern.ReplaceAllStringFunc(normalized, func(tok string) string {
		sub := quantityPattern.FindStringSubmatch(tok)
		if sub == nil {
			return tok
		}
		unit := canonicalUnit(strings.ToLower(sub[2]))
		if thicknessUnits[unit] {
			// Thickness descriptors stay in the name as keywords.
			return tok
		}
		if strings.Contains(sub[1], ".") {
			return " " + sub[1] + " "
		}
		return " "
	})

	fields := strings.Fields(withoutUnits)
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:")
		if f == "" || len(f) < 2 {
			continue
		}
		if stopwords[f] {
			continue
		}
		keywords = append(keywords, f)
	}
	return keywords
}

// keywordSet builds an unordered set from a keyword slice. Order is not
// kept; Score uses the original slices for the "first keyword" bonus.
func keywordSet(keywords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		set[k] = struct{}{}
	}
	return set
}

// Score computes the similarity score ∈[0,1] between two item names, per
// the algorithm in §4.1.
func Score(a, b string) float64 {
	normA := NormalizeName(a)
	normB := NormalizeName(b)

	if normA == normB && normA != "" {
		return 1.0
	}

	keywordsA := ExtractKeywords(normA)
	keywordsB := ExtractKeywords(normB)
	if len(keywordsA) == 0 || len(keywordsB) == 0 {
		return 0
	}

	setA := keywordSet(keywordsA)
	setB := keywordSet(keywordsB)

	exact := 0
	for k := range setA {
		if _, ok := setB[k]; ok {
			exact++
		}
	}
	total := len(setA)
	if len(setB) > total {
		total = len(setB)
	}
	required := total - 1
	if required < 1 {
		required = 1
	}
	if exact < required {
		return 0
	}

	qtyA := ExtractQuantity(normA)
	qtyB := ExtractQuantity(normB)
	quantitiesClose := quantitiesAreClose(qtyA.Quantity, qtyB.Quantity)

	if !quantitiesClose {
		return 0.6
	}

	score := 0.7 + 0.3*float64(exact)/float64(total)
	if len(keywordsA) > 0 && len(keywordsB) > 0 && keywordsA[0] == keywordsB[0] {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// quantitiesAreClose reports whether two quantities are within 10% relative
// difference, or both zero, per §4.1 step 3.
func quantitiesAreClose(a, b float64) bool {
	if a == 0 && b == 0 {
		return true
	}
	denom := a
	if b > a {
		denom = b
	}
	if denom == 0 {
		return false
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff/denom <= 0.10
}
