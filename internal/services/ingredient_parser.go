package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/foxxcyber/bubblegut/internal/models"
)

// Leading amount: a decimal ("2", "1.5") or a simple fraction ("1/2"), then
// whitespace. The class is the same set as isIngredientSpace.
var quantityPattern = regexp.MustCompile(`^(\d+(\.\d+)?|\d+/\d+)[\s\p{Z}\x{85}\v\x{FEFF}]+`)

// Recognized measurement units. Lookups use the lowercased word.
var ingredientUnits = map[string]struct{}{
	"tsp":      {},
	"tbsp":     {},
	"cup":      {},
	"cups":     {},
	"oz":       {},
	"ounce":    {},
	"ounces":   {},
	"lb":       {},
	"lbs":      {},
	"pound":    {},
	"pounds":   {},
	"g":        {},
	"kg":       {},
	"ml":       {},
	"l":        {},
	"clove":    {},
	"cloves":   {},
	"pinch":    {},
	"dash":     {},
	"can":      {},
	"cans":     {},
	"slice":    {},
	"slices":   {},
	"package":  {},
	"packages": {},
}

func isIngredientUnit(word string) bool {
	_, ok := ingredientUnits[strings.ToLower(word)]
	return ok
}

// isIngredientSpace reports Unicode white space plus the byte order mark,
// which editors leave at the start of pasted text
func isIngredientSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

func trimIngredientSpace(s string) string {
	return strings.TrimFunc(s, isIngredientSpace)
}

// SplitIngredientLines breaks free text into trimmed, non-empty lines
func SplitIngredientLines(text string) []string {
	lines := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = trimIngredientSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ParseIngredientsText parses every non-empty line of text. Line numbers start at 1.
func ParseIngredientsText(text string) []models.ParsedIngredient {
	lines := SplitIngredientLines(text)
	items := make([]models.ParsedIngredient, 0, len(lines))
	for i, line := range lines {
		items = append(items, ParseIngredientLine(line, i+1))
	}
	return items
}

// ParseIngredientLine interprets a single trimmed line
func ParseIngredientLine(raw string, lineNo int) models.ParsedIngredient {
	item := models.ParsedIngredient{
		LineNo:  lineNo,
		RawLine: raw,
	}

	remaining := raw

	// Step 1: Extract quantity
	remaining, item.Quantity = extractIngredientQuantity(remaining)

	// Step 2: Extract unit
	remaining, item.Unit = extractIngredientUnit(remaining)

	// Step 3: Split item name and notes
	item.ItemName, item.Notes = extractItemAndNotes(remaining, raw)

	item.Confidence = ingredientConfidence(item)

	return item
}

// extractIngredientQuantity consumes a leading amount token. The returned
// remainder is trimmed.
func extractIngredientQuantity(s string) (string, *float64) {
	loc := quantityPattern.FindStringSubmatchIndex(s)
	if loc == nil {
		return s, nil
	}

	token := s[loc[2]:loc[3]]
	rest := trimIngredientSpace(s[loc[1]:])

	// A malformed fraction such as "1/0" still consumes its token; the
	// quantity is simply reported as absent and raw_line keeps the original.
	if num, denom, ok := strings.Cut(token, "/"); ok {
		n, okN := parseFiniteFloat(num)
		d, okD := parseFiniteFloat(denom)
		if !okN || !okD || d == 0 {
			return rest, nil
		}
		q := n / d
		if math.IsInf(q, 0) || math.IsNaN(q) {
			return rest, nil
		}
		return rest, &q
	}

	q, ok := parseFiniteFloat(token)
	if !ok {
		return rest, nil
	}
	return rest, &q
}

func parseFiniteFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// extractIngredientUnit removes the first word when it is a known unit
func extractIngredientUnit(s string) (string, *string) {
	words := strings.FieldsFunc(s, isIngredientSpace)
	if len(words) == 0 || !isIngredientUnit(words[0]) {
		return s, nil
	}

	unit := strings.ToLower(words[0])
	return strings.Join(words[1:], " "), &unit
}

// extractItemAndNotes splits on the first comma. Without a comma, notes come
// from phrases found anywhere in the original line.
func extractItemAndNotes(remaining, raw string) (*string, *string) {
	if before, after, ok := strings.Cut(remaining, ","); ok {
		return nonEmpty(before), nonEmpty(after)
	}

	lower := strings.ToLower(raw)
	notes := ""
	if strings.Contains(lower, "to taste") {
		notes = "to taste"
	}
	if strings.Contains(lower, "optional") {
		if notes != "" {
			notes += "; optional"
		} else {
			notes = "optional"
		}
	}

	return nonEmpty(remaining), nonEmpty(notes)
}

// ingredientConfidence scores completeness in tenths so results are exact
func ingredientConfidence(item models.ParsedIngredient) float64 {
	tenths := 5
	if item.Quantity != nil {
		tenths += 2
	}
	if item.Unit != nil {
		tenths += 2
	}
	if item.ItemName != nil && *item.ItemName != "" {
		tenths++
	}
	if tenths > 10 {
		tenths = 10
	}
	return float64(tenths) / 10
}

func nonEmpty(s string) *string {
	s = trimIngredientSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
