// internal/interpreter/extractor.go
package interpreter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidLimit = errors.New("INVALID_LIMIT")

var (
	countryPattern = regexp.MustCompile(`(?:^|\s)in\s+(?:the\s+)?([a-z]+(?:\s[a-z]+)?)`)
	integerPattern = regexp.MustCompile(`\d+`)
)

// countryAliases maps lower-cased spellings to the names stored in invoices.country.
var countryAliases = map[string]string{
	"uk":             "United Kingdom",
	"united kingdom": "United Kingdom",
	"britain":        "United Kingdom",
	"great britain":  "United Kingdom",
	"england":        "United Kingdom",
	"us":             "USA",
	"usa":            "USA",
	"america":        "USA",
	"united states":  "USA",
	"france":         "France",
	"germany":        "Germany",
	"australia":      "Australia",
	"eire":           "EIRE",
	"ireland":        "EIRE",
}

// ExtractCountry returns the canonical country named after the word "in", skipping a
// leading "the". The one- or two-word phrase is tried against the alias table first,
// then its first word; anything else is title-cased and passed through unvalidated.
func ExtractCountry(text string) (string, bool) {
	m := countryPattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return "", false
	}

	phrase := m[1]
	if phrase == "the" {
		return "", false
	}

	if canonical, ok := countryAliases[phrase]; ok {
		return canonical, true
	}
	if first, _, found := strings.Cut(phrase, " "); found {
		if canonical, ok := countryAliases[first]; ok {
			return canonical, true
		}
	}

	return titleCase(phrase), true
}

// ExtractLimit returns the first integer literal in text, or def when there is none.
// A minus sign counts only when it starts a word, so "top-3" reads as 3.
func ExtractLimit(text string, def int) (int, error) {
	loc := integerPattern.FindStringIndex(text)
	if loc == nil {
		return def, nil
	}

	literal := text[loc[0]:loc[1]]
	if start := loc[0]; start > 0 && text[start-1] == '-' && (start == 1 || unicode.IsSpace(rune(text[start-2]))) {
		literal = "-" + literal
	}

	n, err := strconv.Atoi(literal)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidLimit, literal)
	}
	return n, nil
}

func titleCase(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
