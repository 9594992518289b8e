// Package values provides locale-tolerant parsing of monetary amounts and
// dates from free text into canonical values.
//
// Financial documents in the wild mix French and English conventions:
// "1 234,56", "1.234,56" and "1,234.56" all denote the same amount, and dates
// appear as "05/12/2024", "2024-12-05" or "15 janvier 2023". The parsers in
// this package normalize all of these; when nothing recognizable is found
// they return nil rather than an error, because absence of a value is a
// normal state for the heuristics built on top.
package values

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountScale is the fixed decimal scale of all parsed amounts.
const AmountScale = 2

// amountPattern matches an optional sign, an integer part that may use
// thousands separators (space, dot, or comma), and an optional two-digit
// fraction after a final dot or comma. The grouped alternative is tried
// before the plain digit run so "1.234,56" binds the dot as a thousands
// separator, not a decimal point.
var amountPattern = regexp.MustCompile(`([+-]?)\s*(\d{1,3}(?:[., ]\d{3})+|\d+)(?:[.,](\d{2}))?`)


// ParseAmount extracts the first monetary amount from text. The result is
// normalized to two decimal places with round-half-up; a leading minus sign
// negates it. Returns nil when no numeric pattern is present.
func ParseAmount(text string) *decimal.Decimal {
	t := normalizeSpaces(text)
	if t == "" {
		return nil
	}

	m := amountPattern.FindStringSubmatch(t)
	if m == nil {
		return nil
	}

	intPart := strings.NewReplacer(".", "", ",", "", " ", "").Replace(m[2])
	raw := intPart
	if m[3] != "" {
		raw = intPart + "." + m[3]
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}

	value = value.Round(AmountScale)
	if m[1] == "-" {
		value = value.Neg()
	}

	return &value
}

// FindAmounts extracts every amount-looking token from text, in document
// order. Used by the invoice total fallback that picks the maximum figure on
// the page.
func FindAmounts(text string) []decimal.Decimal {
	t := normalizeSpaces(text)
	if t == "" {
		return nil
	}

	var amounts []decimal.Decimal
	for _, m := range amountPattern.FindAllStringSubmatch(t, -1) {
		if a := ParseAmount(m[0]); a != nil {
			amounts = append(amounts, *a)
		}
	}

	return amounts
}

// normalizeSpaces replaces narrow and no-break spaces with regular spaces,
// so space-grouped French amounts parse regardless of which space variant
// the document uses.
func normalizeSpaces(text string) string {
	t := strings.NewReplacer("\u202f", " ", "\u00a0", " ").Replace(text)
	return strings.TrimSpace(t)
}
