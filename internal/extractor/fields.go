package extractor

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"invoice-reconciliation-service/internal/values"
)

// headingPattern marks the start of a new invoice section. Accented and
// plain spellings of the French words are both accepted because the text
// often comes out of lossy PDF extraction.
var headingPattern = regexp.MustCompile(`(?i)^\s*(facture|invoice|receipt|re[cç]u)\b`)

// numberPatterns is the ordered cascade for the invoice number. Labeled
// forms win over bare reference forms; the first match anywhere in the
// section is taken.
var numberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:facture|invoice|receipt|re[cç]u)\s*(?:n[o°]?\.?|num[ée]ro|number|no\.?)?\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9\-/]*)`),
	regexp.MustCompile(`(?i)\bn[o°]\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9\-/]*)`),
	regexp.MustCompile(`(?i)\bref(?:erence)?\.?\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9\-/]*)`),
}

// dateLabelPattern captures the remainder of a line after a date label.
var dateLabelPattern = regexp.MustCompile(`(?i)\bdate\b(?:\s+(?:de\s+facturation|d.[ée]mission|of\s+issue))?\s*:?\s*(.+)`)

// dateTokenPattern finds date-shaped tokens anywhere in a line, numeric or
// month-name forms, for the label-less fallback scan.
var dateTokenPattern = regexp.MustCompile(`\d{4}[/.\-]\d{1,2}[/.\-]\d{1,2}|\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}|\d{1,2}\s+\p{L}+\.?\s+\d{4}`)

// totalPatterns is the ordered cascade for the invoice total, from the most
// specific labels to a bare "total". Each captures the rest of the line.
var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btotal\s*t\.?t\.?c\.?\b\s*:?\s*(.+)`),
	regexp.MustCompile(`(?i)\bmontant\s*(?:total|d[uû])\b\s*:?\s*(.+)`),
	regexp.MustCompile(`(?i)\btotal\s*amount\b\s*:?\s*(.+)`),
	regexp.MustCompile(`(?i)\bamount\s*due\b\s*:?\s*(.+)`),
	regexp.MustCompile(`(?i)\bnet\s*[àa]\s*payer\b\s*:?\s*(.+)`),
	regexp.MustCompile(`(?i)\btotal\b\s*:?\s*(.+)`),
}

// currencyMarkerPattern detects euro markers. Detection is informational
// only; the service is single-currency.
var currencyMarkerPattern = regexp.MustCompile(`(?i)€|\beuros?\b|\bEUR\b`)

// findInvoiceNumber runs the number cascade over the section. Candidates must
// carry at least one digit so a label followed by prose is not mistaken for a
// reference.
func findInvoiceNumber(section string) *string {
	for _, pattern := range numberPatterns {
		for _, m := range pattern.FindAllStringSubmatch(section, -1) {
			candidate := strings.Trim(m[1], ":#-/. ")
			if candidate == "" || !strings.ContainsAny(candidate, "0123456789") {
				continue
			}
			return &candidate
		}
	}
	return nil
}

// findInvoiceDate prefers a date on a labeled line, then falls back to the
// first date-shaped token anywhere in the section.
func findInvoiceDate(section string) *time.Time {
	lines := strings.Split(section, "\n")

	for _, line := range lines {
		m := dateLabelPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if d := parseDateFromLine(m[1]); d != nil {
			return d
		}
	}

	for _, line := range lines {
		if d := parseDateFromLine(line); d != nil {
			return d
		}
	}

	return nil
}

// parseDateFromLine tries the whole trimmed line first, then each date-shaped
// token it contains.
func parseDateFromLine(line string) *time.Time {
	if d := values.ParseDate(line); d != nil {
		return d
	}
	for _, token := range dateTokenPattern.FindAllString(line, -1) {
		if d := values.ParseDate(token); d != nil {
			return d
		}
	}
	return nil
}

// findTotalAmount runs the total-label cascade line by line. When no label
// yields an amount, the maximum figure in the section is taken, on the
// assumption that the grand total is the largest number on an invoice.
func findTotalAmount(section string) *decimal.Decimal {
	lines := strings.Split(section, "\n")

	for _, pattern := range totalPatterns {
		for _, line := range lines {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if a := values.ParseAmount(m[1]); a != nil {
				return a
			}
		}
	}

	var best *decimal.Decimal
	for _, a := range values.FindAmounts(section) {
		if best == nil || a.GreaterThan(*best) {
			amount := a
			best = &amount
		}
	}
	return best
}

// findParties picks the supplier and customer names from the section header.
// The supplier is the first mostly-uppercase line, the customer the next
// distinct one; heading lines and label lines never qualify.
func findParties(section string, minUppercaseRatio float64) (supplier, customer *string) {
	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || headingPattern.MatchString(trimmed) {
			continue
		}
		if !isPartyCandidate(trimmed, minUppercaseRatio) {
			continue
		}

		if supplier == nil {
			name := trimmed
			supplier = &name
			continue
		}
		if trimmed != *supplier {
			name := trimmed
			customer = &name
			return supplier, customer
		}
	}
	return supplier, customer
}

// isPartyCandidate reports whether a line looks like a party name: at least
// three letters, most of them uppercase, and not dominated by digits.
func isPartyCandidate(line string, minUppercaseRatio float64) bool {
	letters, upper, digits := 0, 0, 0
	for _, r := range line {
		switch {
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		case unicode.IsDigit(r):
			digits++
		}
	}

	if letters < 3 || digits > letters {
		return false
	}
	return float64(upper)/float64(letters) >= minUppercaseRatio
}

// hasCurrencyMarker reports whether the section carries a euro marker.
func hasCurrencyMarker(section string) bool {
	return currencyMarkerPattern.MatchString(section)
}
