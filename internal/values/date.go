package values

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"invoice-reconciliation-service/internal/textutil"
)

// dateLayouts is the ordered list of explicit layouts tried before any
// loose fallback. Day-first numeric forms come first because the documents
// this service targets favor French conventions; ISO year-first forms follow,
// then English month-name forms (Go matches month names case-insensitively).
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// monthNames maps normalized (accent-stripped, lowercase) month names to
// their month number, in French and English. Abbreviations are resolved by
// unambiguous prefix: "janv" and "juil" work, "jui" does not.
var monthNames = map[string]time.Month{
	"janvier":   time.January,
	"fevrier":   time.February,
	"mars":      time.March,
	"avril":     time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"aout":      time.August,
	"septembre": time.September,
	"octobre":   time.October,
	"novembre":  time.November,
	"decembre":  time.December,
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// monthNamePattern matches "15 janvier 2023" style tokens in any language
// whose month names are alphabetic.
var monthNamePattern = regexp.MustCompile(`^(\d{1,2})\s+(\p{L}+)\.?\s+(\d{4})$`)

// looseDatePattern is the last-resort day/month/year form accepting slash,
// dash, dot, or whitespace separators and two- or four-digit years.
var looseDatePattern = regexp.MustCompile(`^(\d{1,2})[\s/.\-]+(\d{1,2})[\s/.\-]+(\d{2,4})$`)

// ParseDate extracts a calendar date from text, trying explicit day-first and
// year-first layouts (numeric and month-name forms, French and English)
// before a loose day/month/year fallback. The result is normalized to
// midnight UTC. Returns nil when nothing matches; out-of-range components
// (month 13, day 32) fail to nil rather than being silently accepted.
func ParseDate(text string) *time.Time {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return datePtr(t.Year(), t.Month(), t.Day())
		}
	}

	if t := parseMonthNameDate(s); t != nil {
		return t
	}

	return parseLooseDate(s)
}

// parseMonthNameDate handles "<day> <month-name> <year>" forms for the
// locales Go's layouts do not cover.
func parseMonthNameDate(s string) *time.Time {
	m := monthNamePattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}

	month, ok := resolveMonthName(m[2])
	if !ok {
		return nil
	}

	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])

	return validDate(year, month, day)
}

// resolveMonthName looks a normalized month token up by exact name, then by
// unambiguous prefix of at least three characters.
func resolveMonthName(token string) (time.Month, bool) {
	name := strings.ToLower(textutil.StripAccents(token))
	if month, ok := monthNames[name]; ok {
		return month, true
	}

	if len(name) < 3 {
		return 0, false
	}

	var found time.Month
	matches := 0
	for full, month := range monthNames {
		if strings.HasPrefix(full, name) {
			if matches == 0 || month != found {
				matches++
			}
			found = month
		}
	}
	if matches == 1 {
		return found, true
	}
	return 0, false
}

// parseLooseDate handles day/month/year with mixed separators and two-digit
// years, validating component ranges explicitly.
func parseLooseDate(s string) *time.Time {
	m := looseDatePattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}

	return validDate(year, time.Month(month), day)
}

// validDate builds a midnight-UTC date and rejects out-of-range components.
// time.Date normalizes overflow (month 13 becomes January of the next year),
// so the round-trip check catches what the constructor will not.
func validDate(year int, month time.Month, day int) *time.Time {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return nil
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return nil
	}

	return &t
}

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
