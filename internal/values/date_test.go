package values

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{"french slashes", "05/12/2024", time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)},
		{"french slashes unpadded", "5/12/2024", time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)},
		{"iso", "2024-12-05", time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)},
		{"dashes day first", "05-12-2024", time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)},
		{"dots day first", "5.12.2024", time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)},
		{"french month name", "15 janvier 2023", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"french month name accented", "1 février 2023", time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"french month abbreviation", "15 juil 2023", time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC)},
		{"english month name", "15 January 2023", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"english month first", "January 15, 2023", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"two digit year", "05/12/24", time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)},
		{"datetime", "2024-12-05 13:45:00", time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)},
		{"surrounding whitespace", "  05/12/2024  ", time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseDate(tt.input)
			if result == nil {
				t.Fatalf("ParseDate(%q) = nil, expected %s", tt.input, tt.expected.Format("2006-01-02"))
			}
			if !result.Equal(tt.expected) {
				t.Errorf("ParseDate(%q) = %s, expected %s",
					tt.input, result.Format("2006-01-02"), tt.expected.Format("2006-01-02"))
			}
		})
	}
}

func TestParseDateInvalid(t *testing.T) {
	inputs := []string{
		"",
		"not a date",
		"13/13/2024", // month out of range
		"32/01/2024", // day out of range
		"30/02/2024", // no such calendar day
		"15 jui 2023", // ambiguous prefix: juin or juillet
		"15 xyzmonth 2023",
	}

	for _, input := range inputs {
		if result := ParseDate(input); result != nil {
			t.Errorf("ParseDate(%q) = %s, expected nil", input, result.Format("2006-01-02"))
		}
	}
}

func TestParseDateMidnightUTC(t *testing.T) {
	result := ParseDate("2024-12-05 13:45:00")
	if result == nil {
		t.Fatal("Expected a date")
	}
	if result.Hour() != 0 || result.Minute() != 0 || result.Location() != time.UTC {
		t.Errorf("Expected midnight UTC, got %s", result)
	}
}

func TestResolveMonthName(t *testing.T) {
	tests := []struct {
		token    string
		expected time.Month
		ok       bool
	}{
		{"janvier", time.January, true},
		{"Février", time.February, true},
		{"mar", time.March, true}, // mars and march agree on the month
		{"jui", 0, false},         // juin vs juillet
		{"juil", time.July, true},
		{"sept", time.September, true},
		{"xx", 0, false},
	}

	for _, tt := range tests {
		month, ok := resolveMonthName(tt.token)
		if ok != tt.ok {
			t.Errorf("resolveMonthName(%q) ok = %v, expected %v", tt.token, ok, tt.ok)
			continue
		}
		if ok && month != tt.expected {
			t.Errorf("resolveMonthName(%q) = %v, expected %v", tt.token, month, tt.expected)
		}
	}
}
