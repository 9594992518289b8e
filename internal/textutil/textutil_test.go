package textutil

import "testing"

func TestStripAccents(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Libellé", "Libelle"},
		{"Débit", "Debit"},
		{"février", "fevrier"},
		{"reçu", "recu"},
		{"plain ascii", "plain ascii"},
		{"", ""},
	}

	for _, tt := range tests {
		if result := StripAccents(tt.input); result != tt.expected {
			t.Errorf("StripAccents(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestStandardizeHeader(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Date", "date"},
		{" Libellé ", "libelle"},
		{"Date_Opération", "date operation"},
		{"Montant (EUR)", "montant eur"},
		{"DEBIT", "debit"},
		{"   ", ""},
	}

	for _, tt := range tests {
		if result := StandardizeHeader(tt.input); result != tt.expected {
			t.Errorf("StandardizeHeader(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestRatio(t *testing.T) {
	if r := Ratio("date", "date"); r != 1.0 {
		t.Errorf("Expected identical strings to score 1.0, got %f", r)
	}
	if r := Ratio("Date", "date"); r != 1.0 {
		t.Errorf("Expected case-insensitive match to score 1.0, got %f", r)
	}
	if r := Ratio("", "date"); r != 0.0 {
		t.Errorf("Expected empty string to score 0.0, got %f", r)
	}

	// Near misses score high, unrelated strings low.
	if r := Ratio("libelle", "libellle"); r < 0.85 {
		t.Errorf("Expected near-identical strings to clear 0.85, got %f", r)
	}
	if r := Ratio("date", "montant"); r > 0.5 {
		t.Errorf("Expected unrelated strings to score low, got %f", r)
	}
}

func TestPartialRatio(t *testing.T) {
	// A token fully contained in a longer string scores 100.
	if r := PartialRatio("INV-123", "VIR SEPA INV-123 PAYMENT"); r != 100.0 {
		t.Errorf("Expected contained token to score 100, got %f", r)
	}

	if r := PartialRatio("inv-123", "INV-123"); r != 100.0 {
		t.Errorf("Expected case-insensitive identity to score 100, got %f", r)
	}

	if r := PartialRatio("", "anything"); r != 0.0 {
		t.Errorf("Expected empty input to score 0, got %f", r)
	}

	partial := PartialRatio("INV-123", "VIR INV-124")
	if partial <= 0 || partial >= 100 {
		t.Errorf("Expected a partial score in (0, 100), got %f", partial)
	}
}
