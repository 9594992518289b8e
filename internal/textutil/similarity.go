package textutil

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Ratio returns the levenshtein similarity between two strings on a 0..1
// scale, case-insensitively. Identical strings score 1, fully different
// strings score 0.
func Ratio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	return levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
}

// PartialRatio returns the best similarity between the shorter string and any
// equal-length window of the longer one, on a 0..100 scale. A string fully
// contained in the other scores 100. This mirrors the partial-ratio scoring
// used for matching invoice numbers against statement descriptions, where the
// number is a small token inside a longer free-text line.
func PartialRatio(a, b string) float64 {
	shorter := []rune(strings.ToLower(a))
	longer := []rune(strings.ToLower(b))
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	if len(shorter) == 0 {
		return 0.0
	}
	if string(shorter) == string(longer) {
		return 100.0
	}

	best := 0.0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		window := longer[i : i+len(shorter)]
		r := levenshtein.RatioForStrings(shorter, window, levenshtein.DefaultOptions)
		if r > best {
			best = r
			if best == 1.0 {
				break
			}
		}
	}

	return best * 100.0
}
