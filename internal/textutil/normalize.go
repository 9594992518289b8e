// Package textutil provides the text normalization and string similarity
// primitives shared by field extraction, column-role detection, and match
// scoring.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentStripper decomposes characters and removes the combining marks,
// leaving base characters ("Libellé" becomes "Libelle").
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// StripAccents removes diacritical marks from text, leaving base characters.
func StripAccents(text string) string {
	stripped, _, err := transform.String(accentStripper, text)
	if err != nil {
		return text
	}
	return stripped
}

// StandardizeHeader produces the comparison key used for column-role
// detection: accent-stripped, lower-cased, with non-alphanumeric runs
// collapsed to single spaces and the result trimmed.
func StandardizeHeader(text string) string {
	key := strings.ToLower(StripAccents(text))
	key = nonAlphanumeric.ReplaceAllString(key, " ")
	return strings.TrimSpace(key)
}
