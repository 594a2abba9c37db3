// Package textnorm folds free text into the accent and case insensitive form
// used for every comparison in the suggestion engine.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s, strips combining marks and trims surrounding
// whitespace. Greek accented vowels map to their bare forms ("Καθαριότητα"
// becomes "καθαριοτητα"). The result is stable under repeated application.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// Lowering runs first: some lower-case mappings emit combining marks
	// (U+0130 -> "i̇") that must be stripped in the same pass.
	// Casers and chains carry state, so each call builds its own.
	t := transform.Chain(
		cases.Lower(language.Und),
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.TrimSpace(strings.ToLower(s))
	}
	return strings.TrimSpace(out)
}

// Fields normalizes s and splits it on whitespace.
func Fields(s string) []string {
	return strings.Fields(Normalize(s))
}
