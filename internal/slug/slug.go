// Package slug derives URL-safe identifiers from display names.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make lowercases s, folds accents to ASCII, drops anything that is not a
// letter, digit, underscore, hyphen or whitespace, and joins the remaining
// words with single hyphens. Leading and trailing hyphens and underscores
// are stripped. "Home & Garden" becomes "home-garden".
func Make(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case r > unicode.MaxASCII:
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	fields := strings.FieldsFunc(b.String(), func(r rune) bool {
		return r == ' ' || r == '-'
	})
	return strings.Trim(strings.Join(fields, "-"), "-_")
}
