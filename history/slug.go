package history

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	output, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return output
}

// Slug normalises a profile or metric name for use in IDs and file names:
// accents are dropped, letters lowercased and every other run of characters
// collapsed to a single '-'. "Mildiú Pulverulento t+7" becomes
// "mildiu-pulverulento-t-7".
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(removeAccents(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
