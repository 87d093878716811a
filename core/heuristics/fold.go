package heuristics

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldName is the artist matching key: diacritics are removed and
// surrounding space trimmed, case is kept. "Beyoncé" and "Beyonce" fold to
// the same key, "ABBA" and "Abba" do not.
func FoldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		return strings.TrimSpace(name)
	}
	return folded
}
