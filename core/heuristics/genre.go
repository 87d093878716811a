package heuristics

import "strings"

// genreAliases folds composite or legacy labels, already lower-cased and
// hyphenated, onto one short canonical label.
var genreAliases = map[string]string{
	"alternative/indie":         "indie",
	"indie/alternative":         "indie",
	"alternative-&-indie":       "indie",
	"rap-&-hip-hop":             "hip-hop",
	"hip-hop/rap":               "hip-hop",
	"rap/hip-hop":               "hip-hop",
	"hiphop":                    "hip-hop",
	"r&b/soul":                  "r&b",
	"rhythm-and-blues":          "r&b",
	"electronic/dance":          "electronic",
	"dance/electronic":          "electronic",
	"electronica":               "electronic",
	"singer/songwriter":         "singer-songwriter",
	"christian-&-gospel":        "gospel",
	"sci-fi-&-fantasy":          "science-fiction",
	"science-fiction-&-fantasy": "science-fiction",
	"sci-fi":                    "science-fiction",
	"audiobook":                 "audiobooks",
	"speech":                    "spoken-word",
}

// NormalizeGenre lower-cases raw, turns whitespace runs into hyphens and
// applies the alias table.
func NormalizeGenre(raw string) string {
	g := strings.Join(strings.Fields(strings.ToLower(raw)), "-")
	if alias, ok := genreAliases[g]; ok {
		return alias
	}
	return g
}

// SplitGenres splits a raw tag on the separators taggers commonly use and
// normalizes each part, dropping empties and duplicates.
func SplitGenres(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == ',' || r == '\x00' })
	var out []string
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		g := NormalizeGenre(p)
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
