// Package heuristics recovers track titles, positions and genres from file
// names and noisy tags. Every function here is pure.
package heuristics

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// A leading track number is one to three digits followed by separators
	// or the end of the name. "1984.mp3" is a title, not track 198.
	reLeadingTrackNum = regexp.MustCompile(`^(\d{1,3})(?:[\s._)\]-]+|$)`)
	reSpaces          = regexp.MustCompile(`\s+`)
)

const leadingSeparators = " \t-_.)]"

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DeriveTitle cleans a file name into a display title. Occurrences of artist
// and album standing as separate words are removed (album is tried again
// lower-cased), then the leading track number and any dash separators. A
// title track that would vanish entirely is cleaned without the removals;
// when nothing is left at all the bare stem is returned.
func DeriveTitle(filename, artist, album string) string {
	s := stem(filename)

	stripped := removeWord(s, artist)
	stripped = removeWord(stripped, album)
	stripped = removeWord(stripped, strings.ToLower(album))

	if t := cleanTitle(stripped); t != "" {
		return t
	}
	if t := cleanTitle(s); t != "" {
		return t
	}
	return strings.TrimSpace(s)
}

func cleanTitle(s string) string {
	s = strings.TrimLeft(s, leadingSeparators)
	s = reLeadingTrackNum.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " - ", " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if strings.Trim(w, "-") == "" {
			continue
		}
		kept = append(kept, w)
	}
	s = strings.TrimSpace(reSpaces.ReplaceAllString(strings.Join(kept, " "), " "))
	return strings.Trim(s, "-_ ")
}

// removeWord deletes every exact occurrence of sub that is not glued to a
// letter or digit on either side, so album "B" leaves "Broken" alone.
func removeWord(s, sub string) string {
	if sub == "" {
		return s
	}
	var b strings.Builder
	start, from := 0, 0
	for {
		i := strings.Index(s[from:], sub)
		if i < 0 {
			break
		}
		i += from
		end := i + len(sub)
		if standsAlone(s, i, end) {
			b.WriteString(s[start:i])
			start, from = end, end
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		from = i + size
	}
	b.WriteString(s[start:])
	return b.String()
}

func standsAlone(s string, i, end int) bool {
	if i > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:i]); isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

// DerivePosition extracts the leading track number of a file name. The bool
// is false when the name carries no number; "0" and "00" are an explicit
// zero.
func DerivePosition(filename string) (uint, bool) {
	m := reLeadingTrackNum.FindStringSubmatch(strings.TrimSpace(stem(filename)))
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}
