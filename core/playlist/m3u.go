package playlist

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// M3UEntry is one track reference of an M3U playlist.
type M3UEntry struct {
	Path     string // absolute and cleaned
	Title    string // from #EXTINF, may be empty
	Duration int    // seconds from #EXTINF, -1 when unknown
}

// ParseM3U reads M3U/M3U8 entries. Relative entries resolve against
// baseDir; comment and directive lines are skipped except #EXTINF, which
// annotates the entry that follows it.
func ParseM3U(r io.Reader, baseDir string) ([]M3UEntry, error) {
	var (
		entries []M3UEntry
		pending = M3UEntry{Duration: -1}
	)
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimRight(scanner.Text(), "\r"))
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if info, ok := strings.CutPrefix(line, "#EXTINF:"); ok {
				pending.Duration, pending.Title = parseExtInf(info)
			}
			continue
		}

		path := filepath.FromSlash(strings.ReplaceAll(line, `\`, "/"))
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		pending.Path = filepath.Clean(path)
		entries = append(entries, pending)
		pending = M3UEntry{Duration: -1}
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read m3u: %w", err)
	}
	return entries, nil
}

// parseExtInf splits "123,Artist - Title".
func parseExtInf(s string) (int, string) {
	durStr, title, _ := strings.Cut(s, ",")
	// attributes may follow the duration: -1 tvg-id="x"
	if i := strings.IndexAny(durStr, " \t"); i >= 0 {
		durStr = durStr[:i]
	}
	d, err := strconv.Atoi(strings.TrimSpace(durStr))
	if err != nil {
		d = -1
	}
	return d, strings.TrimSpace(title)
}
