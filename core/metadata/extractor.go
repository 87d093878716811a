package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"Atlas/core/heuristics"
	"Atlas/logger"
	"Atlas/model"

	"github.com/dhowden/tag"
	"github.com/go-flac/go-flac/v2"
	"github.com/hajimehoshi/go-mp3"
)

// Extractor reads a TagRecord from an absolute path. typ is the type of the
// library the file was found in.
type Extractor interface {
	Extract(path string, typ model.LibraryType) (TagRecord, error)
}

// TagExtractor is the Extractor backed by dhowden/tag, with durations probed
// from the audio stream for MP3 and FLAC.
type TagExtractor struct {
	// SkipPictures drops embedded artwork to save memory during large scans.
	SkipPictures bool
}

func NewTagExtractor() *TagExtractor {
	return &TagExtractor{}
}

// Extract 读取标签；没有标签的文件不算失败，只返回未设置的字段
func (e *TagExtractor) Extract(path string, typ model.LibraryType) (TagRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return TagRecord{}, fmt.Errorf("%s: %v: %w", path, err, model.ErrExtractionFailed)
	}
	defer f.Close()

	var rec TagRecord
	m, err := tag.ReadFrom(f)
	switch {
	case err == nil:
		rec = e.fromTags(m, typ)
	case errors.Is(err, tag.ErrNoTagsFound):
		logger.Debug("no tags found", logger.String("path", path))
	default:
		return TagRecord{}, fmt.Errorf("%s: %v: %w", path, err, model.ErrExtractionFailed)
	}

	if !rec.Duration.Valid {
		if secs, err := probeDuration(path, f); err != nil {
			logger.Debug("duration probe failed", logger.String("path", path), logger.ErrorField(err))
		} else if secs > 0 {
			rec.Duration = set(secs)
		}
	}
	return rec, nil
}

func (e *TagExtractor) fromTags(m tag.Metadata, typ model.LibraryType) TagRecord {
	rec := TagRecord{
		Title:       known(strings.TrimSpace(m.Title())),
		Artist:      known(strings.TrimSpace(m.Artist())),
		AlbumArtist: known(strings.TrimSpace(m.AlbumArtist())),
		Album:       known(strings.TrimSpace(m.Album())),
		Year:        known(m.Year()),
		Genres:      heuristics.SplitGenres(m.Genre()),
	}

	if n, _ := m.Track(); n > 0 {
		rec.Position = set(n)
	}
	if d, _ := m.Disc(); d > 0 {
		rec.Disc = set(d)
	}

	raw := m.Raw()
	if ms, ok := rawInt(raw, "tlen"); ok && ms > 0 {
		rec.Duration = set(ms / 1000)
	}

	rec.Description = known(strings.TrimSpace(m.Lyrics()))
	if typ == model.LibraryAudiobook || typ == model.LibraryPodcast {
		if c := strings.TrimSpace(m.Comment()); c != "" {
			rec.Description = set(c)
		}
		if n, ok := rawString(raw, "narrator"); ok {
			rec.Narrator = set(n)
		} else {
			rec.Narrator = known(strings.TrimSpace(m.Composer()))
		}
	}

	if p := m.Picture(); p != nil && !e.SkipPictures && len(p.Data) > 0 {
		rec.Picture = &Picture{MIMEType: p.MIMEType, Ext: p.Ext, Data: p.Data}
	}
	return rec
}

// rawString looks a key up case-insensitively among the raw frames.
func rawString(raw map[string]interface{}, key string) (string, bool) {
	for k, v := range raw {
		if !strings.EqualFold(k, key) {
			continue
		}
		var s string
		switch val := v.(type) {
		case string:
			s = val
		case *tag.Comm:
			s = val.Text
		case fmt.Stringer:
			s = val.String()
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	return "", false
}

func rawInt(raw map[string]interface{}, key string) (int, bool) {
	s, ok := rawString(raw, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func probeDuration(path string, f *os.File) (int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		ff, err := flac.ParseFile(path)
		if err != nil {
			return 0, fmt.Errorf("parse flac: %w", err)
		}
		defer ff.Close()
		info, err := ff.GetStreamInfo()
		if err != nil {
			return 0, fmt.Errorf("flac stream info: %w", err)
		}
		if info.SampleRate == 0 {
			return 0, nil
		}
		return int(info.SampleCount / int64(info.SampleRate)), nil
	case ".mp3":
		if _, err := f.Seek(0, 0); err != nil {
			return 0, err
		}
		d, err := mp3.NewDecoder(f)
		if err != nil {
			return 0, fmt.Errorf("mp3 decoder: %w", err)
		}
		// 16-bit stereo PCM: four bytes per sample
		const sampleSize = 4
		if d.SampleRate() == 0 || d.Length() <= 0 {
			return 0, nil
		}
		return int(d.Length() / sampleSize / int64(d.SampleRate())), nil
	}
	return 0, nil
}
