package metadata

import (
	"path/filepath"
	"strings"
)

// Kind is what the indexer does with a directory entry.
type Kind int

const (
	KindSkip Kind = iota
	KindAudio
	KindImage
)

var audioExts = map[string]struct{}{
	".mp3": {}, ".flac": {}, ".ogg": {}, ".oga": {}, ".opus": {},
	".m4a": {}, ".m4b": {}, ".mp4": {}, ".aac": {}, ".alac": {},
	".wav": {}, ".aiff": {}, ".aif": {}, ".wma": {}, ".ape": {}, ".wv": {},
}

var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".bmp": {},
}

// Classify 根据扩展名判断文件类型，隐藏文件一律跳过
func Classify(name string) Kind {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return KindSkip
	}
	ext := strings.ToLower(filepath.Ext(base))
	if _, ok := audioExts[ext]; ok {
		return KindAudio
	}
	if _, ok := imageExts[ext]; ok {
		return KindImage
	}
	return KindSkip
}

// IsAudio reports whether name has an audio extension.
func IsAudio(name string) bool { return Classify(name) == KindAudio }

// coverNames are preferred over other images in an album directory.
var coverNames = []string{"cover", "folder", "front", "album", "albumart"}

// CoverRank orders candidate album images: lower is better, and images with
// no well-known name rank last.
func CoverRank(name string) int {
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	for i, c := range coverNames {
		if stem == c {
			return i
		}
	}
	return len(coverNames)
}
