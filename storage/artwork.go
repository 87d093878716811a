// Package storage keeps album artwork extracted from embedded tags.
package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"Atlas/config"
)

// ArtworkStore stores an image under key and returns its location.
type ArtworkStore interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (string, error)
}

// New 按配置选择封面存储后端
func New(ctx context.Context, cfg *config.Config) (ArtworkStore, error) {
	switch cfg.ArtworkBackend {
	case "", "local":
		return NewLocalArtworkStore(cfg.ArtworkDir)
	case "minio":
		return NewMinioArtworkStore(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			Region:    cfg.MinioRegion,
		})
	default:
		return nil, fmt.Errorf("unsupported ARTWORK_BACKEND %q", cfg.ArtworkBackend)
	}
}

// LocalArtworkStore 写入本地目录
type LocalArtworkStore struct {
	dir string
}

func NewLocalArtworkStore(dir string) (*LocalArtworkStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artwork directory: %w", err)
	}
	return &LocalArtworkStore{dir: dir}, nil
}

// Put writes <dir>/<key> and returns the absolute file path. A key without
// an extension gets one from the MIME type.
func (s *LocalArtworkStore) Put(_ context.Context, key string, data []byte, mimeType string) (string, error) {
	key, err := cleanKey(key, mimeType)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return dst, nil
}

func cleanKey(key, mimeType string) (string, error) {
	key = path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))[1:]
	if key == "" || key == "." {
		return "", fmt.Errorf("empty artwork key")
	}
	if path.Ext(key) == "" {
		if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
			key += exts[0]
		}
	}
	return key, nil
}
