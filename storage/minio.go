package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"Atlas/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions MinIO 连接参数
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// MinioArtworkStore 上传到 MinIO 存储桶
type MinioArtworkStore struct {
	client *minio.Client
	bucket string
}

// NewMinioArtworkStore connects and makes sure the bucket exists.
func NewMinioArtworkStore(ctx context.Context, opts MinioOptions) (*MinioArtworkStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}
	s := &MinioArtworkStore{client: client, bucket: opts.Bucket}
	if err := s.EnsureBucket(ctx, opts.Region); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureBucket 检查存储桶，不存在则创建
func (s *MinioArtworkStore) EnsureBucket(ctx context.Context, region string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	logger.Info("created artwork bucket", logger.String("bucket", s.bucket))
	return nil
}

// Put uploads the image and returns minio://bucket/key.
func (s *MinioArtworkStore) Put(ctx context.Context, key string, data []byte, mimeType string) (string, error) {
	key, err := cleanKey(key, mimeType)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("上传封面失败 %s: %w", key, err)
	}
	return fmt.Sprintf("minio://%s/%s", s.bucket, key), nil
}
