package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"asenso-booking/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Client = fx.Module("minio.client", fx.Provide(registerClient, NewStore))

func registerClient(c *config.Config) (*minio.Client, error) {
	client, err := minio.New(c.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Minio.AccessKey, c.Minio.SecretKey, ""),
		Secure: c.Minio.Secure,
	})
	if err != nil {
		zap.L().Error("failed to create MinIO client", zap.Error(err))
		return nil, err
	}

	exists, err := client.BucketExists(context.Background(), c.Minio.BucketName)
	if err != nil {
		zap.L().Error("failed to check if bucket exists", zap.String("bucket", c.Minio.BucketName), zap.Error(err))
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), c.Minio.BucketName, minio.MakeBucketOptions{}); err != nil {
			zap.L().Error("failed to create bucket", zap.String("bucket", c.Minio.BucketName), zap.Error(err))
			return nil, err
		}
	}

	zap.L().Info("MinIO client initialized", zap.String("endpoint", c.Minio.Endpoint), zap.Bool("bucketExists", exists))
	return client, nil
}

// Store keeps booking attachments in a single bucket.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewStore(client *minio.Client, c *config.Config) *Store {
	publicURL := c.Minio.PublicURL
	if publicURL == "" {
		scheme := "http"
		if c.Minio.Secure {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, c.Minio.Endpoint)
	}

	return &Store{
		client:    client,
		bucket:    c.Minio.BucketName,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Put uploads r under key and returns the object URL.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	zap.L().Debug("object stored", zap.String("bucket", info.Bucket), zap.String("key", info.Key), zap.Int64("size", info.Size))
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key), nil
}
