package files

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds connection settings for an S3-compatible server.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStorage keeps uploads as objects in a MinIO (or any S3-compatible) bucket.
// Object keys are the same relative paths the local backend uses.
type MinioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinioStorage connects to the server and creates the bucket if it is missing.
func NewMinioStorage(ctx context.Context, cfg MinioConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &MinioStorage{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads data under a generated key in dir.
func (s *MinioStorage) Put(ctx context.Context, dir string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("file data cannot be empty")
	}

	key, err := newObjectName(dir, data)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = Detect(data).MIME
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}
	return key, nil
}

// Open downloads an object.
func (s *MinioStorage) Open(ctx context.Context, p string) ([]byte, string, error) {
	key, err := cleanPath(p)
	if err != nil {
		return nil, "", err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", s.mapError(err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, "", s.mapError(err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", s.mapError(err)
	}
	return data, info.ContentType, nil
}

// Delete removes an object. MinIO treats removing a missing key as success.
func (s *MinioStorage) Delete(ctx context.Context, p string) error {
	key, err := cleanPath(p)
	if err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func (s *MinioStorage) mapError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrNotFound
	}
	return err
}
