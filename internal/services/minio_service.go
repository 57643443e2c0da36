package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"timetracker/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore keeps rendered employee codes so they can be downloaded later.
type ObjectStore interface {
	PutPNG(ctx context.Context, objectName string, data []byte) error
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, objectName string) error
	EnsureBucket(ctx context.Context) error
}

type minioStore struct {
	client *minio.Client
	bucket string
	region string
}

func NewMinioStore(cfg *config.Config) (ObjectStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &minioStore{client: client, bucket: cfg.MinioBucket, region: cfg.MinioRegion}, nil
}

func (m *minioStore) PutPNG(ctx context.Context, objectName string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "image/png",
	})
	return err
}

func (m *minioStore) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioStore) Remove(ctx context.Context, objectName string) error {
	return m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{})
}

func (m *minioStore) EnsureBucket(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region})
	}
	return nil
}
