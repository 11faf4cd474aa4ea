package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ezhulati/texaslobbyorg-sub001/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultPresignTTL is how long an admin's document link stays valid.
const DefaultPresignTTL = 5 * time.Minute

var ErrInvalidObject = errors.New("invalid object")

// NewClient builds an S3-compatible client. Setting the region keeps
// presigning local; no bucket-location round trip is made.
func NewClient(cfg config.StorageConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return client, nil
}

// Bucket is one bucket of the object store.
type Bucket struct {
	client *minio.Client
	name   string

	ensureOnce sync.Once
	ensureErr  error
}

func NewBucket(client *minio.Client, name string) *Bucket {
	return &Bucket{client: client, name: strings.TrimSpace(name)}
}

func (b *Bucket) Name() string {
	return b.name
}

// EnsureBucket creates the bucket on first use if it does not exist.
func (b *Bucket) EnsureBucket(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("storage client is nil")
	}
	if b.name == "" {
		return fmt.Errorf("storage bucket is empty")
	}

	b.ensureOnce.Do(func() {
		exists, err := b.client.BucketExists(ctx, b.name)
		if err != nil {
			b.ensureErr = err
			return
		}
		if exists {
			return
		}
		b.ensureErr = b.client.MakeBucket(ctx, b.name, minio.MakeBucketOptions{})
	})

	if b.ensureErr != nil {
		return fmt.Errorf("ensure bucket %q: %w", b.name, b.ensureErr)
	}
	return nil
}

func (b *Bucket) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if b.client == nil {
		return fmt.Errorf("storage client is nil")
	}
	if key == "" || body == nil || size <= 0 {
		return ErrInvalidObject
	}

	_, err := b.client.PutObject(ctx, b.name, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (b *Bucket) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if b.client == nil {
		return "", fmt.Errorf("storage client is nil")
	}
	if key == "" {
		return "", ErrInvalidObject
	}
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}

	u, err := b.client.PresignedGetObject(ctx, b.name, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}
	return u.String(), nil
}

// Delete removes an object. An empty key is a no-op.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	if b.client == nil || key == "" {
		return nil
	}
	if err := b.client.RemoveObject(ctx, b.name, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
