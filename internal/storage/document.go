package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// MaxDocumentBytes caps a claim verification upload.
const MaxDocumentBytes = 10 << 20

var (
	ErrDocumentTooLarge    = errors.New("document exceeds 10 MB")
	ErrUnsupportedDocument = errors.New("document must be a PDF, JPEG or PNG")
)

var documentExtensions = map[string]string{
	"application/pdf": "pdf",
	"image/jpeg":      "jpg",
	"image/png":       "png",
}

// DetectDocumentType sniffs the content and returns its MIME type and file
// extension. The client-declared type is ignored.
func DetectDocumentType(data []byte) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", ErrInvalidObject
	}
	if len(data) > MaxDocumentBytes {
		return "", "", ErrDocumentTooLarge
	}

	contentType = http.DetectContentType(data)
	ext, ok := documentExtensions[contentType]
	if !ok {
		return "", "", ErrUnsupportedDocument
	}
	return contentType, ext, nil
}

// DocumentKey lays verification documents out per uploading user.
func DocumentKey(userID, ext string) string {
	return fmt.Sprintf("verification/%s/%s.%s", userID, uuid.New().String(), ext)
}

// DocumentStore keeps claim verification documents in a private bucket.
type DocumentStore struct {
	bucket *Bucket
}

func NewDocumentStore(bucket *Bucket) *DocumentStore {
	return &DocumentStore{bucket: bucket}
}

// Upload validates and stores a document, returning its object key.
func (s *DocumentStore) Upload(ctx context.Context, userID string, data []byte) (string, error) {
	contentType, ext, err := DetectDocumentType(data)
	if err != nil {
		return "", err
	}

	key := DocumentKey(userID, ext)
	if err := s.bucket.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", err
	}
	return key, nil
}

func (s *DocumentStore) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return s.bucket.PresignGet(ctx, key, ttl)
}

func (s *DocumentStore) Delete(ctx context.Context, key string) error {
	return s.bucket.Delete(ctx, key)
}
