package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	PhotoSize        = 400
	MaxPhotoBytes    = 5 << 20
	photoJPEGQuality = 85
)

var ErrInvalidImage = errors.New("photo must be a decodable image under 5 MB")

// NormalizePhoto decodes an uploaded image, fits it inside a 400x400 box and
// re-encodes it as JPEG. EXIF orientation is applied before resizing.
func NormalizePhoto(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data) > MaxPhotoBytes {
		return nil, ErrInvalidImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImage
	}

	img = imaging.Fit(img, PhotoSize, PhotoSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(photoJPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

// PhotoStore keeps resized profile photos in a publicly readable bucket.
type PhotoStore struct {
	bucket  *Bucket
	baseURL string
}

func NewPhotoStore(bucket *Bucket, publicBaseURL string) *PhotoStore {
	return &PhotoStore{bucket: bucket, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Upload normalizes and stores a photo and returns its public URL.
func (s *PhotoStore) Upload(ctx context.Context, lobbyistID string, data []byte) (string, error) {
	jpeg, err := NormalizePhoto(data)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("photos/%s/%s.jpg", lobbyistID, uuid.New().String())
	if err := s.bucket.Put(ctx, key, bytes.NewReader(jpeg), int64(len(jpeg)), "image/jpeg"); err != nil {
		return "", err
	}
	return s.PublicURL(key), nil
}

func (s *PhotoStore) PublicURL(key string) string {
	return s.baseURL + "/" + s.bucket.Name() + "/" + key
}
