// Package audio stores synthesized report audio on Google Cloud Storage.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
)

const (
	DefaultURLTTL = time.Hour
	contentType   = "audio/mpeg"
)

var ErrNoBucket = errors.New("audio: bucket name is required")

// bucket is the slice of *storage.BucketHandle the store relies on.
type bucket interface {
	NewWriter(ctx context.Context, key string) io.WriteCloser
	SignedURL(key string, opts *storage.SignedURLOptions) (string, error)
}

type gcsBucket struct {
	handle *storage.BucketHandle
}

func (b gcsBucket) NewWriter(ctx context.Context, key string) io.WriteCloser {
	w := b.handle.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	return w
}

func (b gcsBucket) SignedURL(key string, opts *storage.SignedURLOptions) (string, error) {
	return b.handle.SignedURL(key, opts)
}

// GCSStore implements weather.AudioStore.
type GCSStore struct {
	bucket bucket
	ttl    time.Duration
	now    func() time.Time

	// signing overrides; when empty the client credentials are used
	accessID   string
	privateKey []byte
}

type Option func(*GCSStore)

// WithSigner signs URLs with an explicit service-account identity instead of
// the credentials the client was built with.
func WithSigner(accessID string, privateKey []byte) Option {
	return func(s *GCSStore) {
		s.accessID = accessID
		s.privateKey = privateKey
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *GCSStore) { s.now = now }
}

// NewGCSStore wraps a bucket of client. A ttl <= 0 uses DefaultURLTTL.
func NewGCSStore(client *storage.Client, bucketName string, ttl time.Duration, opts ...Option) (*GCSStore, error) {
	if bucketName == "" {
		return nil, ErrNoBucket
	}
	return newStore(gcsBucket{handle: client.Bucket(bucketName)}, ttl, opts...), nil
}

func newStore(b bucket, ttl time.Duration, opts ...Option) *GCSStore {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	s := &GCSStore{bucket: b, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put uploads audio under key, replacing any existing object.
func (s *GCSStore) Put(ctx context.Context, key string, audio io.Reader) error {
	w := s.bucket.NewWriter(ctx, key)
	if _, err := io.Copy(w, audio); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", key, err)
	}
	return nil
}

// SignedURL returns a GET URL for key valid for the configured TTL.
func (s *GCSStore) SignedURL(_ context.Context, key string) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: s.now().Add(s.ttl),
	}
	if s.accessID != "" {
		opts.GoogleAccessID = s.accessID
		opts.PrivateKey = s.privateKey
	}

	url, err := s.bucket.SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", key, err)
	}
	return url, nil
}
