// Package blob stores uploaded files such as profile images.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrNotFound is returned when no object exists at a path.
var ErrNotFound = errors.New("blob not found")

const uploadTimeout = 2 * time.Minute

// GCS stores objects in a Google Cloud Storage bucket.
type GCS struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

// NewGCS opens a client for bucket. An empty credentialsFile uses application
// default credentials. publicBaseURL overrides the storage.googleapis.com host
// in download URLs.
func NewGCS(ctx context.Context, bucket, publicBaseURL, credentialsFile string) (*GCS, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("blob: bucket name is required")
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}, nil
}

// Close releases the client.
func (g *GCS) Close() error {
	return g.client.Close()
}

// Upload writes r to path, replacing any existing object.
func (g *GCS) Upload(ctx context.Context, path string, r io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=300"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object writer: %w", err)
	}
	return nil
}

// DownloadURL returns a public URL for path. The object generation is
// appended so a replaced image gets a fresh URL.
func (g *GCS) DownloadURL(ctx context.Context, path string) (string, error) {
	attrs, err := g.client.Bucket(g.bucket).Object(path).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("object attrs: %w", err)
	}

	base := g.publicBaseURL
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	return fmt.Sprintf("%s/%s/%s?v=%d", base, g.bucket, strings.TrimLeft(path, "/"), attrs.Generation), nil
}
