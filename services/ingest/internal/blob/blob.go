package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
)

// Store is the durable object store the snapshot writer targets.
type Store interface {
	// EnsureBucket creates the backing bucket if it does not exist yet.
	// An already-existing bucket is not an error.
	EnsureBucket(ctx context.Context) error
	// Upload writes an object, overwriting any existing object at that name.
	Upload(ctx context.Context, objectName string, data []byte, contentType string) error
	// Close releases any resources held by the store.
	Close() error
}

// GCS is a Store backed by a Google Cloud Storage bucket.
type GCS struct {
	client    *storage.Client
	bucket    string
	projectID string
}

// NewGCS opens a GCS-backed store for the named bucket.
func NewGCS(ctx context.Context, bucket, projectID string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, projectID: projectID}, nil
}

// EnsureBucket creates the bucket, silently tolerating one that already
// exists. Racing a concurrent creator is safe for the same reason.
func (g *GCS) EnsureBucket(ctx context.Context) error {
	err := g.client.Bucket(g.bucket).Create(ctx, g.projectID, nil)
	if err == nil {
		log.Info().Str("bucket", g.bucket).Msg("Created bucket")
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 409 {
		return nil
	}
	return fmt.Errorf("ensure bucket %s: %w", g.bucket, err)
}

func (g *GCS) Upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	w := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return fmt.Errorf("upload %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload %s: %w", objectName, err)
	}
	return nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
