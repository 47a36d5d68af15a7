// Package gcs provides a page Persister backed by Google Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket string
	// Prefix is prepended to every object name.
	Prefix string
}

// Persister writes pages to a configured GCS bucket.
type Persister struct {
	client *storage.Client
	bucket string
	prefix string
	owned  bool
}

// New creates a GCS-backed persister around an existing client.
func New(client *storage.Client, cfg Config) (*Persister, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &Persister{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Open creates a client using Application Default Credentials and verifies
// that the bucket is reachable before returning.
func Open(ctx context.Context, cfg Config) (*Persister, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			return nil, fmt.Errorf("get bucket %q attributes: %w (close client: %v)", cfg.Bucket, err, closeErr)
		}
		return nil, fmt.Errorf("get bucket %q attributes: %w", cfg.Bucket, err)
	}
	p, err := New(client, cfg)
	if err != nil {
		return nil, err
	}
	p.owned = true
	return p, nil
}

// ObjectName maps a directory and file name to the object key.
func (p *Persister) ObjectName(dir, name string) string {
	return ObjectName(p.prefix, dir, name)
}

// ObjectName joins prefix, dir and name into a clean object key without a
// leading slash or "./".
func ObjectName(prefix, dir, name string) string {
	return strings.TrimPrefix(path.Join("/", prefix, dir, name), "/")
}

// Persist uploads data and returns a gs:// URI. Existing objects are replaced.
func (p *Persister) Persist(ctx context.Context, dir, name string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name is required")
	}
	object := p.ObjectName(dir, name)
	writer := p.client.Bucket(p.bucket).Object(object).NewWriter(ctx)
	writer.ContentType = "text/html; charset=utf-8"
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", p.bucket, object), nil
}

// Close releases the client when Open created it.
func (p *Persister) Close() error {
	if !p.owned {
		return nil
	}
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close gcs client: %w", err)
	}
	return nil
}
