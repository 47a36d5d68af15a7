// Package storage defines where downloaded pages are persisted.
// This abstraction keeps the crawl engine independent of a specific backend
// (the local filesystem, Google Cloud Storage, or memory for dry runs).
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/JakeFAU/hn-crawler/internal/storage/gcs"
	"github.com/JakeFAU/hn-crawler/internal/storage/local"
	"github.com/JakeFAU/hn-crawler/internal/storage/memory"
)

// Persister writes one page into a directory under a sanitized file name.
// Implementations create the directory when needed and overwrite existing
// files. The returned string is a URI describing where the data landed.
type Persister interface {
	Persist(ctx context.Context, dir, name string, data []byte) (string, error)
}

// Backend names accepted by New.
const (
	BackendLocal  = "local"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// Config selects and configures a backend.
type Config struct {
	Backend   string
	BaseDir   string
	GCSBucket string
	GCSPrefix string
}

// New builds the configured Persister. The returned close function releases
// backend resources and is never nil.
func New(ctx context.Context, cfg Config) (Persister, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendLocal:
		p, err := local.New(local.Config{BaseDir: cfg.BaseDir})
		if err != nil {
			return nil, noop, fmt.Errorf("init local storage: %w", err)
		}
		return p, noop, nil
	case BackendGCS:
		p, err := gcs.Open(ctx, gcs.Config{Bucket: cfg.GCSBucket, Prefix: cfg.GCSPrefix})
		if err != nil {
			return nil, noop, fmt.Errorf("init gcs storage: %w", err)
		}
		return p, p.Close, nil
	case BackendMemory:
		return memory.NewPersister(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
