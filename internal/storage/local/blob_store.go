// Package local implements a local filesystem page persister.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config captures the parameters for the local filesystem persister.
type Config struct {
	// BaseDir is the crawl root; every write must land underneath it.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Persister writes pages to the local filesystem.
type Persister struct {
	baseDir string
}

// New creates a new local filesystem-backed persister.
func New(cfg Config) (*Persister, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
				return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
			}
		} else {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	// Check for write permissions.
	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	absBase, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}
	return &Persister{
		baseDir: absBase,
	}, nil
}

// Persist creates dir if needed and writes data to dir/name, overwriting any
// existing file. It returns a file:// URI.
func (p *Persister) Persist(ctx context.Context, dir, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	if strings.TrimSpace(name) == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve directory %s: %w", dir, err)
	}
	fullPath := filepath.Join(absDir, name)
	if !strings.HasPrefix(fullPath, p.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %s", fullPath)
	}

	if err := os.MkdirAll(absDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}

	return fmt.Sprintf("file://%s", fullPath), nil
}
