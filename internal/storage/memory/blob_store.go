// Package memory keeps persisted pages in memory for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"
)

// Persister stores pages in a map keyed by dir/name and counts writes per key.
type Persister struct {
	mu     sync.RWMutex
	data   map[string][]byte
	writes map[string]int
}

// NewPersister creates a new in-memory persister.
func NewPersister() *Persister {
	return &Persister{
		data:   make(map[string][]byte),
		writes: make(map[string]int),
	}
}

// Persist stores a copy of data and returns a memory:// URI.
func (p *Persister) Persist(ctx context.Context, dir, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	key := Key(dir, name)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[key] = append([]byte(nil), data...)
	p.writes[key]++
	return fmt.Sprintf("memory://%s", key), nil
}

// Key returns the map key used for dir and name.
func Key(dir, name string) string {
	return path.Join(dir, name)
}

// Get returns the stored bytes for key.
func (p *Persister) Get(key string) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data, ok := p.data[key]
	return data, ok
}

// Writes reports how many times key was written.
func (p *Persister) Writes(key string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.writes[key]
}

// TotalWrites reports the number of Persist calls that succeeded.
func (p *Persister) TotalWrites() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	total := 0
	for _, n := range p.writes {
		total += n
	}
	return total
}

// Keys lists every stored key in sorted order.
func (p *Persister) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.data))
	for k := range p.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
