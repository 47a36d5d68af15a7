package crawler

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Gate caps the number of network requests in flight across all stories.
// It is held only for the duration of a request, never while a goroutine
// waits on its children, so the recursive walk cannot deadlock on it.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate returns a Gate admitting at most limit concurrent holders. A
// non-positive limit disables the cap.
func NewGate(limit int) *Gate {
	if limit <= 0 {
		return &Gate{}
	}
	return &Gate{sem: semaphore.NewWeighted(int64(limit))}
}

// Do runs fn while holding one slot.
func (g *Gate) Do(ctx context.Context, fn func(context.Context) error) error {
	if g != nil && g.sem != nil {
		if err := g.sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("acquire request slot: %w", err)
		}
		defer g.sem.Release(1)
	}
	return fn(ctx)
}
