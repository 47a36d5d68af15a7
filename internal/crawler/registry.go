package crawler

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// Registry is a concurrency-safe set of claimed keys.
type Registry struct {
	seen  sync.Map
	count atomic.Int64
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// TryClaim marks key as claimed and returns true only for the first caller.
// The check and the insert are one LoadOrStore, so exactly one of any number
// of concurrent callers wins. Empty keys are never claimed.
func (r *Registry) TryClaim(key string) bool {
	if key == "" {
		return false
	}
	_, loaded := r.seen.LoadOrStore(key, struct{}{})
	if loaded {
		return false
	}
	r.count.Add(1)
	return true
}

// Release forgets key so it can be claimed again.
func (r *Registry) Release(key string) {
	if _, loaded := r.seen.LoadAndDelete(key); loaded {
		r.count.Add(-1)
	}
}

// Len returns the number of claimed keys.
func (r *Registry) Len() int {
	return int(r.count.Load())
}

// Scope is the per-story crawl state: the directory every page of the story
// is written to, the URLs already claimed for it and the comments already
// walked.
type Scope struct {
	StoryID  int
	Dir      string
	registry *Registry
	comments *Registry
}

// NewScope binds fresh registries to dir.
func NewScope(storyID int, dir string) *Scope {
	return &Scope{
		StoryID:  storyID,
		Dir:      dir,
		registry: NewRegistry(),
		comments: NewRegistry(),
	}
}

// ClaimComment marks comment id as walked and returns false if it already
// was. A comment listed twice in a tree, or listed under itself, is walked once.
func (s *Scope) ClaimComment(id int) bool {
	return s.comments.TryClaim(strconv.Itoa(id))
}

// TryClaim claims rawURL within this scope.
func (s *Scope) TryClaim(rawURL string) bool {
	return s.registry.TryClaim(rawURL)
}

// Claimed returns how many URLs the scope has claimed so far.
func (s *Scope) Claimed() int {
	return s.registry.Len()
}
