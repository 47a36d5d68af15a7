package crawler

import (
	"context"
	"time"

	"github.com/JakeFAU/hn-crawler/internal/hnapi"
)

// Source is the network boundary of the crawl: API items, the front page and
// raw page HTML. *hnapi.Client satisfies it.
type Source interface {
	FetchItem(ctx context.Context, id int) (hnapi.Item, error)
	FetchTopStories(ctx context.Context, limit int) ([]int, error)
	FetchHTML(ctx context.Context, rawURL string) (string, error)
}

// Persister writes a page into dir/name. storage.Persister satisfies it.
type Persister interface {
	Persist(ctx context.Context, dir, name string, data []byte) (string, error)
}

// StoryRunner crawls one story to completion.
type StoryRunner interface {
	Run(ctx context.Context, storyID int) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces cycle IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// Recorder observes crawl outcomes. internal/metrics provides the Prometheus
// implementation; NopRecorder discards everything.
type Recorder interface {
	PageSaved(rawURL string, bytes int)
	PageFailed(rawURL string, stage string)
	PageSkipped(rawURL string)
	CommentFailed()
	StoryStarted()
	StoryFinished(outcome string, d time.Duration)
	CycleFinished(outcome string, stories int)
	InFlight(delta int)
}

// Failure stages reported through Recorder.PageFailed.
const (
	StageFetch   = "fetch"
	StagePersist = "persist"
)

// Story outcomes reported through Recorder.StoryFinished.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeTextPost  = "text_post"
	OutcomeSkipped   = "skipped"
)

// NopRecorder implements Recorder with no side effects.
type NopRecorder struct{}

// PageSaved implements Recorder.
func (NopRecorder) PageSaved(string, int) {}

// PageFailed implements Recorder.
func (NopRecorder) PageFailed(string, string) {}

// PageSkipped implements Recorder.
func (NopRecorder) PageSkipped(string) {}

// CommentFailed implements Recorder.
func (NopRecorder) CommentFailed() {}

// StoryStarted implements Recorder.
func (NopRecorder) StoryStarted() {}

// StoryFinished implements Recorder.
func (NopRecorder) StoryFinished(string, time.Duration) {}

// CycleFinished implements Recorder.
func (NopRecorder) CycleFinished(string, int) {}

// InFlight implements Recorder.
func (NopRecorder) InFlight(int) {}
