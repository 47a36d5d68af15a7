package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrTextPost is returned for stories without a URL; there is nothing to
// download for them.
var ErrTextPost = errors.New("story has no url")

// StoryTask crawls one story: its own page plus every page linked from its
// comment tree, all into one directory and one dedup scope.
type StoryTask struct {
	source     Source
	downloader *Downloader
	walker     *Walker
	gate       *Gate
	rootDir    string
	recorder   Recorder
	logger     *zap.Logger
}

// NewStoryTask constructs a StoryTask writing below rootDir.
func NewStoryTask(
	source Source,
	downloader *Downloader,
	walker *Walker,
	gate *Gate,
	rootDir string,
	recorder Recorder,
	logger *zap.Logger,
) *StoryTask {
	if rootDir == "" {
		rootDir = DefaultRootDir
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoryTask{
		source:     source,
		downloader: downloader,
		walker:     walker,
		gate:       gate,
		rootDir:    rootDir,
		recorder:   recorder,
		logger:     logger,
	}
}

// Run crawls storyID and returns once the story page and the whole comment
// tree have been processed. It returns an error only when the story itself
// could not be crawled (fetch failure or ErrTextPost); failures below the
// story are logged and do not fail the task.
func (t *StoryTask) Run(ctx context.Context, storyID int) error {
	start := time.Now()
	logger := t.logger.With(zap.Int("story_id", storyID))
	t.recorder.StoryStarted()
	logger.Info("started processing story")

	var story Story
	err := t.gate.Do(ctx, func(ctx context.Context) error {
		t.recorder.InFlight(1)
		defer t.recorder.InFlight(-1)
		item, fetchErr := t.source.FetchItem(ctx, storyID)
		story = storyFromItem(item)
		return fetchErr
	})
	if err != nil {
		t.recorder.StoryFinished(OutcomeFailed, time.Since(start))
		return fmt.Errorf("fetch story %d: %w", storyID, err)
	}
	if story.URL == "" {
		t.recorder.StoryFinished(OutcomeTextPost, time.Since(start))
		return fmt.Errorf("story %d: %w", storyID, ErrTextPost)
	}

	scope := NewScope(storyID, StoryDir(t.rootDir, story.URL))
	logger = logger.With(zap.String("dir", scope.Dir))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t.downloader.DownloadAndPersist(ctx, story.URL, scope)
	}()
	if len(story.Kids) > 0 {
		t.walker.WalkAll(ctx, story.Kids, scope)
	} else {
		logger.Debug("no comments for story")
	}
	wg.Wait()

	t.recorder.StoryFinished(OutcomeCompleted, time.Since(start))
	logger.Info("finished crawling story", zap.Int("urls_claimed", scope.Claimed()), zap.Duration("elapsed", time.Since(start)))
	return nil
}
