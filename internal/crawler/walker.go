package crawler

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// DefaultMaxCommentDepth bounds recursion depth. Circular trees are cut
// earlier by the scope's comment registry.
const DefaultMaxCommentDepth = 64

// Walker follows a comment tree, downloading every linked page into the
// story's scope.
type Walker struct {
	source     Source
	downloader *Downloader
	gate       *Gate
	maxDepth   int
	recorder   Recorder
	logger     *zap.Logger
}

// NewWalker constructs a Walker. A non-positive maxDepth selects
// DefaultMaxCommentDepth.
func NewWalker(source Source, downloader *Downloader, gate *Gate, maxDepth int, recorder Recorder, logger *zap.Logger) *Walker {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxCommentDepth
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		source:     source,
		downloader: downloader,
		gate:       gate,
		maxDepth:   maxDepth,
		recorder:   recorder,
		logger:     logger,
	}
}

// WalkAll walks every comment id concurrently and returns when all subtrees
// are done.
func (w *Walker) WalkAll(ctx context.Context, ids []int, scope *Scope) {
	w.walkChildren(ctx, ids, 1, scope)
}

// Walk fetches one comment, downloads its links and recurses into its kids.
// It returns once the whole subtree has been processed.
func (w *Walker) Walk(ctx context.Context, id int, scope *Scope) {
	w.walk(ctx, id, 1, scope)
}

func (w *Walker) walk(ctx context.Context, id, depth int, scope *Scope) {
	logger := w.logger.With(zap.Int("story_id", scope.StoryID), zap.Int("comment_id", id))
	if ctx.Err() != nil {
		return
	}
	if depth > w.maxDepth {
		logger.Warn("comment tree deeper than limit; subtree skipped", zap.Int("max_depth", w.maxDepth))
		return
	}
	if !scope.ClaimComment(id) {
		logger.Debug("comment already walked in scope")
		return
	}

	var comment Comment
	err := w.gate.Do(ctx, func(ctx context.Context) error {
		w.recorder.InFlight(1)
		defer w.recorder.InFlight(-1)
		item, fetchErr := w.source.FetchItem(ctx, id)
		comment = commentFromItem(item)
		return fetchErr
	})
	if err != nil {
		logger.Warn("comment fetch failed", zap.Error(err))
		w.recorder.CommentFailed()
		return
	}

	links := ExtractLinks(comment.Text)
	logger.Debug("comment fetched", zap.Int("links", len(links)), zap.Int("kids", len(comment.Kids)), zap.Int("depth", depth))

	var wg sync.WaitGroup
	for _, link := range links {
		wg.Add(1)
		go func(link string) {
			defer wg.Done()
			w.downloader.DownloadAndPersist(ctx, link, scope)
		}(link)
	}
	w.walkChildren(ctx, comment.Kids, depth+1, scope)
	wg.Wait()
}

func (w *Walker) walkChildren(ctx context.Context, ids []int, depth int, scope *Scope) {
	var wg sync.WaitGroup
	for _, kid := range ids {
		wg.Add(1)
		go func(kid int) {
			defer wg.Done()
			w.walk(ctx, kid, depth, scope)
		}(kid)
	}
	wg.Wait()
}
