package crawler

import (
	"context"

	"go.uber.org/zap"
)

// Downloader fetches a page and persists it into a scope's directory at most
// once per scope.
type Downloader struct {
	source    Source
	persister Persister
	gate      *Gate
	recorder  Recorder
	logger    *zap.Logger
}

// NewDownloader constructs a Downloader. gate and recorder may be nil.
func NewDownloader(source Source, persister Persister, gate *Gate, recorder Recorder, logger *zap.Logger) *Downloader {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{
		source:    source,
		persister: persister,
		gate:      gate,
		recorder:  recorder,
		logger:    logger,
	}
}

// DownloadAndPersist claims rawURL in scope and, when the claim is new,
// fetches and writes it. A URL that was already claimed counts as success
// without any I/O. A failed download keeps its claim and is not retried in
// this scope. It never panics or returns an error; failures are logged.
func (d *Downloader) DownloadAndPersist(ctx context.Context, rawURL string, scope *Scope) bool {
	logger := d.logger.With(zap.Int("story_id", scope.StoryID), zap.String("url", rawURL))
	if rawURL == "" {
		logger.Debug("empty link ignored")
		return false
	}
	if !scope.TryClaim(rawURL) {
		logger.Debug("page already claimed in scope")
		d.recorder.PageSkipped(rawURL)
		return true
	}

	var html string
	err := d.gate.Do(ctx, func(ctx context.Context) error {
		d.recorder.InFlight(1)
		defer d.recorder.InFlight(-1)
		var fetchErr error
		html, fetchErr = d.source.FetchHTML(ctx, rawURL)
		return fetchErr
	})
	if err != nil {
		logger.Warn("page download failed", zap.Error(err))
		d.recorder.PageFailed(rawURL, StageFetch)
		return false
	}

	name := PageFileName(rawURL)
	uri, err := d.persister.Persist(ctx, scope.Dir, name, []byte(html))
	if err != nil {
		logger.Error("page persist failed", zap.String("dir", scope.Dir), zap.String("file", name), zap.Error(err))
		d.recorder.PageFailed(rawURL, StagePersist)
		return false
	}

	logger.Debug("page saved", zap.String("uri", uri), zap.Int("bytes", len(html)))
	d.recorder.PageSaved(rawURL, len(html))
	return true
}
