// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/hn-crawler/internal/api"
	"github.com/JakeFAU/hn-crawler/internal/clock/system"
	"github.com/JakeFAU/hn-crawler/internal/config"
	"github.com/JakeFAU/hn-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/hn-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/hn-crawler/internal/hnapi"
	"github.com/JakeFAU/hn-crawler/internal/id/uuid"
	"github.com/JakeFAU/hn-crawler/internal/metrics"
	"github.com/JakeFAU/hn-crawler/internal/storage"
)

// App holds the shared, long-lived services of one crawler process: the API
// client, the page store, the crawl engine and the optional ops server.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	source     crawler.Source
	persister  storage.Persister
	closeStore func() error
	scheduler  *crawler.Scheduler
	server     *api.Server
}

// Option overrides a service built by New. Tests use it to swap the network
// and storage boundaries.
type Option func(*deps)

type deps struct {
	source    crawler.Source
	persister storage.Persister
}

// WithSource replaces the Hacker News client.
func WithSource(source crawler.Source) Option {
	return func(d *deps) { d.source = source }
}

// WithPersister replaces the configured storage backend.
func WithPersister(p storage.Persister) Option {
	return func(d *deps) { d.persister = p }
}

// New creates and wires every service from cfg. It fails fast when a
// backend cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var d deps
	for _, opt := range opts {
		opt(&d)
	}
	logger.Info("initializing application services",
		zap.String("api_root", cfg.API.Root),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("root_dir", cfg.Crawler.RootDir),
	)

	source := d.source
	if source == nil {
		html := collyfetcher.New(collyfetcher.Config{
			UserAgent:     cfg.Crawler.UserAgent,
			RespectRobots: cfg.Crawler.RespectRobots,
			Timeout:       cfg.HTTP.Timeout(),
			MaxBodySize:   cfg.Crawler.MaxPageBytes,
		})
		client, err := hnapi.New(hnapi.Config{
			Root:      cfg.API.Root,
			UserAgent: cfg.Crawler.UserAgent,
			Timeout:   cfg.API.Timeout(),
		}, nil, html, logger.Named("hnapi"))
		if err != nil {
			return nil, fmt.Errorf("init api client: %w", err)
		}
		source = client
	}

	persister := d.persister
	closeStore := func() error { return nil }
	if persister == nil {
		p, closer, err := storage.New(ctx, storage.Config{
			Backend:   cfg.Storage.Backend,
			BaseDir:   cfg.Crawler.RootDir,
			GCSBucket: cfg.Storage.GCSBucket,
			GCSPrefix: cfg.Storage.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		persister, closeStore = p, closer
	}

	recorder := metrics.NewRecorder()
	gate := crawler.NewGate(cfg.Crawler.MaxInFlight)
	downloader := crawler.NewDownloader(source, persister, gate, recorder, logger.Named("downloader"))
	walker := crawler.NewWalker(source, downloader, gate, cfg.Crawler.MaxCommentDepth, recorder, logger.Named("walker"))
	task := crawler.NewStoryTask(source, downloader, walker, gate, cfg.Crawler.RootDir, recorder, logger.Named("story"))
	scheduler := crawler.NewScheduler(crawler.SchedulerConfig{
		Interval:        cfg.Poll.Interval(),
		NumStories:      cfg.Poll.NumStories,
		SkipSeenStories: cfg.Crawler.SkipSeenStories,
	}, source, task, system.New(), uuid.New(), recorder, logger.Named("scheduler"))

	a := &App{
		cfg:        cfg,
		logger:     logger,
		source:     source,
		persister:  persister,
		closeStore: closeStore,
		scheduler:  scheduler,
	}
	if cfg.Server.Port > 0 {
		a.server = api.NewServer(scheduler, api.Options{APIKey: cfg.Server.APIKey}, logger.Named("api"))
	}

	logger.Info("application services initialized")
	return a, nil
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Scheduler exposes the poll scheduler.
func (a *App) Scheduler() *crawler.Scheduler {
	return a.scheduler
}

// Server returns the ops server, or nil when server.port is 0.
func (a *App) Server() *api.Server {
	return a.server
}

// Run polls until ctx is canceled and serves the ops endpoints alongside when
// enabled. A server failure stops the crawl as well. Cancellation is a clean
// shutdown and returns nil.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.scheduler.Run(gctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})
	if a.server != nil {
		addr := ":" + strconv.Itoa(a.cfg.Server.Port)
		g.Go(func() error {
			return a.server.ListenAndServe(gctx, addr)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("run crawler: %w", err)
	}
	return nil
}

// Close releases storage resources and flushes the logger.
func (a *App) Close() {
	a.logger.Info("shutting down application services")
	if err := a.closeStore(); err != nil {
		a.logger.Warn("error closing storage", zap.Error(err))
	}
	// Syncing stderr fails on some platforms; nothing useful can be done then.
	_ = a.logger.Sync() //nolint:errcheck // best-effort flush
}
