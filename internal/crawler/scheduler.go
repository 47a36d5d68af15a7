package crawler

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/hn-crawler/internal/clock/system"
)

// State is the scheduler's position in its poll loop.
type State string

// Scheduler states. Polling and Waiting alternate until the context ends.
const (
	StateIdle    State = "idle"
	StatePolling State = "polling"
	StateWaiting State = "waiting"
	StateStopped State = "stopped"
)

// Cycle outcomes reported through Recorder.CycleFinished.
const (
	CycleOK     = "ok"
	CycleFailed = "failed"
)

// Defaults mirrored by the CLI flags.
const (
	DefaultInterval   = 5 * time.Second
	DefaultNumStories = 30
)

// SchedulerConfig controls the poll loop.
type SchedulerConfig struct {
	// Interval is the fixed delay between the end of one cycle's launch phase
	// and the start of the next cycle.
	Interval time.Duration
	// NumStories caps the number of front page stories crawled per cycle.
	NumStories int
	// SkipSeenStories keeps a process-lifetime set of story ids and does not
	// launch a story again once it has been crawled.
	SkipSeenStories bool
}

// Status is a point-in-time snapshot of the scheduler.
type Status struct {
	State           State     `json:"state"`
	Cycles          int64     `json:"cycles"`
	FailedCycles    int64     `json:"failed_cycles"`
	LastCycleID     string    `json:"last_cycle_id,omitempty"`
	LastCycleAt     time.Time `json:"last_cycle_at,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
	StoriesLaunched int64     `json:"stories_launched"`
	StoriesInFlight int64     `json:"stories_in_flight"`
	SeenStories     int       `json:"seen_stories"`
}

// Scheduler polls the front page forever and launches one StoryRunner per
// listed story. Cycles do not wait for the stories they launched, so work
// from consecutive cycles may overlap.
type Scheduler struct {
	cfg      SchedulerConfig
	source   Source
	runner   StoryRunner
	clock    Clock
	ids      IDGenerator
	recorder Recorder
	logger   *zap.Logger

	seen     *Registry
	wg       sync.WaitGroup
	inFlight atomic.Int64

	mu     sync.RWMutex
	status Status
}

// NewScheduler constructs a Scheduler. clock, ids and recorder may be nil.
func NewScheduler(
	cfg SchedulerConfig,
	source Source,
	runner StoryRunner,
	clock Clock,
	ids IDGenerator,
	recorder Recorder,
	logger *zap.Logger,
) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.NumStories <= 0 {
		cfg.NumStories = DefaultNumStories
	}
	if clock == nil {
		clock = system.New()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:      cfg,
		source:   source,
		runner:   runner,
		clock:    clock,
		ids:      ids,
		recorder: recorder,
		logger:   logger,
		seen:     NewRegistry(),
		status:   Status{State: StateIdle},
	}
}

// Run alternates between Polling and Waiting until ctx is canceled, then
// waits for every launched story to return. It always returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("num_stories", s.cfg.NumStories),
		zap.Bool("skip_seen_stories", s.cfg.SkipSeenStories),
	)
	for ctx.Err() == nil {
		s.setState(StatePolling)
		// Cycle errors are logged and recorded inside RunCycle; the next
		// attempt happens after the normal interval.
		_, _ = s.RunCycle(ctx) //nolint:errcheck // handled in RunCycle

		s.setState(StateWaiting)
		if !pause(ctx, s.cfg.Interval) {
			break
		}
	}

	s.logger.Info("scheduler stopping; waiting for in-flight stories", zap.Int64("in_flight", s.inFlight.Load()))
	s.wg.Wait()
	s.setState(StateStopped)
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// RunCycle performs one Polling step: it fetches the top story ids and
// launches a story task for each without waiting for them. It returns the
// number of tasks launched.
func (s *Scheduler) RunCycle(ctx context.Context) (int, error) {
	cycleID := s.newCycleID()
	logger := s.logger.With(zap.String("cycle_id", cycleID))
	startedAt := s.clock.Now()

	ids, err := s.source.FetchTopStories(ctx, s.cfg.NumStories)
	if err != nil {
		logger.Error("fetch top stories failed; retrying after interval", zap.Error(err))
		s.recorder.CycleFinished(CycleFailed, 0)
		s.finishCycle(cycleID, startedAt, 0, err)
		return 0, err
	}
	if len(ids) > s.cfg.NumStories {
		ids = ids[:s.cfg.NumStories]
	}
	logger.Debug("top stories fetched", zap.Int("count", len(ids)), zap.Ints("head", head(ids, 5)))

	launched := 0
	for _, id := range ids {
		if s.cfg.SkipSeenStories && !s.seen.TryClaim(strconv.Itoa(id)) {
			logger.Debug("story already crawled; skipping", zap.Int("story_id", id))
			continue
		}
		s.launch(ctx, logger, id)
		launched++
	}

	logger.Info("cycle launched", zap.Int("stories", launched), zap.Int("listed", len(ids)))
	s.recorder.CycleFinished(CycleOK, launched)
	s.finishCycle(cycleID, startedAt, launched, nil)
	return launched, nil
}

// Wait blocks until every launched story task has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Status returns a snapshot of the scheduler.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()
	st.StoriesInFlight = s.inFlight.Load()
	st.SeenStories = s.seen.Len()
	return st
}

func (s *Scheduler) launch(ctx context.Context, logger *zap.Logger, id int) {
	s.wg.Add(1)
	s.inFlight.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("story crawl panicked", zap.Int("story_id", id), zap.Any("panic", r))
				s.seen.Release(strconv.Itoa(id))
			}
		}()

		err := s.runner.Run(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, ErrTextPost):
			logger.Debug("story is a text post; nothing to download", zap.Int("story_id", id))
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			logger.Debug("story crawl canceled", zap.Int("story_id", id))
			s.seen.Release(strconv.Itoa(id))
		default:
			logger.Warn("story crawl aborted", zap.Int("story_id", id), zap.Error(err))
			// Let a later cycle try the story again.
			s.seen.Release(strconv.Itoa(id))
		}
	}()
}

func (s *Scheduler) newCycleID() string {
	if s.ids == nil {
		return ""
	}
	id, err := s.ids.NewID()
	if err != nil {
		s.logger.Warn("generate cycle id failed", zap.Error(err))
		return ""
	}
	return id
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.status.State = state
	s.mu.Unlock()
}

func (s *Scheduler) finishCycle(cycleID string, at time.Time, launched int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Cycles++
	s.status.LastCycleID = cycleID
	s.status.LastCycleAt = at
	s.status.StoriesLaunched += int64(launched)
	if err != nil {
		s.status.FailedCycles++
		s.status.LastError = err.Error()
		return
	}
	s.status.LastError = ""
}

// pause waits for d and reports false if ctx ended first.
func pause(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func head(ids []int, n int) []int {
	if len(ids) < n {
		return ids
	}
	return ids[:n]
}
