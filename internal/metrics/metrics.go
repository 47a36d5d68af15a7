// Package metrics exposes Prometheus collectors for the crawler service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Page status label values.
const (
	StatusSaved         = "saved"
	StatusSkipped       = "skipped"
	StatusFailedFetch   = "failed_fetch"
	StatusFailedPersist = "failed_persist"
)

var (
	crawlerPagesTotal           *prometheus.CounterVec
	crawlerBytesTotal           prometheus.Counter
	crawlerStoriesTotal         *prometheus.CounterVec
	crawlerStoryDurationSeconds *prometheus.HistogramVec
	crawlerCyclesTotal          *prometheus.CounterVec
	crawlerCycleStories         prometheus.Histogram
	crawlerCommentFailuresTotal prometheus.Counter
	crawlerStoriesActive        prometheus.Gauge
	crawlerRequestsInFlight     prometheus.Gauge
	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDurationSeconds  *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlerPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_pages_total",
				Help: "Total number of pages handled, labeled by status.",
			},
			[]string{"status"},
		)

		crawlerBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_bytes_total",
				Help: "Total number of page bytes persisted.",
			},
		)

		crawlerStoriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_stories_total",
				Help: "Total number of story crawls finished, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		crawlerStoryDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_story_duration_seconds",
				Help:    "Histogram of story crawl durations, labeled by outcome.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"outcome"},
		)

		crawlerCyclesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_cycles_total",
				Help: "Total number of poll cycles, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		crawlerCycleStories = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crawler_cycle_stories",
				Help:    "Histogram of stories launched per poll cycle.",
				Buckets: []float64{0, 1, 5, 10, 30, 100, 500},
			},
		)

		crawlerCommentFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_comment_failures_total",
				Help: "Total number of comments that could not be fetched.",
			},
		)

		crawlerStoriesActive = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_stories_active",
				Help: "Number of story crawls currently running.",
			},
		)

		crawlerRequestsInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_requests_in_flight",
				Help: "Number of outbound API and page requests currently in flight.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCrawl increments the page counters. Pages are not labeled by host:
// comments link to an unbounded set of sites.
func ObserveCrawl(status string, bytesPersisted int) {
	crawlerPagesTotal.WithLabelValues(status).Inc()
	if bytesPersisted > 0 {
		crawlerBytesTotal.Add(float64(bytesPersisted))
	}
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Recorder reports crawl events to the package collectors.
type Recorder struct{}

// NewRecorder initializes the collectors and returns a Recorder.
func NewRecorder() *Recorder {
	Init()
	return &Recorder{}
}

// PageSaved counts a persisted page and its size.
func (*Recorder) PageSaved(_ string, bytes int) {
	ObserveCrawl(StatusSaved, bytes)
}

// PageFailed counts a page that failed at stage ("fetch" or "persist").
func (*Recorder) PageFailed(_ string, stage string) {
	ObserveCrawl("failed_"+stage, 0)
}

// PageSkipped counts a page already claimed in its scope.
func (*Recorder) PageSkipped(string) {
	ObserveCrawl(StatusSkipped, 0)
}

// CommentFailed counts a comment that could not be fetched.
func (*Recorder) CommentFailed() {
	crawlerCommentFailuresTotal.Inc()
}

// StoryStarted marks a story crawl as active.
func (*Recorder) StoryStarted() {
	crawlerStoriesActive.Inc()
}

// StoryFinished records the story outcome and duration.
func (*Recorder) StoryFinished(outcome string, d time.Duration) {
	crawlerStoriesActive.Dec()
	crawlerStoriesTotal.WithLabelValues(outcome).Inc()
	crawlerStoryDurationSeconds.WithLabelValues(outcome).Observe(d.Seconds())
}

// CycleFinished records a poll cycle.
func (*Recorder) CycleFinished(outcome string, stories int) {
	crawlerCyclesTotal.WithLabelValues(outcome).Inc()
	crawlerCycleStories.Observe(float64(stories))
}

// InFlight adjusts the outbound request gauge.
func (*Recorder) InFlight(delta int) {
	crawlerRequestsInFlight.Add(float64(delta))
}
