// Package collyfetcher downloads raw page HTML using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/hn-crawler/internal/hnapi"
)

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
	// MaxBodySize caps the number of bytes read per page; 0 keeps colly's default.
	// Pages that reach the cap fail with ErrBodyTooLarge.
	MaxBodySize int
}

// ErrBodyTooLarge is returned when a page body reaches the collector's size
// cap. colly truncates such bodies, so the content is incomplete.
var ErrBodyTooLarge = errors.New("response body reached size limit")

// Fetcher implements hnapi.HTMLFetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// fetchResult is filled in by the collector callbacks of a single Visit.
type fetchResult struct {
	status int
	body   []byte
	err    error
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	// Deduplication is owned by the crawl scope, and the same page may be
	// fetched again in a later scope.
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = !cfg.RespectRobots
	// Deliver non-2xx responses to OnResponse so they become StatusErrors.
	c.ParseHTTPErrorResponse = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	if cfg.MaxBodySize > 0 {
		c.MaxBodySize = cfg.MaxBodySize
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	c.SetRequestTimeout(timeout)
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// FetchHTML executes a single HTTP GET and returns the body as text.
func (f *Fetcher) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	result := &fetchResult{}
	collector := f.baseCollector.Clone()
	// Bind the request itself to ctx so cancellation aborts it in flight.
	collector.Context = ctx
	configureCollectorHooks(collector, result, collector.MaxBodySize)

	if err := runCollector(ctx, collector, rawURL, result); err != nil {
		return "", err
	}
	if result.status < 200 || result.status > 299 {
		return "", &hnapi.StatusError{URL: rawURL, Code: result.status}
	}
	return string(result.body), nil
}

func configureCollectorHooks(hooks collectorHooks, result *fetchResult, maxBodySize int) {
	hooks.OnResponse(func(r *colly.Response) {
		result.status = r.StatusCode
		if maxBodySize > 0 && len(r.Body) >= maxBodySize {
			result.err = fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, maxBodySize)
			return
		}
		result.body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			result.status = r.StatusCode
		}
		result.err = err
	})
}

func runCollector(ctx context.Context, collector *colly.Collector, rawURL string, result *fetchResult) error {
	if err := ctx.Err(); err != nil {
		return &hnapi.TransportError{URL: rawURL, Err: fmt.Errorf("colly fetch canceled: %w", err)}
	}
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return &hnapi.TransportError{URL: rawURL, Err: fmt.Errorf("colly fetch canceled: %w", ctx.Err())}
	case err := <-done:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &hnapi.TransportError{URL: rawURL, Err: fmt.Errorf("colly fetch canceled: %w", ctxErr)}
		}
		if result.err != nil {
			return &hnapi.TransportError{URL: rawURL, Err: fmt.Errorf("colly response failed: %w", result.err)}
		}
		if err != nil {
			return &hnapi.TransportError{URL: rawURL, Err: fmt.Errorf("colly visit failed: %w", err)}
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
	}
}
