package hnapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const maxJSONBytes = 8 << 20

// HTMLFetcher downloads a page body as text.
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, rawURL string) (string, error)
}

// Config controls the API client.
type Config struct {
	// Root is the API root, e.g. https://hacker-news.firebaseio.com/v0/.
	Root      string
	UserAgent string
	Timeout   time.Duration
}

// Client talks to the item and top story endpoints.
type Client struct {
	root      string
	userAgent string
	http      *http.Client
	html      HTMLFetcher
	logger    *zap.Logger
}

// New builds a Client. httpClient may be nil, in which case a client with
// cfg.Timeout is created.
func New(cfg Config, httpClient *http.Client, html HTMLFetcher, logger *zap.Logger) (*Client, error) {
	if html == nil {
		return nil, errors.New("html fetcher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		root:      normalizeRoot(cfg.Root),
		userAgent: cfg.UserAgent,
		http:      httpClient,
		html:      html,
		logger:    logger,
	}, nil
}

// FetchItem returns the item with the given id. A null payload maps to
// ErrNotFound.
func (c *Client) FetchItem(ctx context.Context, id int) (Item, error) {
	target := ItemURL(c.root, id)
	body, err := c.getJSON(ctx, target)
	if err != nil {
		return Item{}, err
	}
	if isNull(body) {
		return Item{}, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return Item{}, fmt.Errorf("decode item %d: %w", id, err)
	}
	c.logger.Debug("fetched item", zap.Int("item_id", id), zap.Int("kids", len(item.Kids)))
	return item, nil
}

// FetchTopStories returns at most limit ids from the front page, in rank
// order. A non-positive limit returns the full list.
func (c *Client) FetchTopStories(ctx context.Context, limit int) ([]int, error) {
	target := TopStoriesURL(c.root)
	body, err := c.getJSON(ctx, target)
	if err != nil {
		return nil, err
	}
	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("decode top stories: %w", err)
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// FetchHTML downloads the page at rawURL.
func (c *Client) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	html, err := c.html.FetchHTML(ctx, rawURL)
	if err != nil {
		var statusErr *StatusError
		var transportErr *TransportError
		if errors.As(err, &statusErr) || errors.As(err, &transportErr) {
			return "", err
		}
		return "", &TransportError{URL: rawURL, Err: err}
	}
	return html, nil
}

func (c *Client) getJSON(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", target, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close response body", zap.String("url", target), zap.Error(cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: target, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBytes))
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	return body, nil
}

func isNull(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
