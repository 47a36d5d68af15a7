package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/hn-crawler/internal/hnapi"
)

func TestNewConfiguresCollector(t *testing.T) {
	t.Parallel()

	f := New(Config{UserAgent: "coverage-agent", RespectRobots: true, Timeout: time.Second, MaxBodySize: 1024})
	assert.Equal(t, "coverage-agent", f.baseCollector.UserAgent)
	assert.False(t, f.baseCollector.IgnoreRobotsTxt)
	assert.True(t, f.baseCollector.AllowURLRevisit)
	assert.True(t, f.baseCollector.ParseHTTPErrorResponse)
	assert.Equal(t, 1024, f.baseCollector.MaxBodySize)

	f = New(Config{})
	assert.True(t, f.baseCollector.IgnoreRobotsTxt)
}

func TestFetchHTML(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	f := New(Config{Timeout: 5 * time.Second})

	t.Run("Success", func(t *testing.T) {
		body, err := f.FetchHTML(context.Background(), srv.URL+"/page")
		require.NoError(t, err)
		assert.Equal(t, "<html><body>hello</body></html>", body)
	})

	t.Run("RevisitAllowed", func(t *testing.T) {
		_, err := f.FetchHTML(context.Background(), srv.URL+"/page")
		require.NoError(t, err)
		_, err = f.FetchHTML(context.Background(), srv.URL+"/page")
		require.NoError(t, err)
	})

	t.Run("StatusError", func(t *testing.T) {
		_, err := f.FetchHTML(context.Background(), srv.URL+"/gone")
		var statusErr *hnapi.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusGone, statusErr.Code)
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.FetchHTML(ctx, srv.URL+"/page")
		require.Error(t, err)
		var transportErr *hnapi.TransportError
		require.ErrorAs(t, err, &transportErr)
	})
}

func TestFetchHTMLUnreachableHost(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL + "/page"
	srv.Close()

	f := New(Config{Timeout: time.Second})
	_, err := f.FetchHTML(context.Background(), target)
	var transportErr *hnapi.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, target, transportErr.URL)
}

func TestFetchHTMLRejectsOversizedPage(t *testing.T) {
	t.Parallel()

	page := "<html>" + strings.Repeat("x", 4096) + "</html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)

	body, err := New(Config{Timeout: 5 * time.Second, MaxBodySize: 1024}).FetchHTML(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrBodyTooLarge)
	var transportErr *hnapi.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Empty(t, body)

	body, err = New(Config{Timeout: 5 * time.Second, MaxBodySize: len(page) + 1}).FetchHTML(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, page, body)
}

func TestFetchHTMLCancelAbortsRequest(t *testing.T) {
	t.Parallel()

	aborted := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			close(aborted)
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := New(Config{Timeout: 10 * time.Second}).FetchHTML(ctx, srv.URL)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-aborted:
	case <-time.After(3 * time.Second):
		t.Fatal("server request was not aborted after cancel")
	}
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	hooks := &stubHooks{}
	result := &fetchResult{}
	configureCollectorHooks(hooks, result, 16)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	hooks.onResponse(&colly.Response{StatusCode: http.StatusCreated, Body: []byte("body")})
	assert.Equal(t, http.StatusCreated, result.status)
	assert.Equal(t, "body", string(result.body))

	hooks.onResponse(&colly.Response{StatusCode: http.StatusOK, Body: []byte("0123456789abcdef")})
	require.ErrorIs(t, result.err, ErrBodyTooLarge)

	hooks.onError(&colly.Response{StatusCode: http.StatusBadGateway}, errors.New("boom"))
	assert.Equal(t, http.StatusBadGateway, result.status)
	assert.EqualError(t, result.err, "boom")

	hooks.onError(nil, errors.New("reset"))
	assert.Equal(t, http.StatusBadGateway, result.status)
	assert.EqualError(t, result.err, "reset")
}

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
