package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.Root != "https://hacker-news.firebaseio.com/v0/" {
		t.Fatalf("unexpected api root %q", cfg.API.Root)
	}
	if got := cfg.Poll.Interval(); got != 5*time.Second {
		t.Fatalf("expected 5s interval, got %v", got)
	}
	if cfg.Poll.NumStories != 30 {
		t.Fatalf("expected 30 stories, got %d", cfg.Poll.NumStories)
	}
	if cfg.Crawler.RootDir != "./pages" || cfg.Crawler.MaxInFlight != 32 || cfg.Crawler.MaxCommentDepth != 64 {
		t.Fatalf("unexpected crawler defaults: %+v", cfg.Crawler)
	}
	if !cfg.Crawler.SkipSeenStories || cfg.Crawler.RespectRobots {
		t.Fatalf("unexpected crawler toggles: %+v", cfg.Crawler)
	}
	if cfg.Storage.Backend != "local" || cfg.Server.Port != 0 {
		t.Fatalf("unexpected storage/server defaults: %+v %+v", cfg.Storage, cfg.Server)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
api:
  root: http://localhost:9000/v0
  timeout_seconds: 3
poll:
  interval_seconds: 60
  num_stories: 10
crawler:
  root_dir: /tmp/hn
  max_in_flight: 8
  max_comment_depth: 16
  skip_seen_stories: false
  user_agent: test-agent
  respect_robots: true
http:
  timeout_seconds: 45
storage:
  backend: gcs
  gcs_bucket: bucket
  prefix: crawl
server:
  port: 9090
  api_key: secret
logging:
  development: true
  debug: true
  file: /tmp/hn.log
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.Root != "http://localhost:9000/v0" || cfg.API.Timeout() != 3*time.Second {
		t.Fatalf("expected api overrides to apply: %+v", cfg.API)
	}
	if cfg.Poll.Interval() != time.Minute || cfg.Poll.NumStories != 10 {
		t.Fatalf("expected poll overrides to apply: %+v", cfg.Poll)
	}
	if cfg.Crawler.RootDir != "/tmp/hn" || cfg.Crawler.MaxInFlight != 8 || cfg.Crawler.SkipSeenStories {
		t.Fatalf("expected crawler overrides to apply: %+v", cfg.Crawler)
	}
	if cfg.Storage.Backend != "gcs" || cfg.Storage.GCSBucket != "bucket" || cfg.Storage.Prefix != "crawl" {
		t.Fatalf("expected storage overrides to apply: %+v", cfg.Storage)
	}
	if cfg.Server.Port != 9090 || cfg.Server.APIKey != "secret" {
		t.Fatalf("expected server overrides to apply: %+v", cfg.Server)
	}
	if !cfg.Logging.Debug || cfg.Logging.File != "/tmp/hn.log" {
		t.Fatalf("expected logging overrides to apply: %+v", cfg.Logging)
	}
	if got := cfg.HTTP.Timeout(); got != 45*time.Second {
		t.Fatalf("expected http timeout 45s, got %v", got)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("CRAWLER_POLL_NUM_STORIES", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Poll.NumStories != 7 {
		t.Fatalf("expected env override 7, got %d", cfg.Poll.NumStories)
	}
}

func TestLoadFromUsesBoundValues(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.Set("poll.interval_seconds", 2)
	v.Set("logging.debug", true)

	cfg, err := LoadFrom(v, "")
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Poll.IntervalSeconds != 2 || !cfg.Logging.Debug {
		t.Fatalf("expected explicit values to win: %+v %+v", cfg.Poll, cfg.Logging)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		API:     APIConfig{Root: "https://hacker-news.firebaseio.com/v0/", TimeoutSeconds: 5},
		Poll:    PollConfig{IntervalSeconds: 5, NumStories: 30},
		Crawler: CrawlerConfig{RootDir: "./pages", MaxInFlight: 4, MaxCommentDepth: 8},
		HTTP:    HTTPConfig{TimeoutSeconds: 10},
		Storage: StorageConfig{Backend: "local"},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should be valid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing api root", func(c *Config) { c.API.Root = "" }, "api.root"},
		{"invalid api timeout", func(c *Config) { c.API.TimeoutSeconds = 0 }, "api.timeout_seconds"},
		{"invalid interval", func(c *Config) { c.Poll.IntervalSeconds = 0 }, "poll.interval_seconds"},
		{"invalid num stories", func(c *Config) { c.Poll.NumStories = -1 }, "poll.num_stories"},
		{"negative in flight", func(c *Config) { c.Crawler.MaxInFlight = -1 }, "crawler.max_in_flight"},
		{"invalid depth", func(c *Config) { c.Crawler.MaxCommentDepth = 0 }, "crawler.max_comment_depth"},
		{"invalid timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, "http.timeout_seconds"},
		{"invalid port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"missing root dir", func(c *Config) { c.Crawler.RootDir = " " }, "crawler.root_dir"},
		{"gcs without bucket", func(c *Config) { c.Storage.Backend = "gcs" }, "storage.gcs_bucket"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }, "storage.backend"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
