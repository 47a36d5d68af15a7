// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/hn-crawler/internal/crawler"
	"github.com/JakeFAU/hn-crawler/internal/hnapi"
	"github.com/JakeFAU/hn-crawler/internal/storage"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Poll    PollConfig    `mapstructure:"poll"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig points at the Hacker News API.
type APIConfig struct {
	Root           string `mapstructure:"root"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PollConfig controls the front page poll loop.
type PollConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
	NumStories      int `mapstructure:"num_stories"`
}

// CrawlerConfig governs the story crawl.
type CrawlerConfig struct {
	RootDir         string `mapstructure:"root_dir"`
	MaxInFlight     int    `mapstructure:"max_in_flight"`
	MaxCommentDepth int    `mapstructure:"max_comment_depth"`
	SkipSeenStories bool   `mapstructure:"skip_seen_stories"`
	UserAgent       string `mapstructure:"user_agent"`
	RespectRobots   bool   `mapstructure:"respect_robots"`
	MaxPageBytes    int    `mapstructure:"max_page_bytes"`
}

// HTTPConfig configures the page download client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// StorageConfig selects where pages are persisted.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// ServerConfig controls the optional ops HTTP server. Port 0 disables it.
type ServerConfig struct {
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Debug       bool   `mapstructure:"debug"`
	File        string `mapstructure:"file"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	return LoadFrom(viper.New(), path)
}

// LoadFrom builds a Config using v, which may already have command line
// flags bound to it. Precedence is flags, environment, file, defaults.
func LoadFrom(v *viper.Viper, path string) (Config, error) {
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.root", hnapi.DefaultRoot)
	v.SetDefault("api.timeout_seconds", 15)
	v.SetDefault("poll.interval_seconds", int(crawler.DefaultInterval/time.Second))
	v.SetDefault("poll.num_stories", crawler.DefaultNumStories)
	v.SetDefault("crawler.root_dir", crawler.DefaultRootDir)
	v.SetDefault("crawler.max_in_flight", 32)
	v.SetDefault("crawler.max_comment_depth", crawler.DefaultMaxCommentDepth)
	v.SetDefault("crawler.skip_seen_stories", true)
	v.SetDefault("crawler.user_agent", "hn-crawler/1.0 (+https://github.com/JakeFAU/hn-crawler)")
	v.SetDefault("crawler.respect_robots", false)
	v.SetDefault("crawler.max_page_bytes", 10*1024*1024)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("storage.backend", storage.BackendLocal)
	v.SetDefault("storage.prefix", "")
	v.SetDefault("server.port", 0)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.debug", false)
	v.SetDefault("logging.file", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.API.Root) == "" {
		return fmt.Errorf("api.root must be set")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be > 0")
	}
	if c.Poll.IntervalSeconds <= 0 {
		return fmt.Errorf("poll.interval_seconds must be > 0")
	}
	if c.Poll.NumStories <= 0 {
		return fmt.Errorf("poll.num_stories must be > 0")
	}
	if c.Crawler.MaxInFlight < 0 {
		return fmt.Errorf("crawler.max_in_flight must be >= 0")
	}
	if c.Crawler.MaxCommentDepth <= 0 {
		return fmt.Errorf("crawler.max_comment_depth must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535")
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage.Backend)) {
	case "", storage.BackendLocal:
		if strings.TrimSpace(c.Crawler.RootDir) == "" {
			return fmt.Errorf("crawler.root_dir must be set for local storage")
		}
	case storage.BackendMemory:
	case storage.BackendGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.backend is gcs")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of local, gcs, memory", c.Storage.Backend)
	}
	return nil
}

// Interval returns the poll interval as a duration.
func (c PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Timeout returns the API request timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the page download timeout.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
