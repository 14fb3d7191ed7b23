// Package config loads the crawl plan and runtime settings from YAML with
// environment overrides for credentials.
package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv       = "SOCIAL_PULSE_CONFIG"
	xBearerTokenEnv     = "X_BEARER_TOKEN"
	youtubeAPIKeyEnv    = "YOUTUBE_API_KEY"
	instagramSessionEnv = "INSTAGRAM_SESSION_ID"
	blogClientIDEnv     = "BLOG_CLIENT_ID"
	blogClientSecretEnv = "BLOG_CLIENT_SECRET"
)

// Duration wraps time.Duration so YAML values like "1s" or "15m" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds high-level settings required across the application.
type Config struct {
	Crawl       CrawlConfig               `yaml:"crawl"`
	Platforms   map[string]PlatformConfig `yaml:"platforms"`
	Credentials CredentialsConfig         `yaml:"credentials"`
	Dedup       DedupConfig               `yaml:"dedup"`
	Stream      StreamConfig              `yaml:"stream"`
	Worker      WorkerConfig              `yaml:"worker"`
}

// CrawlConfig describes the keyword set and the ingestion window.
type CrawlConfig struct {
	Keywords []string `yaml:"keywords"`
	Since    string   `yaml:"since"`
	Until    string   `yaml:"until"`
}

// Window resolves the configured since/until strings. Both are optional
// and parsed as dates or full timestamps.
func (c CrawlConfig) Window() (since, until *time.Time) {
	return parseBound(c.Since), parseBound(c.Until)
}

func parseBound(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	log.Printf("config: cannot parse time bound %q, ignoring", s)
	return nil
}

// PlatformConfig tunes one platform's pipelines.
type PlatformConfig struct {
	Enabled     bool     `yaml:"enabled"`
	MaxPages    int      `yaml:"maxPages"`
	PageSize    int      `yaml:"pageSize"`
	MaxComments int      `yaml:"maxComments"`
	MinDelay    Duration `yaml:"minDelay"`
	MaxRetries  int      `yaml:"maxRetries"`
	Workers     int      `yaml:"workers"`
}

// CredentialsConfig wires per-platform API credentials. Environment
// variables take precedence over file values.
type CredentialsConfig struct {
	XBearerToken     string `yaml:"xBearerToken"`
	YouTubeAPIKey    string `yaml:"youtubeApiKey"`
	InstagramSession string `yaml:"instagramSessionId"`
	BlogClientID     string `yaml:"blogClientId"`
	BlogClientSecret string `yaml:"blogClientSecret"`
}

// DedupConfig tunes near-duplicate detection.
type DedupConfig struct {
	SimilarityThreshold float64 `yaml:"similarityThreshold"`
}

// StreamConfig enables the live sampled-stream consumer.
type StreamConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// WorkerConfig defines the background service cadence.
type WorkerConfig struct {
	IngestInterval Duration `yaml:"ingestInterval"`
	ScoreInterval  Duration `yaml:"scoreInterval"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func defaultConfig() Config {
	return Config{
		Platforms: map[string]PlatformConfig{
			"x": {
				Enabled:    true,
				MaxPages:   10,
				PageSize:   100,
				MinDelay:   Duration(time.Second),
				MaxRetries: 3,
				Workers:    2,
			},
			"instagram": {
				Enabled:     true,
				MaxPages:    10,
				PageSize:    50,
				MaxComments: 20,
				MinDelay:    Duration(2 * time.Second),
				MaxRetries:  3,
				Workers:     1,
			},
			"youtube": {
				Enabled:     true,
				MaxPages:    20,
				PageSize:    50,
				MaxComments: 50,
				MinDelay:    Duration(time.Second),
				MaxRetries:  3,
				Workers:     2,
			},
			"blog": {
				Enabled:     true,
				MaxPages:    30,
				PageSize:    100,
				MaxComments: 50,
				MinDelay:    Duration(time.Second),
				MaxRetries:  3,
				Workers:     2,
			},
		},
		Dedup: DedupConfig{SimilarityThreshold: 0.85},
		Worker: WorkerConfig{
			IngestInterval: Duration(time.Hour),
			ScoreInterval:  Duration(15 * time.Minute),
		},
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(xBearerTokenEnv); v != "" {
		c.Credentials.XBearerToken = v
	}
	if v := os.Getenv(youtubeAPIKeyEnv); v != "" {
		c.Credentials.YouTubeAPIKey = v
	}
	if v := os.Getenv(instagramSessionEnv); v != "" {
		c.Credentials.InstagramSession = v
	}
	if v := os.Getenv(blogClientIDEnv); v != "" {
		c.Credentials.BlogClientID = v
	}
	if v := os.Getenv(blogClientSecretEnv); v != "" {
		c.Credentials.BlogClientSecret = v
	}
}

func mergeConfig(base, override Config) Config {
	if len(override.Crawl.Keywords) > 0 {
		base.Crawl.Keywords = override.Crawl.Keywords
	}
	if override.Crawl.Since != "" {
		base.Crawl.Since = override.Crawl.Since
	}
	if override.Crawl.Until != "" {
		base.Crawl.Until = override.Crawl.Until
	}

	for name, pc := range override.Platforms {
		base.Platforms[name] = mergePlatform(base.Platforms[name], pc)
	}

	if override.Credentials.XBearerToken != "" {
		base.Credentials.XBearerToken = override.Credentials.XBearerToken
	}
	if override.Credentials.YouTubeAPIKey != "" {
		base.Credentials.YouTubeAPIKey = override.Credentials.YouTubeAPIKey
	}
	if override.Credentials.InstagramSession != "" {
		base.Credentials.InstagramSession = override.Credentials.InstagramSession
	}
	if override.Credentials.BlogClientID != "" {
		base.Credentials.BlogClientID = override.Credentials.BlogClientID
	}
	if override.Credentials.BlogClientSecret != "" {
		base.Credentials.BlogClientSecret = override.Credentials.BlogClientSecret
	}

	if override.Dedup.SimilarityThreshold > 0 {
		base.Dedup.SimilarityThreshold = override.Dedup.SimilarityThreshold
	}

	if override.Stream.Enabled {
		base.Stream = override.Stream
	}

	if override.Worker.IngestInterval > 0 {
		base.Worker.IngestInterval = override.Worker.IngestInterval
	}
	if override.Worker.ScoreInterval > 0 {
		base.Worker.ScoreInterval = override.Worker.ScoreInterval
	}

	return base
}

// mergePlatform folds a YAML platform entry over the defaults field by
// field, so `enabled: false` alone does not zero the tuning knobs.
func mergePlatform(base, override PlatformConfig) PlatformConfig {
	base.Enabled = override.Enabled
	if override.MaxPages > 0 {
		base.MaxPages = override.MaxPages
	}
	if override.PageSize > 0 {
		base.PageSize = override.PageSize
	}
	if override.MaxComments > 0 {
		base.MaxComments = override.MaxComments
	}
	if override.MinDelay > 0 {
		base.MinDelay = override.MinDelay
	}
	if override.MaxRetries > 0 {
		base.MaxRetries = override.MaxRetries
	}
	if override.Workers > 0 {
		base.Workers = override.Workers
	}
	return base
}
