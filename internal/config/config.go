package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	HackerNews HackerNewsConfig `yaml:"hackernews"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	LLM        LLMConfig        `yaml:"llm"`
	Server     ServerConfig     `yaml:"server"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Log        LogConfig        `yaml:"log"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// HackerNewsConfig configures the upstream API client.
type HackerNewsConfig struct {
	BaseURL        string  `yaml:"base_url"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	Timeout        string  `yaml:"timeout"`
	MaxRetries     int     `yaml:"max_retries"`
}

// ParseTimeout returns the per-request HTTP timeout.
func (h HackerNewsConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(h.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// PipelineConfig configures ingest runs.
type PipelineConfig struct {
	BatchSize      int    `yaml:"batch_size"`
	Discovery      string `yaml:"discovery"` // "incremental", "topstories", "jobstories" or "frontpage"
	DiscoveryLimit int    `yaml:"discovery_limit"`
	IngestInterval string `yaml:"ingest_interval"`
	FrontPageFeed  string `yaml:"frontpage_feed"`
}

// ParseIngestInterval returns the scheduler ingest interval.
func (p PipelineConfig) ParseIngestInterval() time.Duration {
	d, err := time.ParseDuration(p.IngestInterval)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// LLMConfig configures the chatbot provider.
type LLMConfig struct {
	Provider      string  `yaml:"provider"` // "openai" or "anthropic"
	Model         string  `yaml:"model"`
	APIKey        string  `yaml:"api_key"`
	BaseURL       string  `yaml:"base_url"` // custom endpoint (optional)
	Temperature   float64 `yaml:"temperature"`
	MaxIterations int     `yaml:"max_iterations"` // tool-call loop bound
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// AlertsConfig configures run-summary notification destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook notifications.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook notifications.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook notifications.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./hackernews.db"},
		HackerNews: HackerNewsConfig{
			BaseURL:        "https://hacker-news.firebaseio.com/v0",
			RequestsPerSec: 10,
			Timeout:        "30s",
			MaxRetries:     3,
		},
		Pipeline: PipelineConfig{
			BatchSize:      500,
			Discovery:      "incremental",
			DiscoveryLimit: 100,
			IngestInterval: "15m",
			FrontPageFeed:  "https://hnrss.org/frontpage",
		},
		LLM: LLMConfig{
			Provider:      "openai",
			Model:         "gpt-4o-mini",
			Temperature:   0.7,
			MaxIterations: 5,
		},
		Server: ServerConfig{Port: 8080},
		Alerts: AlertsConfig{},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on configuration the process cannot run without.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("config: database path is required (set database.path or HNAI_DB_PATH)")
	}
	if c.HackerNews.BaseURL == "" {
		return fmt.Errorf("config: hackernews base_url is required")
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("config: unknown llm provider %q", c.LLM.Provider)
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HNAI_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HN_BASE_URL"); v != "" {
		cfg.HackerNews.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
		cfg.LLM.Provider = "openai"
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
		cfg.LLM.Provider = "anthropic"
	}
}

// SetupLogger builds the process-wide slog handler at the configured level.
func (c *Config) SetupLogger() *slog.Logger {
	var level slog.Level
	switch c.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
