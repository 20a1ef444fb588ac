package config

import (
	"time"

	appredis "github.com/Proton-105/spinhall-bot/pkg/redis"
)

// Config holds runtime configuration for the Spinhall bot.
type Config struct {
	AppEnv    string          `mapstructure:"app_env"`
	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Redis     appredis.Config `mapstructure:"redis"`
	API       APIConfig       `mapstructure:"api" validate:"required"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Realtime  RealtimeConfig  `mapstructure:"realtime"`
	I18n      I18nConfig      `mapstructure:"i18n"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token   string        `mapstructure:"token" validate:"required"`
	Mode    string        `mapstructure:"mode" validate:"omitempty,oneof=polling webhook"`
	Timeout time.Duration `mapstructure:"timeout"`
	Webhook string        `mapstructure:"webhook_listen"`
}

// ServerConfig configures the ops HTTP server (health and metrics).
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggerConfig configures slog output.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig toggles error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

// APIConfig points at the casino backend.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	Burst          int           `mapstructure:"burst"`
}

// CatalogConfig tunes catalog screens and caching.
type CatalogConfig struct {
	PageSize         int           `mapstructure:"page_size" validate:"omitempty,min=1,max=50"`
	StaleTime        time.Duration `mapstructure:"stale_time"`
	CacheTime        time.Duration `mapstructure:"cache_time"`
	PremiumProviders []string      `mapstructure:"premium_providers"`
}

// RealtimeConfig selects the realtime channel. An empty URL keeps it disabled.
type RealtimeConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url" validate:"required_if=Enabled true"`
}

// I18nConfig configures translations.
type I18nConfig struct {
	DefaultLang string `mapstructure:"default_lang"`
	Dir         string `mapstructure:"dir"`
}

// RateLimitRule is a limit per window, e.g. 30 per "1m".
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig configures per-user limits on incoming updates.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Financial RateLimitRule `mapstructure:"financial"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

// JobsConfig configures background jobs.
type JobsConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CatalogRefresh    string `mapstructure:"catalog_refresh_cron"`
	WorkerConcurrency int    `mapstructure:"worker_concurrency"`
}

func (c *Config) applyDefaults() {
	if c.AppEnv == "" {
		c.AppEnv = "development"
	}
	if c.Bot.Mode == "" {
		c.Bot.Mode = "polling"
	}
	if c.Bot.Timeout <= 0 {
		c.Bot.Timeout = 10 * time.Second
	}
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 15 * time.Second
	}
	if c.API.RequestsPerSec <= 0 {
		c.API.RequestsPerSec = 20
	}
	if c.API.Burst <= 0 {
		c.API.Burst = 40
	}
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = 8
	}
	if c.Catalog.StaleTime <= 0 {
		c.Catalog.StaleTime = 5 * time.Minute
	}
	if c.Catalog.CacheTime <= 0 {
		c.Catalog.CacheTime = 30 * time.Minute
	}
	if c.I18n.DefaultLang == "" {
		c.I18n.DefaultLang = "en"
	}
	if c.Jobs.CatalogRefresh == "" {
		c.Jobs.CatalogRefresh = "*/15 * * * *"
	}
	if c.Jobs.WorkerConcurrency <= 0 {
		c.Jobs.WorkerConcurrency = 2
	}
}
