package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"github.com/varoOP/kinoshelf/internal/domain"
	"github.com/varoOP/kinoshelf/internal/logger"
)

const (
	DefaultAPIBaseURL        = "https://kinopoiskapiunofficial.tech/api/v2.2"
	DefaultConcurrency       = 4
	DefaultPosterConcurrency = 8
	DefaultRequestTimeout    = 30 * time.Second
	DefaultSyncSchedule      = "0 */6 * * *"
)

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("root_path", ".")
	v.SetDefault("api_base_url", DefaultAPIBaseURL)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("max_pages", 0)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("poster_concurrency", DefaultPosterConcurrency)
	v.SetDefault("sync_schedule", DefaultSyncSchedule)
	v.SetDefault("log_level", "info")
}

// Load loads configuration from multiple sources:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (KINOSHELF_*)
// 3. Command line flags bound by the cli
func Load() (*domain.Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates configuration from v
func LoadFrom(v *viper.Viper) (*domain.Config, error) {
	SetDefaults(v)

	cfg := &domain.Config{
		RootPath:          v.GetString("root_path"),
		APIBaseURL:        v.GetString("api_base_url"),
		APIKey:            v.GetString("api_key"),
		Concurrency:       v.GetInt("concurrency"),
		MaxPages:          v.GetInt("max_pages"),
		RequestTimeout:    v.GetDuration("request_timeout"),
		PosterConcurrency: v.GetInt("poster_concurrency"),
		SyncSchedule:      v.GetString("sync_schedule"),
		DiscordWebhookURL: v.GetString("discord_webhook_url"),
		LogLevel:          v.GetString("log_level"),
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func Validate(cfg *domain.Config) error {
	if cfg.RootPath == "" {
		return fmt.Errorf("root_path is required")
	}

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_base_url: %q (must be an absolute http(s) URL)", cfg.APIBaseURL)
	}

	if cfg.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d (must be at least 1)", cfg.Concurrency)
	}
	if cfg.PosterConcurrency < 1 {
		return fmt.Errorf("invalid poster_concurrency: %d (must be at least 1)", cfg.PosterConcurrency)
	}
	if cfg.MaxPages < 0 {
		return fmt.Errorf("invalid max_pages: %d (must be 0 or positive)", cfg.MaxPages)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request_timeout: %s (must be positive)", cfg.RequestTimeout)
	}

	if _, err := cron.ParseStandard(cfg.SyncSchedule); err != nil {
		return fmt.Errorf("invalid sync_schedule: %q: %v", cfg.SyncSchedule, err)
	}

	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %s", cfg.LogLevel)
	}

	return nil
}
