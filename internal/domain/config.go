package domain

import "time"

type Config struct {
	RootPath          string        `toml:"root_path" mapstructure:"root_path"`
	APIBaseURL        string        `toml:"api_base_url" mapstructure:"api_base_url"`
	APIKey            string        `toml:"api_key" mapstructure:"api_key"`
	Concurrency       int           `toml:"concurrency" mapstructure:"concurrency"`
	MaxPages          int           `toml:"max_pages" mapstructure:"max_pages"`
	RequestTimeout    time.Duration `toml:"request_timeout" mapstructure:"request_timeout"`
	PosterConcurrency int           `toml:"poster_concurrency" mapstructure:"poster_concurrency"`
	SyncSchedule      string        `toml:"sync_schedule" mapstructure:"sync_schedule"`
	DiscordWebhookURL string        `toml:"discord_webhook_url" mapstructure:"discord_webhook_url"`
	LogLevel          string        `toml:"log_level" mapstructure:"log_level"`
}
