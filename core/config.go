package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPollIntervalSeconds = 120
	DefaultBackoffStepSeconds  = 15
	DefaultBackoffMaxSeconds   = 120
	DefaultBotName             = "relay"
)

type RepositoryConfig struct {
	URL      string `koanf:"url" mapstructure:"url"`
	Username string `koanf:"username" mapstructure:"username"`
	Password string `koanf:"password" mapstructure:"password"`
}

type WebhookConfig struct {
	URL        string `koanf:"url" mapstructure:"url"`
	BotName    string `koanf:"bot_name" mapstructure:"bot_name"`
	AvatarPath string `koanf:"avatar_path" mapstructure:"avatar_path"`
}

type Config struct {
	Repository          RepositoryConfig `koanf:"repository" mapstructure:"repository"`
	Webhook             WebhookConfig    `koanf:"webhook" mapstructure:"webhook"`
	PollIntervalSeconds int              `koanf:"poll_interval_seconds" mapstructure:"poll_interval_seconds"`
	BackoffStepSeconds  int              `koanf:"backoff_step_seconds" mapstructure:"backoff_step_seconds"`
	BackoffMaxSeconds   int              `koanf:"backoff_max_seconds" mapstructure:"backoff_max_seconds"`
	InitialRevision     int64            `koanf:"initial_revision" mapstructure:"initial_revision"`
	LogLevel            string           `koanf:"log_level" mapstructure:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		Webhook: WebhookConfig{
			BotName: DefaultBotName,
		},
		PollIntervalSeconds: DefaultPollIntervalSeconds,
		BackoffStepSeconds:  DefaultBackoffStepSeconds,
		BackoffMaxSeconds:   DefaultBackoffMaxSeconds,
		LogLevel:            "warning",
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Repository.URL) == "" {
		return fmt.Errorf("core: repository.url is required")
	}
	if strings.TrimSpace(c.Webhook.URL) == "" {
		return fmt.Errorf("core: webhook.url is required")
	}
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("core: poll_interval_seconds must be positive")
	}
	if c.BackoffStepSeconds <= 0 {
		return fmt.Errorf("core: backoff_step_seconds must be positive")
	}
	if c.BackoffMaxSeconds < c.BackoffStepSeconds {
		return fmt.Errorf("core: backoff_max_seconds must be >= backoff_step_seconds")
	}
	if c.InitialRevision < 0 {
		return fmt.Errorf("core: initial_revision must not be negative")
	}
	if strings.TrimSpace(c.LogLevel) != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return fmt.Errorf("core: log_level: %w", err)
		}
	}
	return nil
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c Config) BackoffStep() time.Duration {
	return time.Duration(c.BackoffStepSeconds) * time.Second
}

func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxSeconds) * time.Second
}
