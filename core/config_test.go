package core

import (
	"context"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Repository.URL = "https://svn.example.com/repo"
	cfg.Webhook.URL = "https://discord.example.com/api/webhooks/1/token"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.PollIntervalSeconds != DefaultPollIntervalSeconds {
		t.Fatalf("unexpected poll interval %d", cfg.PollIntervalSeconds)
	}
	if cfg.BackoffStepSeconds != DefaultBackoffStepSeconds {
		t.Fatalf("unexpected backoff step %d", cfg.BackoffStepSeconds)
	}
	if cfg.BackoffMaxSeconds != DefaultBackoffMaxSeconds {
		t.Fatalf("unexpected backoff max %d", cfg.BackoffMaxSeconds)
	}
	if cfg.Webhook.BotName != DefaultBotName {
		t.Fatalf("unexpected bot name %q", cfg.Webhook.BotName)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing repository", func(c *Config) { c.Repository.URL = " " }, "repository.url"},
		{"missing webhook", func(c *Config) { c.Webhook.URL = "" }, "webhook.url"},
		{"zero poll interval", func(c *Config) { c.PollIntervalSeconds = 0 }, "poll_interval_seconds"},
		{"zero backoff step", func(c *Config) { c.BackoffStepSeconds = 0 }, "backoff_step_seconds"},
		{"max below step", func(c *Config) { c.BackoffMaxSeconds = c.BackoffStepSeconds - 1 }, "backoff_max_seconds"},
		{"negative initial revision", func(c *Config) { c.InitialRevision = -1 }, "initial_revision"},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestConfigDurationHelpers(t *testing.T) {
	cfg := validConfig()
	cfg.PollIntervalSeconds = 30
	cfg.BackoffStepSeconds = 15
	cfg.BackoffMaxSeconds = 120

	if cfg.PollInterval() != 30*time.Second {
		t.Fatalf("unexpected poll interval %v", cfg.PollInterval())
	}
	if cfg.BackoffStep() != 15*time.Second {
		t.Fatalf("unexpected backoff step %v", cfg.BackoffStep())
	}
	if cfg.BackoffMax() != 120*time.Second {
		t.Fatalf("unexpected backoff max %v", cfg.BackoffMax())
	}
}

func TestGoOptionsResolverPrecedence(t *testing.T) {
	defaults := DefaultConfig()
	loaded := defaults
	loaded.Repository.URL = "https://svn.example.com/from-file"
	loaded.Webhook.URL = "https://discord.example.com/from-file"
	loaded.PollIntervalSeconds = 30

	runtime := Config{PollIntervalSeconds: 45}

	resolved, err := GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.PollIntervalSeconds != 45 {
		t.Fatalf("expected runtime poll interval to win, got %d", resolved.PollIntervalSeconds)
	}
	if resolved.Repository.URL != "https://svn.example.com/from-file" {
		t.Fatalf("expected file repository url, got %q", resolved.Repository.URL)
	}
	if resolved.BackoffStepSeconds != DefaultBackoffStepSeconds {
		t.Fatalf("expected default backoff step, got %d", resolved.BackoffStepSeconds)
	}
}

func TestGoOptionsResolverValidatesMergedResult(t *testing.T) {
	defaults := DefaultConfig()
	if _, err := (GoOptionsResolver{}).Resolve(defaults, defaults, Config{}); err == nil {
		t.Fatal("expected validation failure when no endpoint is configured")
	}
}

func TestFileRawConfigLoaderEmptyPath(t *testing.T) {
	raw, err := FileRawConfigLoader{}.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("expected empty map for empty path, got %v", err)
	}
	if len(raw) != 0 {
		t.Fatalf("expected empty map, got %v", raw)
	}
}
