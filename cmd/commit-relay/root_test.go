package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-commit-relay/core"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestResolveConfigDefaultsApply(t *testing.T) {
	flags := &rootFlags{
		repositoryURL: "https://svn.example.com/repo",
		webhookURL:    "https://discord.example.com/api/webhooks/1/token",
	}

	cfg, err := resolveConfig(context.Background(), flags, nil)
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if cfg.PollIntervalSeconds != core.DefaultPollIntervalSeconds {
		t.Fatalf("expected default poll interval, got %d", cfg.PollIntervalSeconds)
	}
	if cfg.Webhook.BotName != core.DefaultBotName {
		t.Fatalf("expected default bot name, got %q", cfg.Webhook.BotName)
	}
	if cfg.LogLevel != "warning" {
		t.Fatalf("expected default log level, got %q", cfg.LogLevel)
	}
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, `
repository:
  url: https://svn.example.com/from-file
webhook:
  url: https://discord.example.com/from-file
poll_interval_seconds: 30
`)
	flags := &rootFlags{
		configPath:  path,
		pollSeconds: 45,
		botName:     "buildbot",
	}

	cfg, err := resolveConfig(context.Background(), flags, nil)
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if cfg.PollIntervalSeconds != 45 {
		t.Fatalf("expected flag poll interval 45, got %d", cfg.PollIntervalSeconds)
	}
	if cfg.Repository.URL != "https://svn.example.com/from-file" {
		t.Fatalf("expected file repository url to survive, got %q", cfg.Repository.URL)
	}
	if cfg.Webhook.BotName != "buildbot" {
		t.Fatalf("expected flag bot name, got %q", cfg.Webhook.BotName)
	}
}

func TestResolveConfigPositionalArgsWin(t *testing.T) {
	flags := &rootFlags{
		repositoryURL: "https://svn.example.com/from-flag",
		webhookURL:    "https://discord.example.com/from-flag",
	}
	args := []string{
		"https://svn.example.com/from-arg",
		"https://discord.example.com/from-arg",
	}

	cfg, err := resolveConfig(context.Background(), flags, args)
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if cfg.Repository.URL != "https://svn.example.com/from-arg" {
		t.Fatalf("expected positional repository url, got %q", cfg.Repository.URL)
	}
	if cfg.Webhook.URL != "https://discord.example.com/from-arg" {
		t.Fatalf("expected positional webhook url, got %q", cfg.Webhook.URL)
	}
}

func TestResolveConfigRejectsMissingRepository(t *testing.T) {
	flags := &rootFlags{webhookURL: "https://discord.example.com/api/webhooks/1/token"}

	if _, err := resolveConfig(context.Background(), flags, nil); err == nil {
		t.Fatal("expected error for missing repository url")
	}
}

func TestExitCodeOf(t *testing.T) {
	repoErr := core.NewConnectError(errors.New("refused"), core.RelayErrorRepositoryConnect, "repository unreachable")
	hookErr := core.NewConnectError(errors.New("401"), core.RelayErrorWebhookConnect, "webhook rejected")

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"repository connect", repoErr, exitRepositoryConnect},
		{"webhook connect", hookErr, exitWebhookConnect},
		{"usage", usageError{cause: errors.New("bad flag")}, exitUsage},
		{"plain", errors.New("boom"), exitUsage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCodeOf(tc.err); got != tc.want {
				t.Fatalf("expected exit code %d, got %d", tc.want, got)
			}
		})
	}
}

func TestResolveConfigRejectsUnknownLogLevel(t *testing.T) {
	flags := &rootFlags{
		repositoryURL: "https://svn.example.com/repo",
		webhookURL:    "https://discord.example.com/api/webhooks/1/token",
		logLevel:      "loud",
	}

	if _, err := resolveConfig(context.Background(), flags, nil); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestRootCommandRegistersOnceFlag(t *testing.T) {
	cmd := newRootCmd()
	if cmd.Flags().Lookup("once") == nil {
		t.Fatal("expected --once flag")
	}
}
