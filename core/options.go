package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

// ConfigProvider loads configuration on top of compiled-in defaults.
type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

// RawConfigLoader produces the raw key/value map backing a ConfigProvider,
// typically parsed from a config file.
type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

// OptionsResolver merges defaults, file-loaded, and runtime (flag-supplied)
// configuration in increasing precedence.
type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	// No validator here: a file may carry a partial config that only
	// becomes valid once runtime flags merge in via the resolver.
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}

	repository := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Repository.URL) != "" {
		repository["url"] = cfg.Repository.URL
	}
	if includeZero || strings.TrimSpace(cfg.Repository.Username) != "" {
		repository["username"] = cfg.Repository.Username
	}
	if includeZero || strings.TrimSpace(cfg.Repository.Password) != "" {
		repository["password"] = cfg.Repository.Password
	}
	if len(repository) > 0 {
		layer["repository"] = repository
	}

	webhook := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Webhook.URL) != "" {
		webhook["url"] = cfg.Webhook.URL
	}
	if includeZero || strings.TrimSpace(cfg.Webhook.BotName) != "" {
		webhook["bot_name"] = cfg.Webhook.BotName
	}
	if includeZero || strings.TrimSpace(cfg.Webhook.AvatarPath) != "" {
		webhook["avatar_path"] = cfg.Webhook.AvatarPath
	}
	if len(webhook) > 0 {
		layer["webhook"] = webhook
	}

	if includeZero || cfg.PollIntervalSeconds > 0 {
		layer["poll_interval_seconds"] = cfg.PollIntervalSeconds
	}
	if includeZero || cfg.BackoffStepSeconds > 0 {
		layer["backoff_step_seconds"] = cfg.BackoffStepSeconds
	}
	if includeZero || cfg.BackoffMaxSeconds > 0 {
		layer["backoff_max_seconds"] = cfg.BackoffMaxSeconds
	}
	if includeZero || cfg.InitialRevision > 0 {
		layer["initial_revision"] = cfg.InitialRevision
	}
	if includeZero || strings.TrimSpace(cfg.LogLevel) != "" {
		layer["log_level"] = cfg.LogLevel
	}
	return layer
}
