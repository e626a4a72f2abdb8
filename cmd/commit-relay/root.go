package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-commit-relay/command"
	"github.com/goliatone/go-commit-relay/core"
	"github.com/goliatone/go-commit-relay/discord"
	"github.com/goliatone/go-commit-relay/relay"
	"github.com/goliatone/go-commit-relay/svn"
)

// Exit codes are part of the CLI contract: supervisors restart on 1 and 2
// but treat 0 as an operator-requested shutdown.
const (
	exitOK                = 0
	exitRepositoryConnect = 1
	exitWebhookConnect    = 2
	exitUsage             = 3
)

type rootFlags struct {
	configPath      string
	repositoryURL   string
	webhookURL      string
	username        string
	password        string
	pollSeconds     int
	backoffStep     int
	backoffMax      int
	botName         string
	avatarPath      string
	logLevel        string
	initialRevision int64
	once            bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "commit-relay [repository-url] [webhook-url]",
		Short: "Relay new SVN commits to a Discord webhook",
		Long: `commit-relay polls a Subversion repository for revisions newer than the
last one it delivered and posts each commit to a Discord webhook as a
fixed-layout code block. Delivery is oldest-first and at-least-once; the
relay never skips a revision to get past a failing one.

Positional arguments override the matching config file entries; flags
override both.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd.Context(), flags, args)
			if err != nil {
				return usageError{cause: err}
			}
			return runRelay(cmd.Context(), cfg, flags.once)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().StringVar(&flags.repositoryURL, "repo", "", "SVN repository URL")
	cmd.Flags().StringVar(&flags.webhookURL, "hook", "", "Discord webhook URL")
	cmd.Flags().StringVarP(&flags.username, "user", "u", "", "SVN username")
	cmd.Flags().StringVarP(&flags.password, "password", "p", "", "SVN password")
	cmd.Flags().IntVarP(&flags.pollSeconds, "poll-time", "t", 0, "seconds between polls (default 120)")
	cmd.Flags().IntVar(&flags.backoffStep, "backoff-step", 0, "seconds added to the delay after each failed cycle (default 15)")
	cmd.Flags().IntVar(&flags.backoffMax, "backoff-max", 0, "ceiling in seconds for the failure delay (default 120)")
	cmd.Flags().StringVarP(&flags.botName, "name", "n", "", "bot name shown on the webhook (default \"relay\")")
	cmd.Flags().StringVarP(&flags.avatarPath, "avatar", "a", "", "path to an image used as the webhook avatar")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "log verbosity: debug, info, warning, error (default \"warning\")")
	cmd.Flags().Int64VarP(&flags.initialRevision, "revision", "r", 0, "replay history starting after this revision instead of the current head")
	cmd.Flags().BoolVar(&flags.once, "once", false, "run a single poll cycle and exit")

	return cmd
}

// resolveConfig layers compiled-in defaults, the optional config file, and
// runtime flags in increasing precedence. Flag zero values never mask file
// entries because the resolver drops them from the runtime layer.
func resolveConfig(ctx context.Context, flags *rootFlags, args []string) (core.Config, error) {
	runtime := core.Config{
		Repository: core.RepositoryConfig{
			URL:      flags.repositoryURL,
			Username: flags.username,
			Password: flags.password,
		},
		Webhook: core.WebhookConfig{
			URL:        flags.webhookURL,
			BotName:    flags.botName,
			AvatarPath: flags.avatarPath,
		},
		PollIntervalSeconds: flags.pollSeconds,
		BackoffStepSeconds:  flags.backoffStep,
		BackoffMaxSeconds:   flags.backoffMax,
		InitialRevision:     flags.initialRevision,
		LogLevel:            flags.logLevel,
	}
	if len(args) > 0 {
		runtime.Repository.URL = args[0]
	}
	if len(args) > 1 {
		runtime.Webhook.URL = args[1]
	}

	defaults := core.DefaultConfig()
	provider := core.NewCfgxConfigProvider(core.FileRawConfigLoader{Path: flags.configPath})
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return core.Config{}, err
	}

	return core.GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
}

func runRelay(ctx context.Context, cfg core.Config, once bool) error {
	repository := svn.NewClient(cfg.Repository.URL, cfg.Repository.Username, cfg.Repository.Password)
	webhook := discord.NewClient(cfg.Webhook.URL, nil)

	provider, logger, err := core.ResolveLeveledLogger("commit-relay", cfg.LogLevel)
	if err != nil {
		return usageError{cause: err}
	}

	avatar, err := discord.LoadAvatar(cfg.Webhook.AvatarPath)
	if err != nil {
		// A broken avatar must not keep commits from flowing.
		fmt.Fprintf(os.Stderr, "commit-relay: avatar skipped: %v\n", err)
		avatar = nil
	}

	service, err := relay.NewFromConfig(repository, webhook, cfg,
		relay.WithProfile(cfg.Webhook.BotName, avatar),
		relay.WithLoggerProvider(provider),
		relay.WithLogger(logger),
	)
	if err != nil {
		return usageError{cause: err}
	}

	if once {
		if err := service.Bootstrap(ctx); err != nil {
			return err
		}
		poll := command.NewPollOnceCommand(service)
		return poll.Execute(ctx, command.PollOnceMessage{})
	}
	return service.Run(ctx)
}

// usageError marks configuration and wiring failures so they exit with a
// code distinct from the connect failures supervisors restart on.
type usageError struct {
	cause error
}

func (e usageError) Error() string { return e.cause.Error() }
func (e usageError) Unwrap() error { return e.cause }

func exitCodeOf(err error) int {
	if err == nil {
		return exitOK
	}
	switch core.ErrorTextCode(err) {
	case core.RelayErrorRepositoryConnect:
		return exitRepositoryConnect
	case core.RelayErrorWebhookConnect:
		return exitWebhookConnect
	}
	return exitUsage
}
