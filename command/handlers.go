// Package command exposes the relay's mutating operations behind go-command
// message handlers, so hosts can trigger poll cycles or one-off deliveries
// through a command bus instead of holding the service directly.
package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-commit-relay/core"
)

// PollService runs one poll/deliver cycle.
type PollService interface {
	PollOnce(ctx context.Context) error
}

type PollOnceCommand struct {
	service PollService
}

func NewPollOnceCommand(service PollService) *PollOnceCommand {
	return &PollOnceCommand{service: service}
}

func (c *PollOnceCommand) Execute(ctx context.Context, msg PollOnceMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: poll service is required")
	}
	return c.service.PollOnce(ctx)
}

type SendCommitCommand struct {
	webhook   core.WebhookClient
	formatter core.CommitFormatter
}

func NewSendCommitCommand(webhook core.WebhookClient, formatter core.CommitFormatter) *SendCommitCommand {
	return &SendCommitCommand{webhook: webhook, formatter: formatter}
}

// Execute formats and delivers a single commit outside the poll loop, for
// operator-driven resends. The formatted block is stored on the bus result.
func (c *SendCommitCommand) Execute(ctx context.Context, msg SendCommitMessage) error {
	if c == nil || c.webhook == nil || c.formatter == nil {
		return commandDependencyError("command: webhook client and formatter are required")
	}
	if err := msg.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	content := c.formatter.Format(msg.Record)
	if err := c.webhook.Send(ctx, content); err != nil {
		return err
	}
	storeResult(ctx, content)
	return nil
}

type UpdateProfileCommand struct {
	profile core.WebhookProfileClient
}

func NewUpdateProfileCommand(profile core.WebhookProfileClient) *UpdateProfileCommand {
	return &UpdateProfileCommand{profile: profile}
}

func (c *UpdateProfileCommand) Execute(ctx context.Context, msg UpdateProfileMessage) error {
	if c == nil || c.profile == nil {
		return commandDependencyError("command: webhook profile client is required")
	}
	if err := msg.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	return c.profile.Modify(ctx, msg.Name, msg.Avatar)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
