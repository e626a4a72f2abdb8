package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-commit-relay/core"
)

const (
	TypePollOnce      = "relay.command.poll_once"
	TypeSendCommit    = "relay.command.commit.send"
	TypeUpdateProfile = "relay.command.profile.update"
)

type PollOnceMessage struct{}

func (PollOnceMessage) Type() string { return TypePollOnce }

func (PollOnceMessage) Validate() error { return nil }

type SendCommitMessage struct {
	Record core.CommitRecord
}

func (SendCommitMessage) Type() string { return TypeSendCommit }

func (m SendCommitMessage) Validate() error {
	return m.Record.Validate()
}

type UpdateProfileMessage struct {
	Name   string
	Avatar []byte
}

func (UpdateProfileMessage) Type() string { return TypeUpdateProfile }

func (m UpdateProfileMessage) Validate() error {
	if strings.TrimSpace(m.Name) == "" && len(m.Avatar) == 0 {
		return fmt.Errorf("command: profile update requires a name or an avatar")
	}
	return nil
}
