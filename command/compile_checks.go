package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[PollOnceMessage]      = (*PollOnceCommand)(nil)
	_ gocmd.Commander[SendCommitMessage]    = (*SendCommitCommand)(nil)
	_ gocmd.Commander[UpdateProfileMessage] = (*UpdateProfileCommand)(nil)
)
