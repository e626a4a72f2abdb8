package query

import (
	"fmt"

	"github.com/goliatone/go-commit-relay/core"
)

const (
	TypeHeadRevision     = "relay.query.head_revision"
	TypeCommitLog        = "relay.query.commit_log"
	TypeTrackerState     = "relay.query.tracker_state"
	TypeRecentDeliveries = "relay.query.deliveries.recent"
)

type HeadRevisionMessage struct{}

func (HeadRevisionMessage) Type() string { return TypeHeadRevision }

func (HeadRevisionMessage) Validate() error { return nil }

type CommitLogMessage struct {
	Delta core.Delta
}

func (CommitLogMessage) Type() string { return TypeCommitLog }

func (m CommitLogMessage) Validate() error {
	return m.Delta.Validate()
}

type TrackerStateMessage struct{}

func (TrackerStateMessage) Type() string { return TypeTrackerState }

func (TrackerStateMessage) Validate() error { return nil }

type RecentDeliveriesMessage struct {
	Limit int
}

func (RecentDeliveriesMessage) Type() string { return TypeRecentDeliveries }

func (m RecentDeliveriesMessage) Validate() error {
	if m.Limit < 0 {
		return fmt.Errorf("query: limit must not be negative")
	}
	return nil
}
