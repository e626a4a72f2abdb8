package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-commit-relay/core"
)

var (
	_ gocmd.Querier[HeadRevisionMessage, int64]                     = (*HeadRevisionQuery)(nil)
	_ gocmd.Querier[CommitLogMessage, []core.CommitRecord]          = (*CommitLogQuery)(nil)
	_ gocmd.Querier[TrackerStateMessage, core.TrackerState]         = (*TrackerStateQuery)(nil)
	_ gocmd.Querier[RecentDeliveriesMessage, []core.DeliveryRecord] = (*RecentDeliveriesQuery)(nil)
)
