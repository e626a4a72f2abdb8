// Package query exposes the relay's read operations behind go-command
// queriers: repository head, commit log ranges, tracker state, and the
// recent delivery ledger.
package query

import (
	"context"
	"time"

	"github.com/goliatone/go-commit-relay/core"
)

// TrackerReader reads the relay's mutable state without touching it.
type TrackerReader interface {
	LastConfirmed() int64
	Backoff() time.Duration
}

// DeliveryReader lists recent delivery attempts, newest first.
type DeliveryReader interface {
	Recent(limit int) []core.DeliveryRecord
}

type HeadRevisionQuery struct {
	repository core.RepositoryClient
}

func NewHeadRevisionQuery(repository core.RepositoryClient) *HeadRevisionQuery {
	return &HeadRevisionQuery{repository: repository}
}

func (q *HeadRevisionQuery) Query(ctx context.Context, msg HeadRevisionMessage) (int64, error) {
	if q == nil || q.repository == nil {
		return 0, queryDependencyError("query: repository client is required")
	}
	return q.repository.Head(ctx)
}

type CommitLogQuery struct {
	repository core.RepositoryClient
}

func NewCommitLogQuery(repository core.RepositoryClient) *CommitLogQuery {
	return &CommitLogQuery{repository: repository}
}

func (q *CommitLogQuery) Query(ctx context.Context, msg CommitLogMessage) ([]core.CommitRecord, error) {
	if q == nil || q.repository == nil {
		return nil, queryDependencyError("query: repository client is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, queryInvalidInputError(err.Error())
	}
	return q.repository.Log(ctx, msg.Delta)
}

type TrackerStateQuery struct {
	reader TrackerReader
}

func NewTrackerStateQuery(reader TrackerReader) *TrackerStateQuery {
	return &TrackerStateQuery{reader: reader}
}

func (q *TrackerStateQuery) Query(_ context.Context, _ TrackerStateMessage) (core.TrackerState, error) {
	if q == nil || q.reader == nil {
		return core.TrackerState{}, queryDependencyError("query: tracker reader is required")
	}
	return core.TrackerState{
		LastConfirmed: q.reader.LastConfirmed(),
		Backoff:       q.reader.Backoff(),
	}, nil
}

type RecentDeliveriesQuery struct {
	reader DeliveryReader
}

func NewRecentDeliveriesQuery(reader DeliveryReader) *RecentDeliveriesQuery {
	return &RecentDeliveriesQuery{reader: reader}
}

func (q *RecentDeliveriesQuery) Query(_ context.Context, msg RecentDeliveriesMessage) ([]core.DeliveryRecord, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: delivery reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, queryInvalidInputError(err.Error())
	}
	return q.reader.Recent(msg.Limit), nil
}
