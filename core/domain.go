package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyDelta       = errors.New("core: no revisions after last confirmed")
	ErrInvalidRevision  = errors.New("core: revision must be positive")
	ErrInvalidDeltaSpan = errors.New("core: delta range is inverted")
)

// ChangeKind is the repository-native single-letter action code attached to
// a changed path. Unknown codes pass through verbatim; the relay renders
// whatever the repository reported.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "A"
	ChangeModified ChangeKind = "M"
	ChangeDeleted  ChangeKind = "D"
	ChangeReplaced ChangeKind = "R"
)

type ChangedPath struct {
	Kind ChangeKind
	Path string
}

// CommitRecord is one committed revision as reported by the repository,
// read-only to the relay.
type CommitRecord struct {
	Revision     int64
	Author       string
	Timestamp    time.Time
	Message      string
	ChangedPaths []ChangedPath
}

func (r CommitRecord) Validate() error {
	if r.Revision <= 0 {
		return fmt.Errorf("%w: r%d", ErrInvalidRevision, r.Revision)
	}
	return nil
}

// Delta is the inclusive range of revisions not yet confirmed delivered.
type Delta struct {
	From int64
	To   int64
}

func (d Delta) Validate() error {
	if d.From <= 0 || d.To <= 0 {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidRevision, d.From, d.To)
	}
	if d.From > d.To {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidDeltaSpan, d.From, d.To)
	}
	return nil
}

// Count returns the number of revisions covered by the inclusive range.
func (d Delta) Count() int64 {
	if d.From > d.To {
		return 0
	}
	return d.To - d.From + 1
}

func (d Delta) String() string {
	return fmt.Sprintf("[r%d, r%d]", d.From, d.To)
}

// DeliveryStatus tracks a webhook delivery attempt through the ledger.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// DeliveryRecord is one webhook delivery attempt for one revision. Records
// live only in process memory; they are never consulted for cross-restart
// dedupe.
type DeliveryRecord struct {
	ID        string
	Revision  int64
	Status    DeliveryStatus
	Attempts  int
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrackerState is a read-only snapshot of the relay's mutable state,
// exposed for introspection queries.
type TrackerState struct {
	LastConfirmed int64
	Backoff       time.Duration
}

func NormalizeChangeKind(raw string) ChangeKind {
	return ChangeKind(strings.TrimSpace(raw))
}
