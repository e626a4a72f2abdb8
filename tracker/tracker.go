// Package tracker owns the relay's only mutable state: the last revision
// confirmed delivered and the current failure backoff. A Tracker is confined
// to the single relay goroutine, so it carries no locking.
package tracker

import (
	"time"

	"github.com/goliatone/go-commit-relay/core"
)

type Tracker struct {
	lastConfirmed int64
	backoff       time.Duration
	policy        BackoffPolicy
}

// New seeds the tracker with the revision considered already delivered:
// either the operator-supplied initial revision or the repository HEAD
// observed at startup.
func New(initialRevision int64, policy BackoffPolicy) *Tracker {
	if policy == nil {
		policy = StepBackoffPolicy{}
	}
	if initialRevision < 0 {
		initialRevision = 0
	}
	return &Tracker{
		lastConfirmed: initialRevision,
		policy:        policy,
	}
}

func (t *Tracker) LastConfirmed() int64 {
	return t.lastConfirmed
}

// ComputeDelta returns the inclusive range of revisions past the last
// confirmed one, or ok=false when head has nothing new.
func (t *Tracker) ComputeDelta(head int64) (core.Delta, bool) {
	if head <= t.lastConfirmed {
		return core.Delta{}, false
	}
	return core.Delta{From: t.lastConfirmed + 1, To: head}, true
}

// ConfirmAdvance records that every revision up to and including to has been
// delivered. Callers must only invoke it after a full batch succeeds; the
// confirmed revision never moves backwards.
func (t *Tracker) ConfirmAdvance(to int64) {
	if to > t.lastConfirmed {
		t.lastConfirmed = to
	}
}

// OnFailure grows the additional poll delay by the policy's step, capped.
func (t *Tracker) OnFailure() {
	t.backoff = t.policy.Next(t.backoff)
}

// OnSuccess clears the additional poll delay.
func (t *Tracker) OnSuccess() {
	t.backoff = 0
}

func (t *Tracker) Backoff() time.Duration {
	return t.backoff
}
