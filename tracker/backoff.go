package tracker

import "time"

const (
	defaultBackoffStep = 15 * time.Second
	defaultBackoffMax  = 120 * time.Second
)

// BackoffPolicy computes the next additional delay after a failure, given
// the current one. Implementations must cap growth at a fixed ceiling.
type BackoffPolicy interface {
	Next(current time.Duration) time.Duration
}

// StepBackoffPolicy grows the delay by a fixed increment up to Max. Zero
// values fall back to the repository-contact defaults (15s step, 120s cap).
type StepBackoffPolicy struct {
	Step time.Duration
	Max  time.Duration
}

func (p StepBackoffPolicy) Next(current time.Duration) time.Duration {
	step := p.Step
	if step <= 0 {
		step = defaultBackoffStep
	}
	max := p.Max
	if max <= 0 {
		max = defaultBackoffMax
	}
	if current < 0 {
		current = 0
	}
	next := current + step
	if next > max {
		return max
	}
	return next
}
