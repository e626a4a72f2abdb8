package relay

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-commit-relay/core"
)

const defaultLedgerCapacity = 256

// Ledger keeps an in-memory record of recent delivery attempts for
// introspection. It is bounded, process-local, and never consulted for
// dedupe: at-least-once semantics come from the tracker, not from here.
type Ledger struct {
	mu       sync.Mutex
	capacity int
	order    []string
	records  map[string]core.DeliveryRecord
	nowFn    func() time.Time
}

func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = defaultLedgerCapacity
	}
	return &Ledger{
		capacity: capacity,
		records:  map[string]core.DeliveryRecord{},
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// Begin opens a pending record for one revision and returns its ID.
func (l *Ledger) Begin(revision int64) core.DeliveryRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	record := core.DeliveryRecord{
		ID:        uuid.NewString(),
		Revision:  revision,
		Status:    core.DeliveryStatusPending,
		Attempts:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	l.insertLocked(record)
	return record
}

func (l *Ledger) Complete(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.records[id]
	if !ok {
		return
	}
	record.Status = core.DeliveryStatusDelivered
	record.Error = ""
	record.UpdatedAt = l.nowFn()
	l.records[id] = record
}

func (l *Ledger) Fail(id string, cause error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.records[id]
	if !ok {
		return
	}
	record.Status = core.DeliveryStatusFailed
	if cause != nil {
		record.Error = strings.TrimSpace(cause.Error())
	}
	record.UpdatedAt = l.nowFn()
	l.records[id] = record
}

// Recent returns up to limit records, newest first.
func (l *Ledger) Recent(limit int) []core.DeliveryRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 || limit > len(l.order) {
		limit = len(l.order)
	}
	out := make([]core.DeliveryRecord, 0, limit)
	for i := len(l.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.records[l.order[i]])
	}
	return out
}

func (l *Ledger) insertLocked(record core.DeliveryRecord) {
	l.order = append(l.order, record.ID)
	l.records[record.ID] = record
	for len(l.order) > l.capacity {
		evicted := l.order[0]
		l.order = l.order[1:]
		delete(l.records, evicted)
	}
}
