package game

import (
	"time"

	"github.com/dom/card-chess/internal/domain"
)

// Queue pairs waiting connections by mode in arrival order.
type Queue struct {
	entries []domain.WaitingEntry
	now     func() time.Time
}

func NewQueue(now func() time.Time) *Queue {
	return &Queue{now: now}
}

// Enqueue matches connID against the first waiting entry with the same mode.
// A stale match is discarded and connID waits instead. It returns the
// opponent's connection id when a pairing was made.
func (q *Queue) Enqueue(connID string, mode domain.Mode, isConnected func(string) bool) (string, bool) {
	q.Remove(connID)

	for i, e := range q.entries {
		if e.Mode != mode {
			continue
		}
		q.entries = append(q.entries[:i:i], q.entries[i+1:]...)
		if !isConnected(e.ConnID) {
			break
		}
		return e.ConnID, true
	}

	q.entries = append(q.entries, domain.WaitingEntry{ConnID: connID, Mode: mode, QueuedAt: q.now()})
	return "", false
}

// Remove drops any entry for connID. It reports whether one was present.
func (q *Queue) Remove(connID string) bool {
	for i, e := range q.entries {
		if e.ConnID == connID {
			q.entries = append(q.entries[:i:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) Contains(connID string) bool {
	for _, e := range q.entries {
		if e.ConnID == connID {
			return true
		}
	}
	return false
}

func (q *Queue) Len() int {
	return len(q.entries)
}

// Entries returns a copy of the queue in order.
func (q *Queue) Entries() []domain.WaitingEntry {
	out := make([]domain.WaitingEntry, len(q.entries))
	copy(out, q.entries)
	return out
}
