package state

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Ordering decides which of several overlapping responses is kept.
type Ordering int

const (
	// LastResponseWins applies every response in arrival order, so a slow
	// early request can overwrite the result of a later one.
	LastResponseWins Ordering = iota
	// LatestRequestWins discards a response when a newer request's response
	// has already been applied.
	LatestRequestWins
)

func (o Ordering) String() string {
	switch o {
	case LatestRequestWins:
		return "latest-request"
	default:
		return "last-response"
	}
}

// ParseOrdering accepts the names produced by Ordering.String. Empty means
// LastResponseWins.
func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last-response":
		return LastResponseWins, nil
	case "latest-request":
		return LatestRequestWins, nil
	default:
		return LastResponseWins, fmt.Errorf("unknown ordering %q (want last-response or latest-request)", s)
	}
}

// Ticket identifies one dispatched request.
type Ticket struct {
	epoch uint64
	seq   uint64
}

// Sequencer hands out tickets at dispatch time and decides at response time
// whether the response may be applied. Two rules apply:
//
//   - a response dispatched before the last Reset is always discarded
//   - under LatestRequestWins, a response older than the newest applied one
//     is discarded
//
// Issue is safe from any goroutine. Admit and Reset must be called while the
// owning Store's write lock is held, i.e. from inside an Update function.
type Sequencer struct {
	ordering Ordering
	epoch    atomic.Uint64
	seq      atomic.Uint64
	applied  uint64
}

// NewSequencer returns a Sequencer using ordering.
func NewSequencer(ordering Ordering) *Sequencer {
	return &Sequencer{ordering: ordering}
}

// Ordering reports the configured policy.
func (q *Sequencer) Ordering() Ordering { return q.ordering }

// Issue returns the ticket for a request about to be sent.
func (q *Sequencer) Issue() Ticket {
	return Ticket{epoch: q.epoch.Load(), seq: q.seq.Add(1)}
}

// Admit reports whether a response carrying t may be applied, and records it
// as applied when it may.
func (q *Sequencer) Admit(t Ticket) bool {
	if t.epoch != q.epoch.Load() {
		return false
	}
	if q.ordering == LatestRequestWins && t.seq < q.applied {
		return false
	}
	if t.seq > q.applied {
		q.applied = t.seq
	}
	return true
}

// Current reports whether t was issued in the current epoch.
func (q *Sequencer) Current(t Ticket) bool {
	return t.epoch == q.epoch.Load()
}

// Reset starts a new epoch. Every ticket issued before it is rejected.
func (q *Sequencer) Reset() {
	q.epoch.Add(1)
	q.applied = 0
}
