package storage

import (
	"time"

	"github.com/google/uuid"
)

// State is the position of the store in its transaction state machine.
type State int

const (
	StateIdle          State = 0
	StateInTransaction State = 1
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInTransaction:
		return "in-transaction"
	default:
		return "unknown"
	}
}

// txnState is either idle{} or *activeTxn. Staged writes exist only inside
// an *activeTxn, so "staging present" and "transaction active" cannot drift.
type txnState interface {
	state() State
}

type idle struct{}

func (idle) state() State { return StateIdle }

type activeTxn struct {
	ID        uuid.UUID
	StartTime time.Time
	staging   map[string]int64
}

func newActiveTxn() *activeTxn {
	return &activeTxn{
		ID:        uuid.New(),
		StartTime: time.Now(),
		staging:   make(map[string]int64),
	}
}

func (*activeTxn) state() State { return StateInTransaction }
