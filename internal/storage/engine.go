package storage

// Engine defines the interface for the transactional key-value store.
// At most one write transaction is open at a time.
type Engine interface {
	// Begin opens the transaction slot.
	Begin() error

	// Put stages key=value in the open transaction.
	Put(key string, value int64) error

	// Get reads the committed value of key. Staged writes are never visible,
	// not even to the transaction that staged them.
	Get(key string) (int64, bool, error)

	// Commit applies all staged writes to the main store.
	Commit() error

	// Rollback discards all staged writes.
	Rollback() error

	// Dynamically typed variants of Put and Get for untyped callers.
	PutValue(key, value any) error
	GetValue(key any) (int64, bool, error)

	// PutBatch stages all ops in the open transaction, or none of them.
	PutBatch(ops []BatchOp) error

	// State reports whether a transaction is open.
	State() State

	// Len returns the number of committed keys.
	Len() int

	// Snapshot copies the committed contents.
	Snapshot() map[string]int64
}

// BatchOp is one untyped write of a PutBatch.
type BatchOp struct {
	Key   any
	Value any
}

// Observer is notified after every store operation.
// err is nil on success.
type Observer interface {
	Observe(op string, err error)
	SetActive(active bool)
	SetKeys(n int)
}
