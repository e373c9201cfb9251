package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/btree"
	"k8s.io/klog/v2"
)

var _ Engine = (*MemoryStore)(nil)

// MemoryStore implements Engine.
type MemoryStore struct {
	// mu guards tree and txn for every operation.
	mu   sync.Mutex
	tree *btree.BTree

	// idle{} or *activeTxn holding the staged writes.
	txn txnState

	observer Observer
}

type item struct {
	key   string
	value int64
}

func (i *item) Less(than btree.Item) bool {
	return i.key < than.(*item).key
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithObserver reports every operation outcome to o.
func WithObserver(o Observer) Option {
	return func(s *MemoryStore) {
		s.observer = o
	}
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		tree: btree.New(32),
		txn:  idle{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.observer != nil {
		s.observer.SetActive(false)
		s.observer.SetKeys(0)
	}
	return s
}

// Begin opens the single transaction slot.
func (s *MemoryStore) Begin() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.done("begin", err) }()

	if _, ok := s.txn.(*activeTxn); ok {
		return txnError("begin", ErrTxnInProgress)
	}

	t := newActiveTxn()
	s.txn = t
	klog.V(2).Infof("Transaction %s started", t.ID)
	return nil
}

// Put stages key=value in the open transaction. Main is untouched until Commit.
func (s *MemoryStore) Put(key string, value int64) error {
	return s.PutValue(key, value)
}

// PutValue is Put for callers whose arguments are not statically typed.
// key must be a string and value a Go integer.
func (s *MemoryStore) PutValue(key, value any) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.done("put", err) }()

	t, ok := s.txn.(*activeTxn)
	if !ok {
		return txnError("put", ErrNoActiveTxn)
	}
	k, v, err := putArgs(key, value)
	if err != nil {
		return err
	}

	t.staging[k] = v
	klog.V(2).Infof("Put queued in %s: %s = %d", t.ID, k, v)
	return nil
}

// PutBatch stages every op in the open transaction under one lock. A bad op
// fails the whole batch and leaves staging untouched.
func (s *MemoryStore) PutBatch(ops []BatchOp) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.done("put", err) }()

	t, ok := s.txn.(*activeTxn)
	if !ok {
		return txnError("put", ErrNoActiveTxn)
	}

	// 1. Validate every op
	keys := make([]string, len(ops))
	vals := make([]int64, len(ops))
	for i, op := range ops {
		keys[i], vals[i], err = putArgs(op.Key, op.Value)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i+1, err)
		}
	}

	// 2. Stage in order, so a later op on the same key wins
	for i, k := range keys {
		t.staging[k] = vals[i]
	}
	klog.V(2).Infof("Batch of %d puts queued in %s", len(ops), t.ID)
	return nil
}

// Get returns the committed value of key. The second result is false when
// the key has never been committed.
func (s *MemoryStore) Get(key string) (int64, bool, error) {
	return s.GetValue(key)
}

// GetValue is Get for callers whose key is not statically typed.
func (s *MemoryStore) GetValue(key any) (value int64, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.done("get", err) }()

	k, err := keyOf("get", key)
	if err != nil {
		return 0, false, err
	}

	// Reads never consult staging.
	if i := s.tree.Get(&item{key: k}); i != nil {
		value, found = i.(*item).value, true
	}
	klog.V(3).Infof("Get %s = %d (found=%t)", k, value, found)
	return value, found, nil
}

// Commit applies every staged write to main and closes the transaction.
func (s *MemoryStore) Commit() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.done("commit", err) }()

	t, ok := s.txn.(*activeTxn)
	if !ok {
		return txnError("commit", ErrNoActiveTxn)
	}

	for k, v := range t.staging {
		s.tree.ReplaceOrInsert(&item{key: k, value: v})
		klog.V(3).Infof("Committed %s = %d", k, v)
	}
	s.txn = idle{}
	klog.V(2).Infof("Transaction %s committed: %d keys in %v", t.ID, len(t.staging), time.Since(t.StartTime))
	return nil
}

// Rollback discards the staged writes and closes the transaction.
func (s *MemoryStore) Rollback() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.done("rollback", err) }()

	t, ok := s.txn.(*activeTxn)
	if !ok {
		return txnError("rollback", ErrNoActiveTxn)
	}

	s.txn = idle{}
	klog.V(2).Infof("Transaction %s rolled back: %d staged writes discarded", t.ID, len(t.staging))
	return nil
}

// State reports whether a transaction is open.
func (s *MemoryStore) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txn.state()
}

// Len returns the number of committed keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Len()
}

// Snapshot copies the committed contents. Staged writes are excluded.
func (s *MemoryStore) Snapshot() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := make(map[string]int64, s.tree.Len())
	s.tree.Ascend(func(i btree.Item) bool {
		it := i.(*item)
		data[it.key] = it.value
		return true
	})
	return data
}

// done reports an outcome to the observer (assumes lock held).
func (s *MemoryStore) done(op string, err error) {
	if s.observer == nil {
		return
	}
	s.observer.Observe(op, err)
	if err == nil {
		switch op {
		case "begin":
			s.observer.SetActive(true)
		case "commit":
			s.observer.SetActive(false)
			s.observer.SetKeys(s.tree.Len())
		case "rollback":
			s.observer.SetActive(false)
		}
	}
}
