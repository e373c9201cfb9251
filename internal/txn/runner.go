package txn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"k8s.io/klog/v2"

	"github.com/myuser/txkv/internal/storage"
)

// Writer is the view of the store handed to a transaction body.
// Reads go to the committed state, as with storage.Engine.Get.
type Writer interface {
	Put(key string, value int64) error
	Get(key string) (int64, bool, error)
}

// RetryPolicy bounds how long RunWithRetry waits for a busy transaction slot.
type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

// DefaultRetryPolicy waits up to 5 times starting at 10ms.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 5, BaseDelay: 10 * time.Millisecond}

// Run begins a transaction, calls fn and commits when fn returns nil.
// If fn fails the transaction is rolled back and fn's error returned.
func Run(e storage.Engine, fn func(w Writer) error) error {
	if err := e.Begin(); err != nil {
		return err
	}
	return finish(e, fn)
}

// RunWithRetry is Run, but a Begin rejected because another caller holds the
// slot is retried with Fibonacci backoff. Other errors are returned as is.
func RunWithRetry(ctx context.Context, e storage.Engine, policy RetryPolicy, fn func(w Writer) error) error {
	if policy.BaseDelay <= 0 {
		return fmt.Errorf("invalid retry base delay %v", policy.BaseDelay)
	}
	b := retry.WithMaxRetries(policy.MaxRetries, retry.NewFibonacci(policy.BaseDelay))

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := e.Begin()
		if errors.Is(err, storage.ErrTxnInProgress) {
			klog.V(3).Infof("Transaction slot busy, attempt %d", attempt)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return err
	}
	return finish(e, fn)
}

// finish runs fn inside the already open transaction.
func finish(e storage.Engine, fn func(w Writer) error) error {
	if err := fn(e); err != nil {
		if rbErr := e.Rollback(); rbErr != nil {
			klog.Errorf("Rollback after failed transaction body: %v", rbErr)
			return errors.Join(err, rbErr)
		}
		return err
	}
	return e.Commit()
}
