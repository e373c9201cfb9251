package storage

import (
	"errors"
	"fmt"
)

var (
	ErrTxnInProgress = errors.New("transaction already in progress")
	ErrNoActiveTxn   = errors.New("no active transaction")
	ErrInvalidKey    = errors.New("key must be a non-empty string")
	ErrInvalidValue  = errors.New("value must be an integer")
)

// TransactionError reports an operation that is illegal in the store's
// current transaction state.
type TransactionError struct {
	Op  string // "begin", "put", "commit", "rollback"
	Err error
}

func (e *TransactionError) Error() string {
	switch e.Op {
	case "commit", "rollback":
		if errors.Is(e.Err, ErrNoActiveTxn) {
			return fmt.Sprintf("%s: %v to %s", e.Op, e.Err, e.Op)
		}
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// ValidationError reports an argument that breaks the key/value type contract.
type ValidationError struct {
	Op    string
	Field string // "key" or "value"
	Value any
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s %#v (%T): %v", e.Op, e.Field, e.Value, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func txnError(op string, cause error) error {
	return &TransactionError{Op: op, Err: cause}
}

func invalidKey(op string, key any) error {
	return &ValidationError{Op: op, Field: "key", Value: key, Err: ErrInvalidKey}
}

func invalidValue(op string, value any) error {
	return &ValidationError{Op: op, Field: "value", Value: value, Err: ErrInvalidValue}
}

// IsTransactionError reports whether err is a state machine violation.
func IsTransactionError(err error) bool {
	var te *TransactionError
	return errors.As(err, &te)
}

// IsValidationError reports whether err is a key or value type violation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
