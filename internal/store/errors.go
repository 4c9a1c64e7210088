package store

import "errors"

var (
	ErrNotFound  = errors.New("record not found")
	ErrUnsafeURL = errors.New("url failed platform validation")
)

// WriteError wraps a storage-engine rejection of a create or update so the
// boundary can surface the store's message without retrying.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
