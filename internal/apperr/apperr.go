package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced record or file does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUniqueness is returned when an insert collides with a unique column.
	ErrUniqueness = errors.New("already exists")
)

// StorageError wraps a failure of the underlying database engine or disk.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError for op. A nil err stays nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err is or wraps a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
