package store

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/matzehuels/isalabel/pkg/errors"
)

// ErrLocked is returned by a lock attempt that found the lock taken.
var ErrLocked = stderrors.New("lock held by another importer")

// RetryableError wraps an error to indicate it should trigger a retry.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return stderrors.As(err, &re)
}

const (
	minBackoff = 5 * time.Millisecond
	maxBackoff = 250 * time.Millisecond
)

// RetryWithBackoff calls fn until it succeeds, returns an error that is not
// retryable, or ctx ends. The delay doubles after each attempt up to a cap.
// When ctx ends while fn keeps failing with a retryable error, the result is
// an ErrCodeLockTimeout error wrapping the last failure.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := minBackoff
	for {
		err := fn()
		if err == nil || !IsRetryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(errors.ErrCodeLockTimeout, err, "gave up waiting: %v", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, maxBackoff)
		}
	}
}
