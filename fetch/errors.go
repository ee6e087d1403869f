package fetch

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTaskDone is passed to a cancel callback when the task had already
	// finished before the cancellation was requested.
	ErrTaskDone = errors.New("fetch: task has already finished")

	// ErrUnsupportedBody is returned when a request body is of a type the
	// engine can not send.
	ErrUnsupportedBody = errors.New("fetch: unsupported request body")
)

// TimeoutError is the failure reported when a transfer exceeds its configured
// timeout.
type TimeoutError struct {
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("request timed out after %s", e.After)
	}

	return "request timed out"
}

// Timeout always returns true. It allows TimeoutError to be recognised in the
// same way as a net.Error.
func (e *TimeoutError) Timeout() bool {
	return true
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
