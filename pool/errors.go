package pool

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout matches every *TimeoutError via errors.Is.
	ErrTimeout = errors.New("pool: acquire timed out")
	// ErrClosed is returned by Acquire once Shutdown has been called.
	ErrClosed = errors.New("pool: closed")
	// ErrInvalidConfig wraps configuration validation failures from New.
	ErrInvalidConfig = errors.New("pool: invalid config")
)

// TimeoutError reports that no handle became available within the acquire timeout.
type TimeoutError struct {
	Timeout time.Duration
	Size    int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pool: no handle available after %s (size %d)", e.Timeout, e.Size)
}

// Is makes errors.Is(err, ErrTimeout) true.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
