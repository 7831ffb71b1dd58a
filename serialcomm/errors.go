package serialcomm

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoData means nothing arrived within the first-byte timeout. It is an
	// expected outcome, not a link failure.
	ErrNoData = errors.New("no data available")
	// ErrClosed is returned by operations on a closed Port.
	ErrClosed = errors.New("serial port closed")
)

// ConnectionError reports a port that could not be opened.
type ConnectionError struct {
	Port string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot open serial port %s: %v", e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IOError wraps a driver read or write failure.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("serial %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a frame that started but did not finish in time. The partial
// bytes are dropped.
type TimeoutError struct {
	Waited    time.Duration
	Discarded int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("frame not terminated after %s, discarded %d bytes", e.Waited, e.Discarded)
}

// Timeout marks the error as a timeout for callers that check net.Error-style.
func (e *TimeoutError) Timeout() bool {
	return true
}

// IsNoData reports whether err means "no complete frame right now": either nothing
// arrived or a frame timed out half-way.
func IsNoData(err error) bool {
	var timeout *TimeoutError
	return errors.Is(err, ErrNoData) || errors.As(err, &timeout)
}
