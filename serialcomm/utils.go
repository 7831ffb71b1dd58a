package serialcomm

import (
	"io"

	"github.com/pkg/errors"
)

// flusher is implemented by drivers that can drop unread input, like *serial.Port.
type flusher interface {
	Flush() error
}

// isIdle reports whether a zero-byte read only means the driver's read timeout
// expired. The posix driver reports that as io.EOF.
func isIdle(err error) bool {
	return errors.Is(err, io.EOF)
}
