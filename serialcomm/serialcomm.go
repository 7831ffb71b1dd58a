// Package serialcomm owns the serial link to the logging device. Every read and write
// goes through a Port, which allows one operation on the link at a time.
package serialcomm

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// LineTerminator ends every frame on the wire. The device sends CR LF; the LF is
// consumed by the Port and never reaches callers.
const (
	LineTerminator = '\r'
	lineFeed       = '\n'
)

// SerialConfig describes how to open the device.
type SerialConfig struct {
	PortName string
	BaudRate int
	DataBits int
	Parity   Parity
	StopBits StopBits
	// ReadTimeout bounds a single driver read, so deadlines and cancellation are
	// checked at least this often while waiting for bytes.
	ReadTimeout time.Duration
}

// DefaultSerialConfig returns the framing the device firmware expects:
// 9600 baud, 7 data bits, odd parity, two stop bits.
func DefaultSerialConfig(portName string) *SerialConfig {
	return &SerialConfig{
		PortName:    portName,
		BaudRate:    9600,
		DataBits:    7,
		Parity:      OddParity,
		StopBits:    TwoStopBits,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Validate checks the configuration before the port is opened.
func (c *SerialConfig) Validate() error {
	if c.PortName == "" {
		return errors.New("serial port name cannot be empty")
	}
	if c.BaudRate <= 0 {
		return errors.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return errors.Errorf("invalid data bits %d, expected 5-8", c.DataBits)
	}
	if c.ReadTimeout <= 0 {
		return errors.New("read timeout must be greater than 0")
	}
	return nil
}

// ReadOptions bound a line read. A zero duration waits indefinitely.
type ReadOptions struct {
	// FirstByteTimeout is how long to wait for the frame to start before giving up
	// with ErrNoData.
	FirstByteTimeout time.Duration
	// FrameTimeout is how long a started frame may take to reach its terminator
	// before it is discarded with a *TimeoutError.
	FrameTimeout time.Duration
}

// Channel is the link as seen by the command protocol.
type Channel interface {
	// ReadLine returns the next frame without its terminator.
	ReadLine(ctx context.Context, opts ReadOptions) ([]byte, error)
	// WriteCommand sends a single command byte.
	WriteCommand(code byte) error
	// Exchange sends code and reads its response frame as one unit: no other
	// operation on the channel can run in between.
	Exchange(ctx context.Context, code byte, opts ReadOptions) ([]byte, error)
	Close() error
}
