// Package serialtest provides an in-memory serial device for tests.
package serialtest

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// ErrDeviceClosed is returned by reads and writes after Close.
var ErrDeviceClosed = errors.New("device closed")

// Responder produces the device's reply to a command byte. A nil reply means the
// command has no response.
type Responder func(code byte) []byte

type segment struct {
	data    []byte
	readyAt time.Time
}

// Device is an io.ReadWriteCloser that behaves like a serial driver with a read
// timeout: Read returns (0, io.EOF) when nothing is ready. It also records any
// overlapping access and any command written while an earlier response is still
// unread.
type Device struct {
	mu            sync.Mutex
	queue         []segment
	writes        []byte
	respond       Responder
	responseDelay time.Duration
	maxChunk      int
	idle          time.Duration
	writeErr      error
	readErr       error
	closed        bool
	closeCount    int
	flushes       int
	unread        int
	violations    []string

	active atomic.Int32
}

// NewDevice returns a device answering commands with respond, which may be nil.
func NewDevice(respond Responder) *Device {
	return &Device{
		respond: respond,
		idle:    time.Millisecond,
	}
}

// SetResponseDelay makes replies readable only after d.
func (d *Device) SetResponseDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.responseDelay = delay
}

// SetMaxChunk caps the number of bytes a single Read returns.
func (d *Device) SetMaxChunk(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.maxChunk = n
}

// SetWriteError makes subsequent writes fail with err.
func (d *Device) SetWriteError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeErr = err
}

// SetReadError makes subsequent reads fail with err.
func (d *Device) SetReadError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readErr = err
}

// Feed queues unsolicited bytes, readable immediately.
func (d *Device) Feed(b []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, segment{data: append([]byte(nil), b...), readyAt: time.Now()})
}

// Read implements io.Reader.
func (d *Device) Read(p []byte) (int, error) {
	d.enter("read")
	defer d.active.Dec()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0, ErrDeviceClosed
	}
	if d.readErr != nil {
		err := d.readErr
		d.mu.Unlock()
		return 0, err
	}
	if len(d.queue) > 0 && !time.Now().Before(d.queue[0].readyAt) {
		head := &d.queue[0]
		n := len(p)
		if d.maxChunk > 0 && n > d.maxChunk {
			n = d.maxChunk
		}
		n = copy(p[:n], head.data)
		head.data = head.data[n:]
		if len(head.data) == 0 {
			d.queue = d.queue[1:]
		}
		if terminators := bytes.Count(p[:n], []byte{'\r'}); terminators > 0 {
			d.unread -= terminators
			if d.unread < 0 {
				d.unread = 0
			}
		}
		d.mu.Unlock()
		return n, nil
	}
	idle := d.idle
	d.mu.Unlock()

	time.Sleep(idle)
	return 0, io.EOF
}

// Write implements io.Writer. Each byte is treated as one command.
func (d *Device) Write(p []byte) (int, error) {
	d.enter("write")
	defer d.active.Dec()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrDeviceClosed
	}
	if d.writeErr != nil {
		return 0, d.writeErr
	}
	for _, code := range p {
		if d.unread > 0 {
			d.violations = append(d.violations,
				fmt.Sprintf("command %q written while %d response(s) unread", code, d.unread))
		}
		d.writes = append(d.writes, code)
		if d.respond == nil {
			continue
		}
		if reply := d.respond(code); len(reply) > 0 {
			d.queue = append(d.queue, segment{data: reply, readyAt: time.Now().Add(d.responseDelay)})
			d.unread += bytes.Count(reply, []byte{'\r'})
		}
	}
	return len(p), nil
}

// Flush drops everything not yet read, like tcflush on a real port. Dropping a
// reply that belongs to an outstanding command is recorded as a violation.
func (d *Device) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unread > 0 {
		d.violations = append(d.violations, fmt.Sprintf("flush dropped %d unread response(s)", d.unread))
		d.unread = 0
	}
	d.queue = nil
	d.flushes++
	return nil
}

// Flushes returns how many times Flush was called.
func (d *Device) Flushes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushes
}

// Close implements io.Closer and counts calls.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeCount++
	d.closed = true
	return nil
}

// Writes returns every command byte written so far.
func (d *Device) Writes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.writes...)
}

// CloseCount returns how many times Close was called.
func (d *Device) CloseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeCount
}

// Violations returns every overlapping access observed.
func (d *Device) Violations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.violations...)
}

func (d *Device) enter(op string) {
	if n := d.active.Inc(); n > 1 {
		d.mu.Lock()
		d.violations = append(d.violations, fmt.Sprintf("%s started while %d other operation(s) active", op, n-1))
		d.mu.Unlock()
	}
}
