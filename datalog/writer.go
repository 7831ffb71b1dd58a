// Package datalog appends fetched batches to a persistent, append-only log file.
package datalog

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"serialctl/frame"
)

// Options configures the log file and its rotation.
type Options struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

// Writer appends one Record per line. It is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	out    io.WriteCloser
	now    func() time.Time
	closed bool
}

// Open returns a Writer over a size-rotated file at opts.Path. The file is created on
// the first append.
func Open(opts Options) (*Writer, error) {
	if opts.Path == "" {
		return nil, errors.New("data log path cannot be empty")
	}
	return NewWriter(&lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
	}), nil
}

// NewWriter returns a Writer over out.
func NewWriter(out io.WriteCloser) *Writer {
	return &Writer{out: out, now: time.Now}
}

// Append writes b as the latest batch of sensor.
func (w *Writer) Append(sensor string, b frame.Batch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("data log is closed")
	}
	line := FormatRecord(Record{At: w.now(), Sensor: sensor, Batch: b}) + "\n"
	if _, err := io.WriteString(w.out, line); err != nil {
		return errors.Wrap(err, "appending to data log")
	}
	return nil
}

// Close closes the file. Later calls return nil.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.out.Close()
}
