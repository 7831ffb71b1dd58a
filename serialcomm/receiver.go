package serialcomm

import (
	"bytes"
	"context"
	"time"

	"github.com/pkg/errors"
)

// readLine reads until LineTerminator. Callers hold p.mu.
//
// Bytes past the terminator stay in p.pending for the next call, and the LF that
// follows the CR is skipped wherever it shows up.
func (p *Port) readLine(ctx context.Context, opts ReadOptions) ([]byte, error) {
	var (
		line       []byte
		started    bool
		waitStart  = time.Now()
		frameStart time.Time
	)
	for {
		if len(p.pending) > 0 {
			if p.skipLF {
				p.skipLF = false
				if p.pending[0] == lineFeed {
					p.pending = p.pending[1:]
					continue
				}
			}
			if !started {
				started = true
				frameStart = time.Now()
			}
			if i := bytes.IndexByte(p.pending, LineTerminator); i >= 0 {
				line = append(line, p.pending[:i]...)
				p.pending = p.pending[i+1:]
				p.skipLF = true
				p.logger.Debugf("read frame %q", line)
				return line, nil
			}
			line = append(line, p.pending...)
			p.pending = p.pending[:0]
		}

		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "waiting for frame")
		}
		if !started && opts.FirstByteTimeout > 0 && time.Since(waitStart) >= opts.FirstByteTimeout {
			return nil, ErrNoData
		}
		if started && opts.FrameTimeout > 0 && time.Since(frameStart) >= opts.FrameTimeout {
			p.logger.Warnf("frame timed out after %s, dropping %d bytes", opts.FrameTimeout, len(line))
			return nil, &TimeoutError{Waited: opts.FrameTimeout, Discarded: len(line)}
		}

		n, err := p.dev.Read(p.chunk)
		if n > 0 {
			p.pending = append(p.pending, p.chunk[:n]...)
			continue
		}
		if err != nil && !isIdle(err) {
			return nil, &IOError{Op: "read", Err: err}
		}
	}
}

// discardStale drops buffered input that no request is waiting for. skipLF is
// kept: the LF owed by the last frame may still be on its way.
func (p *Port) discardStale() {
	if n := len(p.pending); n > 0 {
		p.logger.Debugf("discarding %d stale bytes", n)
		p.pending = p.pending[:0]
	}
	if f, ok := p.dev.(flusher); ok {
		if err := f.Flush(); err != nil {
			p.logger.Warnf("flushing input: %v", err)
		}
	}
}
