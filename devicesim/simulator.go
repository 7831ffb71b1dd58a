package main

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"serialctl/frame"
	"serialctl/protocol"
)

// Simulator plays the device end of the link: it answers FETCH with a frame of
// random-walk readings and tracks the logger state set by START and STOP.
type Simulator struct {
	cmds      protocol.CommandTable
	points    int
	fields    int
	chunkSize int
	chunkGap  time.Duration
	logger    *zap.SugaredLogger

	mu      sync.Mutex
	rng     *rand.Rand
	values  []int64
	logging bool
	fetches int
}

// SimulatorOptions shape the frames the simulator sends.
type SimulatorOptions struct {
	Points    int
	Fields    int
	ChunkSize int
	ChunkGap  time.Duration
	Seed      int64
}

// NewSimulator returns a simulator answering cmds. Zero options fall back to one
// point of one field sent in 20-byte chunks.
func NewSimulator(cmds protocol.CommandTable, opts SimulatorOptions, logger *zap.SugaredLogger) *Simulator {
	if opts.Points < 1 {
		opts.Points = 1
	}
	if opts.Fields < 1 {
		opts.Fields = 1
	}
	if opts.ChunkSize < 1 {
		opts.ChunkSize = 20
	}
	s := &Simulator{
		cmds:      cmds,
		points:    opts.Points,
		fields:    opts.Fields,
		chunkSize: opts.ChunkSize,
		chunkGap:  opts.ChunkGap,
		logger:    logger,
		rng:       rand.New(rand.NewSource(opts.Seed)),
		values:    make([]int64, opts.Fields),
	}
	for i := range s.values {
		s.values[i] = 20 + s.rng.Int63n(40)
	}
	return s
}

// Logging reports whether the last logger command was START.
func (s *Simulator) Logging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logging
}

// Reply returns the bytes the device sends in answer to code, or nil.
func (s *Simulator) Reply(code byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch code {
	case s.cmds.Fetch:
		s.fetches++
		return append(frame.Encode(s.nextBatch()), '\r', '\n')
	case s.cmds.Start:
		s.logging = true
		s.logger.Info("logger started")
	case s.cmds.Stop:
		s.logging = false
		s.logger.Info("logger stopped")
	default:
		s.logger.Warnf("ignoring unknown command %q", code)
	}
	return nil
}

func (s *Simulator) nextBatch() frame.Batch {
	batch := make(frame.Batch, s.points)
	for p := range batch {
		for i := range s.values {
			s.values[i] += s.rng.Int63n(5) - 2
		}
		batch[p] = frame.NewDataPoint(s.values...)
	}
	return batch
}

// Serve answers commands read from rw until ctx is done or the link fails. An
// io.EOF read is a driver timeout and is not treated as the end of the link.
func (s *Simulator) Serve(ctx context.Context, rw io.ReadWriter) error {
	buf := make([]byte, 16)
	for ctx.Err() == nil {
		n, err := rw.Read(buf)
		for _, code := range buf[:n] {
			reply := s.Reply(code)
			if reply == nil {
				continue
			}
			if werr := s.send(ctx, rw, reply); werr != nil {
				return werr
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return errors.Wrap(err, "read")
		}
	}
	return ctx.Err()
}

// send writes data in chunkSize pieces separated by chunkGap, the way a slow
// device trickles a frame onto the wire.
func (s *Simulator) send(ctx context.Context, w io.Writer, data []byte) error {
	for i := 0; i < len(data); i += s.chunkSize {
		end := i + s.chunkSize
		if end > len(data) {
			end = len(data)
		}
		if _, err := w.Write(data[i:end]); err != nil {
			return errors.Wrapf(err, "writing chunk %d", i/s.chunkSize+1)
		}
		s.logger.Debugf("sent chunk %d: %q", i/s.chunkSize+1, data[i:end])
		if s.chunkGap > 0 && end < len(data) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.chunkGap):
			}
		}
	}
	return nil
}
