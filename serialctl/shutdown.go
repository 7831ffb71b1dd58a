package main

import (
	"io"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type stopper interface {
	Stop()
}

// shutdown releases everything the controller holds, once, on whichever exit path
// gets there first. The poller is stopped before the port is closed so no new
// channel operation can start; Close itself waits for one already running.
type shutdown struct {
	once    sync.Once
	err     error
	logger  *zap.SugaredLogger
	monitor stopper
	closers []io.Closer
}

func newShutdown(logger *zap.SugaredLogger, monitor stopper, closers ...io.Closer) *shutdown {
	return &shutdown{logger: logger, monitor: monitor, closers: closers}
}

func (s *shutdown) Run() error {
	s.once.Do(func() {
		s.logger.Info("shutting down")
		s.monitor.Stop()
		for _, c := range s.closers {
			s.err = multierr.Append(s.err, c.Close())
		}
		if s.err != nil {
			s.logger.Errorf("shutdown: %v", s.err)
		}
	})
	return s.err
}
