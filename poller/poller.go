// Package poller runs the monitor mode: while enabled, it periodically fetches a
// batch from the device and publishes it for display.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.viam.com/utils"

	"serialctl/frame"
)

// Fetcher runs one fetch-and-decode cycle. ok is false when the device had nothing.
type Fetcher interface {
	Fetch(ctx context.Context) (batch frame.Batch, ok bool, err error)
}

// Snapshot is the outcome of the latest poll that produced a frame or an error.
// The device does not say which sensor a batch came from, so neither does this.
type Snapshot struct {
	Seq   uint64
	At    time.Time
	Batch frame.Batch
	Err   error
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock, for tests.
func WithClock(c clock.Clock) Option {
	return func(p *Poller) {
		p.clock = c
	}
}

// WithBatchHook calls fn with every successfully decoded batch, on the poller's
// goroutine.
func WithBatchHook(fn func(frame.Batch)) Option {
	return func(p *Poller) {
		p.onBatch = fn
	}
}

// Poller fetches every interval while enabled. Stopping never interrupts a fetch
// already in progress; it only keeps the next one from starting.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	clock    clock.Clock
	logger   *zap.SugaredLogger
	onBatch  func(frame.Batch)

	mu      sync.Mutex
	stopCh  chan struct{}
	enabled atomic.Bool
	workers sync.WaitGroup

	latestMu  sync.RWMutex
	latest    Snapshot
	hasLatest bool
}

// New returns a stopped Poller.
func New(fetcher Fetcher, interval time.Duration, logger *zap.SugaredLogger, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: interval,
		clock:    clock.New(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enabled reports whether monitor mode is on.
func (p *Poller) Enabled() bool {
	return p.enabled.Load()
}

// Start turns monitor mode on. It is a no-op when already running.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopCh != nil {
		return
	}
	stopCh := make(chan struct{})
	p.stopCh = stopCh
	p.enabled.Store(true)
	p.logger.Infof("monitor mode on, polling every %s", p.interval)

	p.workers.Add(1)
	utils.PanicCapturingGo(func() {
		defer p.workers.Done()
		p.run(stopCh)
	})
}

// Stop turns monitor mode off and waits for an in-flight fetch to finish.
// It is a no-op when not running.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopCh == nil {
		return
	}
	close(p.stopCh)
	p.stopCh = nil
	p.enabled.Store(false)
	p.workers.Wait()
	p.logger.Info("monitor mode off")
}

// Toggle flips monitor mode and returns the new state.
func (p *Poller) Toggle() bool {
	if p.Enabled() {
		p.Stop()
	} else {
		p.Start()
	}
	return p.Enabled()
}

// Latest returns the last published snapshot, if any.
func (p *Poller) Latest() (Snapshot, bool) {
	p.latestMu.RLock()
	defer p.latestMu.RUnlock()
	s := p.latest
	s.Batch = s.Batch.Clone()
	return s, p.hasLatest
}

func (p *Poller) run(stopCh <-chan struct{}) {
	for {
		timer := p.clock.Timer(p.interval)
		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}

		// both may be ready at once; stopping wins
		select {
		case <-stopCh:
			return
		default:
		}
		p.poll()
	}
}

func (p *Poller) poll() {
	batch, ok, err := p.fetcher.Fetch(context.Background())
	switch {
	case err != nil:
		p.logger.Warnf("poll failed: %v", err)
		p.publish(Snapshot{Err: err})
	case !ok:
		p.logger.Debug("poll: no data")
	default:
		p.publish(Snapshot{Batch: batch})
		if p.onBatch != nil {
			p.onBatch(batch)
		}
	}
}

func (p *Poller) publish(s Snapshot) {
	p.latestMu.Lock()
	defer p.latestMu.Unlock()
	s.Seq = p.latest.Seq + 1
	s.At = p.clock.Now()
	p.latest = s
	p.hasLatest = true
}
