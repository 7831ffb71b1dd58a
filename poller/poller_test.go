package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"serialctl/frame"
)

const interval = 3 * time.Second

type fetchResult struct {
	batch frame.Batch
	ok    bool
	err   error
}

type MockFetcher struct {
	mu      sync.Mutex
	calls   int
	result  fetchResult
	block   chan struct{}
	entered chan struct{}
}

func (m *MockFetcher) Fetch(_ context.Context) (frame.Batch, bool, error) {
	m.mu.Lock()
	m.calls++
	r := m.result
	block, entered := m.block, m.entered
	m.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return r.batch, r.ok, r.err
}

func (m *MockFetcher) SetResult(r fetchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = r
}

func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestPoller(t *testing.T, f Fetcher, opts ...Option) (*Poller, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	opts = append([]Option{WithClock(mock)}, opts...)
	p := New(f, interval, zaptest.NewLogger(t).Sugar(), opts...)
	t.Cleanup(p.Stop)
	return p, mock
}

// tickUntil advances the mock clock one interval at a time until cond holds. The
// poller goroutine may not have armed its timer yet when the first tick lands.
func tickUntil(t *testing.T, mock *clock.Mock, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		mock.Add(interval)
		return cond()
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPoller_DisabledByDefault(t *testing.T) {
	f := &MockFetcher{}
	p, mock := newTestPoller(t, f)

	assert.False(t, p.Enabled())
	mock.Add(10 * interval)
	assert.Zero(t, f.Calls())
	_, ok := p.Latest()
	assert.False(t, ok)
}

func TestPoller_PublishesBatches(t *testing.T) {
	want := frame.Batch{frame.NewDataPoint(23, 45), frame.NewDataPoint(67, 89)}
	f := &MockFetcher{result: fetchResult{batch: want, ok: true}}

	var (
		hookMu sync.Mutex
		hooked []frame.Batch
	)
	p, mock := newTestPoller(t, f, WithBatchHook(func(b frame.Batch) {
		hookMu.Lock()
		defer hookMu.Unlock()
		hooked = append(hooked, b)
	}))

	p.Start()
	assert.True(t, p.Enabled())
	tickUntil(t, mock, func() bool {
		_, ok := p.Latest()
		return ok
	})

	snap, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, want, snap.Batch)
	assert.NoError(t, snap.Err)
	assert.GreaterOrEqual(t, snap.Seq, uint64(1))
	assert.False(t, snap.At.IsZero())

	p.Stop()
	hookMu.Lock()
	defer hookMu.Unlock()
	require.NotEmpty(t, hooked)
	assert.Equal(t, want, hooked[0])
}

func TestPoller_NoDataIsNotPublished(t *testing.T) {
	f := &MockFetcher{result: fetchResult{ok: false}}
	p, mock := newTestPoller(t, f)

	p.Start()
	tickUntil(t, mock, func() bool { return f.Calls() >= 2 })
	_, ok := p.Latest()
	assert.False(t, ok)
}

func TestPoller_ErrorsDoNotStopPolling(t *testing.T) {
	f := &MockFetcher{result: fetchResult{err: errors.New("malformed frame")}}
	p, mock := newTestPoller(t, f)

	p.Start()
	tickUntil(t, mock, func() bool {
		s, ok := p.Latest()
		return ok && s.Err != nil
	})
	first, _ := p.Latest()
	assert.EqualError(t, first.Err, "malformed frame")

	f.SetResult(fetchResult{batch: frame.Batch{frame.NewDataPoint(5)}, ok: true})

	tickUntil(t, mock, func() bool {
		s, _ := p.Latest()
		return s.Err == nil
	})
	second, _ := p.Latest()
	assert.Equal(t, frame.Batch{frame.NewDataPoint(5)}, second.Batch)
	assert.Greater(t, second.Seq, first.Seq)
	assert.True(t, p.Enabled())
}

func TestPoller_StopPreventsFurtherFetches(t *testing.T) {
	f := &MockFetcher{result: fetchResult{ok: false}}
	p, mock := newTestPoller(t, f)

	p.Start()
	tickUntil(t, mock, func() bool { return f.Calls() >= 1 })
	p.Stop()
	assert.False(t, p.Enabled())

	calls := f.Calls()
	for i := 0; i < 5; i++ {
		mock.Add(interval)
	}
	assert.Equal(t, calls, f.Calls())

	// stopping twice is harmless
	p.Stop()
}

func TestPoller_StopWaitsForInFlightFetch(t *testing.T) {
	f := &MockFetcher{
		result:  fetchResult{batch: frame.Batch{frame.NewDataPoint(1)}, ok: true},
		block:   make(chan struct{}),
		entered: make(chan struct{}, 16),
	}
	p, mock := newTestPoller(t, f)

	p.Start()
	tickUntil(t, mock, func() bool { return f.Calls() >= 1 })
	<-f.entered

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a fetch was in flight")
	case <-time.After(30 * time.Millisecond):
	}

	close(f.block)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the fetch finished")
	}

	// the in-flight fetch completed and was published
	snap, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, frame.Batch{frame.NewDataPoint(1)}, snap.Batch)
	assert.Equal(t, 1, f.Calls())
}

func TestPoller_Toggle(t *testing.T) {
	f := &MockFetcher{}
	p, _ := newTestPoller(t, f)

	assert.True(t, p.Toggle())
	assert.True(t, p.Enabled())
	assert.False(t, p.Toggle())
	assert.False(t, p.Enabled())
	assert.True(t, p.Toggle())
}
