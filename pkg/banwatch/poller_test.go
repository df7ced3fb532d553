package banwatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeChecker) Check(ctx context.Context) (*Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Status{UserID: "user-1", Banned: false}, nil
}

func (f *fakeChecker) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// harness drives a Poller with a controllable clock.
type harness struct {
	poller *Poller
	states chan State
	delays chan time.Duration
	ticks  chan time.Time
	cancel context.CancelFunc
	done   chan error
}

func startPoller(t *testing.T, checker Checker, opts Options) *harness {
	t.Helper()
	h := &harness{
		states: make(chan State, 32),
		delays: make(chan time.Duration, 32),
		ticks:  make(chan time.Time),
		done:   make(chan error, 1),
	}
	opts.OnChange = func(s State) { h.states <- s }
	h.poller = NewPoller(checker, opts)
	h.poller.after = func(d time.Duration) <-chan time.Time {
		h.delays <- d
		return h.ticks
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.poller.Run(ctx) }()
	t.Cleanup(cancel)
	return h
}

func (h *harness) nextState(t *testing.T) State {
	t.Helper()
	select {
	case s := <-h.states:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no state change")
		return State{}
	}
}

func (h *harness) nextDelay(t *testing.T) time.Duration {
	t.Helper()
	select {
	case d := <-h.delays:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("no timer scheduled")
		return 0
	}
}

func (h *harness) assertNoDelay(t *testing.T) {
	t.Helper()
	select {
	case d := <-h.delays:
		t.Fatalf("unexpected timer scheduled for %s", d)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPoller_PollsOnInterval(t *testing.T) {
	checker := &fakeChecker{}
	h := startPoller(t, checker, Options{Interval: 45 * time.Second})

	s := h.nextState(t)
	require.NotNil(t, s.Status)
	assert.False(t, s.ConnectionError)
	assert.Equal(t, 45*time.Second, h.nextDelay(t))

	h.ticks <- time.Now()
	h.nextState(t)
	assert.Equal(t, 45*time.Second, h.nextDelay(t))

	h.cancel()
	assert.ErrorIs(t, <-h.done, context.Canceled)
}

func TestPoller_ExponentialBackoffThenConnectionError(t *testing.T) {
	checker := &fakeChecker{err: errors.New("connection refused")}
	h := startPoller(t, checker, Options{MaxRetries: 3})

	for i, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		s := h.nextState(t)
		assert.False(t, s.ConnectionError)
		assert.Equal(t, i+1, s.RetryCount)
		assert.Equal(t, want, h.nextDelay(t))
		h.ticks <- time.Now()
	}

	s := h.nextState(t)
	assert.True(t, s.ConnectionError)
	assert.Equal(t, 3, s.RetryCount)
	assert.EqualError(t, s.LastError, "connection refused")
	h.assertNoDelay(t)
	assert.Equal(t, 4, checker.calls)

	// a failed manual refresh keeps automatic polling stopped
	h.poller.Refresh()
	s = h.nextState(t)
	assert.True(t, s.ConnectionError)
	h.assertNoDelay(t)

	// a successful manual refresh resets and resumes polling
	checker.setErr(nil)
	h.poller.Refresh()
	s = h.nextState(t)
	assert.False(t, s.ConnectionError)
	assert.Zero(t, s.RetryCount)
	assert.NoError(t, s.LastError)
	assert.Equal(t, DefaultInterval, h.nextDelay(t))
	assert.Equal(t, s, h.poller.State())
}

func TestPoller_RecoveryResetsRetries(t *testing.T) {
	checker := &fakeChecker{err: errors.New("timeout")}
	h := startPoller(t, checker, Options{})

	h.nextState(t)
	assert.Equal(t, time.Second, h.nextDelay(t))

	checker.setErr(nil)
	h.ticks <- time.Now()
	s := h.nextState(t)
	assert.Zero(t, s.RetryCount)
	assert.Equal(t, DefaultInterval, h.nextDelay(t))

	checker.setErr(errors.New("timeout"))
	h.ticks <- time.Now()
	h.nextState(t)
	assert.Equal(t, time.Second, h.nextDelay(t))
}

func TestPoller_RefreshDuringInterval(t *testing.T) {
	checker := &fakeChecker{}
	h := startPoller(t, checker, Options{})

	h.nextState(t)
	h.nextDelay(t)

	h.poller.Refresh()
	h.nextState(t)
	h.nextDelay(t)
	assert.Equal(t, 2, checker.calls)
}

func TestNewPoller_Defaults(t *testing.T) {
	p := NewPoller(&fakeChecker{}, Options{Interval: time.Second})
	assert.Equal(t, MinInterval, p.Interval())
	assert.Equal(t, DefaultMaxRetries, p.maxRetries)

	p = NewPoller(&fakeChecker{}, Options{MaxRetries: -1})
	assert.Equal(t, DefaultInterval, p.Interval())
	assert.Zero(t, p.maxRetries)
}

func TestPoller_RefreshNeverBlocks(t *testing.T) {
	p := NewPoller(&fakeChecker{}, Options{})
	p.Refresh()
	p.Refresh()
	p.Refresh()
	assert.Len(t, p.refresh, 1)
}
