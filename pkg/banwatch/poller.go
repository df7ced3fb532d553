package banwatch

import (
	"context"
	"sync"
	"time"

	"marketplace/pkg/logger"
)

const (
	MinInterval       = 10 * time.Second
	DefaultInterval   = 30 * time.Second
	DefaultMaxRetries = 3
)

// State is a snapshot of the poller.
type State struct {
	Status          *Status
	LastChecked     time.Time
	LastError       error
	RetryCount      int
	ConnectionError bool
}

type Options struct {
	// Interval between successful checks. Values below MinInterval are raised to it.
	Interval time.Duration
	// MaxRetries is the number of backoff retries after a failed check. Zero means DefaultMaxRetries.
	MaxRetries int
	// OnChange receives the state after every check.
	OnChange func(State)
	Logger   *logger.Logger
}

// Poller checks ban status on an interval. A failed check is retried after 2^retryCount
// seconds until MaxRetries retries have failed; then automatic polling stops and the state
// reports ConnectionError until a manual Refresh succeeds.
type Poller struct {
	checker    Checker
	interval   time.Duration
	maxRetries int
	onChange   func(State)
	logger     *logger.Logger

	after func(time.Duration) <-chan time.Time
	now   func() time.Time

	refresh chan struct{}

	mu    sync.Mutex
	state State
}

func NewPoller(checker Checker, opts Options) *Poller {
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	if interval < MinInterval {
		interval = MinInterval
	}
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Poller{
		checker:    checker,
		interval:   interval,
		maxRetries: maxRetries,
		onChange:   opts.OnChange,
		logger:     log,
		after:      time.After,
		now:        time.Now,
		refresh:    make(chan struct{}, 1),
	}
}

func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Refresh requests an immediate check. It never blocks and works after polling has given up.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Run checks immediately and then keeps polling until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	delay, scheduled := p.check(ctx)
	for {
		var timer <-chan time.Time
		if scheduled {
			timer = p.after(delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer:
		case <-p.refresh:
			p.logger.Debug("[BANWATCH] Manual refresh requested")
		}

		delay, scheduled = p.check(ctx)
	}
}

// check runs one check and returns when the next automatic check is due. scheduled is false
// once retries are exhausted.
func (p *Poller) check(ctx context.Context) (delay time.Duration, scheduled bool) {
	status, err := p.checker.Check(ctx)

	p.mu.Lock()
	p.state.LastChecked = p.now()
	if err == nil {
		p.state.Status = status
		p.state.LastError = nil
		p.state.RetryCount = 0
		p.state.ConnectionError = false
		delay, scheduled = p.interval, true
	} else {
		p.state.LastError = err
		switch {
		case p.state.ConnectionError:
			// a failed manual refresh leaves automatic polling stopped
		case p.state.RetryCount < p.maxRetries:
			delay = time.Duration(1<<uint(p.state.RetryCount)) * time.Second
			p.state.RetryCount++
			scheduled = true
		default:
			p.state.ConnectionError = true
		}
	}
	snapshot := p.state
	p.mu.Unlock()

	switch {
	case err == nil:
		p.logger.Debug("[BANWATCH] Ban status checked: banned=%t", status != nil && status.Banned)
	case scheduled:
		p.logger.Warn("[BANWATCH] Ban status check failed, retry %d/%d in %s: %v", snapshot.RetryCount, p.maxRetries, delay, err)
	default:
		p.logger.Error("[BANWATCH] Ban status unavailable, automatic polling stopped: %v", err)
	}

	if p.onChange != nil {
		p.onChange(snapshot)
	}
	return delay, scheduled
}
