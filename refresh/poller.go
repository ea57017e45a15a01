package refresh

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/agentuity/hoopstats/logger"
	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// DefaultInterval is how often the live scoreboard is refreshed.
const DefaultInterval = 30 * time.Second

// ErrUnavailable is reported when a task produced nothing.
var ErrUnavailable = errors.New("resource unavailable")

// Task produces the current value of a polled resource.
type Task func(ctx context.Context) (json.RawMessage, error)

// FromSentinel adapts a fetch that signals failure with a nil value.
func FromSentinel(fetch func(ctx context.Context) json.RawMessage) Task {
	return func(ctx context.Context) (json.RawMessage, error) {
		val := fetch(ctx)
		if val == nil {
			return nil, ErrUnavailable
		}
		return val, nil
	}
}

// Poller runs a task immediately and then on a fixed interval until it is
// stopped. A failed run is only logged; the next tick tries again. OnChange
// fires for the first value and whenever the value differs from the last one
// seen.
type Poller struct {
	interval time.Duration
	task     Task
	logger   logger.Logger
	onChange func(json.RawMessage)
	onError  func(error)

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	lastHash uint64
	seen     bool
	runs     int
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the logger. Defaults to discarding.
func WithLogger(l logger.Logger) Option {
	return func(p *Poller) { p.logger = l.WithPrefix("[refresh]") }
}

// OnChange registers the callback for new values.
func OnChange(fn func(json.RawMessage)) Option {
	return func(p *Poller) { p.onChange = fn }
}

// OnError registers the callback for failed runs.
func OnError(fn func(error)) Option {
	return func(p *Poller) { p.onError = fn }
}

func New(interval time.Duration, task Task, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := &Poller{
		interval: interval,
		task:     task,
		logger:   logger.NewWriterLogger(io.Discard, logger.LevelNone),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling in the background. Calling Start on a running poller
// does nothing. Polling ends when ctx is done or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

// Run polls in the foreground until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.Start(ctx)
	<-p.Done()
}

// Done is closed once the polling loop has exited. It is nil before Start.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Stop ends polling and waits for an in flight run to return. A stopped
// poller can be started again.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Runs returns how many times the task has been invoked.
func (p *Poller) Runs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	p.mu.Lock()
	p.runs++
	p.mu.Unlock()

	val, err := p.task(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("refresh failed, retrying in %s: %s", p.interval, err)
		if p.onError != nil {
			p.onError(err)
		}
		return
	}
	sum := xxhash.Sum64(val)
	p.mu.Lock()
	changed := !p.seen || sum != p.lastHash
	p.seen = true
	p.lastHash = sum
	p.mu.Unlock()
	if !changed {
		p.logger.Trace("refresh unchanged")
		return
	}
	p.logger.Debug("refresh produced a new value")
	if p.onChange != nil {
		p.onChange(val)
	}
}
