// Package poll refreshes the activity log on a fixed interval while a log
// view is open.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cubetrade/cube/pkg/cube/types"
)

// DefaultInterval is the log refresh period.
const DefaultInterval = 5 * time.Second

// Fetcher loads the current log page.
type Fetcher func(ctx context.Context) ([]types.LogEntry, error)

// Handler receives each delivered log page. It must not call Stop.
type Handler func([]types.LogEntry)

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithErrorHandler receives fetch failures. Without one, failures are only
// logged.
func WithErrorHandler(fn func(error)) Option {
	return func(p *Poller) { p.onErr = fn }
}

// WithLogger sets the logger fetch failures go to.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Poller) { p.log = l }
}

// Poller fetches immediately on Start and then every interval until Stop.
// Fetches are not serialized: a slow response may land after a newer one, and
// whichever is delivered last wins.
type Poller struct {
	fetch    Fetcher
	handle   Handler
	onErr    func(error)
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	gen     uint64
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// held while a response is handed to the caller, so Stop can wait out
	// an in-progress delivery
	deliver sync.Mutex
}

// New returns a stopped poller.
func New(fetch Fetcher, handle Handler, opts ...Option) *Poller {
	p := &Poller{
		fetch:    fetch,
		handle:   handle,
		interval: DefaultInterval,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Interval returns the refresh period.
func (p *Poller) Interval() time.Duration { return p.interval }

// Running reports whether the poller is started.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start begins polling. Starting a running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.gen++
	p.running = true
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.gen, p.done)
}

// Stop halts polling. Responses still in flight are discarded. Stop is
// idempotent and returns once no delivery is in progress.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.gen++
	p.cancel()
	done := p.done
	p.mu.Unlock()

	<-done
	p.deliver.Lock()
	p.deliver.Unlock() //nolint:staticcheck // barrier
}

func (p *Poller) loop(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)
	go p.poll(ctx, gen)

	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			go p.poll(ctx, gen)
		}
	}
}

func (p *Poller) poll(ctx context.Context, gen uint64) {
	logs, err := p.fetch(ctx)

	p.deliver.Lock()
	defer p.deliver.Unlock()
	if !p.current(gen) {
		return
	}
	if err != nil {
		p.log.Warn().Err(err).Msg("log refresh failed")
		if p.onErr != nil {
			p.onErr(err)
		}
		return
	}
	p.handle(logs)
}

func (p *Poller) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && p.gen == gen
}
