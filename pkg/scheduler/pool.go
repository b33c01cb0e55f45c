// Package scheduler runs fire-and-forget delivery tasks.
//
// A Pool keeps one lane per key. Tasks submitted to the same lane run one at a
// time in submission order on a goroutine started on demand; the goroutine
// exits as soon as its lane is empty. Distinct lanes run concurrently.
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/threeview/internal/logging"
	"github.com/aretw0/threeview/pkg/ports"
)

var _ ports.Scheduler = (*Pool)(nil)

type lane struct {
	queue []ports.Task
}

// Pool implements ports.Scheduler with keyed FIFO lanes.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool
	wg     sync.WaitGroup
}

// Option configures the Pool.
type Option func(*Pool)

// WithLogger configures a logger for the Pool.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// NewPool creates a pool whose tasks observe ctx (and the pool's own shutdown).
func NewPool(ctx context.Context, opts ...Option) *Pool {
	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		ctx:    ctx,
		cancel: cancel,
		logger: logging.NewNop(),
		lanes:  make(map[string]*lane),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Spawn queues task on the lane identified by key and returns immediately.
// Tasks spawned after Shutdown are dropped.
func (p *Pool) Spawn(key string, task ports.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.logger.Debug("Scheduler closed, dropping task", "key", key)
		return
	}

	l, running := p.lanes[key]
	if !running {
		l = &lane{}
		p.lanes[key] = l
	}
	l.queue = append(l.queue, task)

	if !running {
		p.wg.Add(1)
		go p.drain(key, l)
	}
}

func (p *Pool) drain(key string, l *lane) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		if len(l.queue) == 0 {
			delete(p.lanes, key)
			p.mu.Unlock()
			return
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		p.mu.Unlock()

		p.run(key, task)
	}
}

func (p *Pool) run(key string, task ports.Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Task panicked", "key", key, "panic", r)
		}
	}()
	task(p.ctx)
}

// Pending returns the number of queued tasks not yet started, across all lanes.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, l := range p.lanes {
		n += len(l.queue)
	}
	return n
}

// Shutdown stops accepting tasks, cancels the context seen by running and
// queued tasks, and waits for every lane to finish or ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
