package threeview

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/threeview/internal/logging"
	"github.com/aretw0/threeview/pkg/adapters/websocket"
	"github.com/aretw0/threeview/pkg/domain"
	"github.com/aretw0/threeview/pkg/page"
	"github.com/aretw0/threeview/pkg/ports"
	"github.com/aretw0/threeview/pkg/scene"
	"github.com/aretw0/threeview/pkg/scheduler"
)

// Version is the release version. Overridden at build time with -ldflags.
var Version = "0.1.0-dev"

// ClickFunc handles a click on a page. It runs while the page is locked,
// so it may mutate the view freely.
type ClickFunc func(ctx context.Context, view *scene.View, ev domain.ClickEvent) bool

// Engine is the high-level entry point. It wires the scheduler, the
// WebSocket hub and the page manager together.
type Engine struct {
	pool  *scheduler.Pool
	hub   *websocket.Hub
	pages *page.Manager

	builder  page.Builder
	onClick  ClickFunc
	hooks    domain.Hooks
	presence ports.PresenceTracker
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	hubOpts  []websocket.Option
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithBuilder sets the scene construction flow run on first visit of a page.
func WithBuilder(b page.Builder) Option {
	return func(e *Engine) {
		e.builder = b
	}
}

// WithClickHandler routes click events of every page to fn.
func WithClickHandler(fn ClickFunc) Option {
	return func(e *Engine) {
		e.onClick = fn
	}
}

// WithHooks registers observability hooks on every view.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithPresence reports connections to a cluster-wide tracker.
func WithPresence(p ports.PresenceTracker) Option {
	return func(e *Engine) {
		e.presence = p
	}
}

// WithLocker serializes page flows across replicas.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockTTL = ttl
	}
}

// WithHubOptions passes transport options to the WebSocket hub.
func WithHubOptions(opts ...websocket.Option) Option {
	return func(e *Engine) {
		e.hubOpts = append(e.hubOpts, opts...)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine. ctx bounds the lifetime of delivery tasks:
// cancelling it cancels every pending send.
func New(ctx context.Context, opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	e.pool = scheduler.NewPool(ctx, scheduler.WithLogger(e.logger))

	hubOpts := []websocket.Option{websocket.WithLogger(e.logger)}
	if e.presence != nil {
		hubOpts = append(hubOpts, websocket.WithPresence(e.presence))
	}
	e.hub = websocket.NewHub(append(hubOpts, e.hubOpts...)...)

	pageOpts := []page.Option{
		page.WithLogger(e.logger),
		page.WithViewOptions(e.viewOptions),
	}
	if e.builder != nil {
		pageOpts = append(pageOpts, page.WithBuilder(e.builder))
	}
	if e.locker != nil {
		pageOpts = append(pageOpts, page.WithLocker(e.locker, e.lockTTL))
	}
	e.pages = page.NewManager(e.hub, e.pool, pageOpts...)

	return e
}

func (e *Engine) viewOptions(pageID string) []scene.Option {
	opts := []scene.Option{
		scene.WithHooks(e.hooks),
		scene.WithLogger(e.logger.With("page_id", pageID)),
	}
	if e.onClick != nil {
		opts = append(opts, scene.WithClickHandler(func(ev domain.ClickEvent) bool {
			handled := false
			err := e.pages.WithLock(context.Background(), pageID, func(ctx context.Context, v *scene.View) error {
				handled = e.onClick(ctx, v, ev)
				return nil
			})
			if err != nil {
				e.logger.Error("Click handling failed", "page_id", pageID, "err", err)
			}
			return handled
		}))
	}
	return opts
}

// Open returns the view of a page, building it on first use.
func (e *Engine) Open(ctx context.Context, pageID string) (*scene.View, error) {
	return e.pages.Open(ctx, pageID)
}

// Pages returns the page manager.
func (e *Engine) Pages() *page.Manager {
	return e.pages
}

// Hub returns the WebSocket hub, the connection registry of every page.
func (e *Engine) Hub() *websocket.Hub {
	return e.hub
}

// Scheduler returns the delivery pool.
func (e *Engine) Scheduler() *scheduler.Pool {
	return e.pool
}

// Shutdown cancels pending deliveries and waits for running ones.
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.pool.Shutdown(ctx)
}
