// Package page keeps one view connector per page and serializes scene
// construction flows per page.
package page

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/threeview/internal/logging"
	"github.com/aretw0/threeview/pkg/domain"
	"github.com/aretw0/threeview/pkg/ports"
	"github.com/aretw0/threeview/pkg/scene"
)

// DefaultLockTTL bounds how long a distributed page lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Builder populates the scene of a freshly opened page.
type Builder func(ctx context.Context, v *scene.View) error

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates page views, ensuring one construction flow per page at a time.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	registry  ports.ConnectionRegistry
	scheduler ports.Scheduler
	builder   Builder
	viewOpts  func(pageID string) []scene.Option

	mu      sync.Mutex
	views   map[string]*scene.View
	holders map[*scene.View]int
	locks   map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithBuilder sets the function that builds the initial scene of every new page.
func WithBuilder(b Builder) Option {
	return func(m *Manager) {
		m.builder = b
	}
}

// WithViewOptions supplies per-page view options (click handler, hooks, logger).
func WithViewOptions(fn func(pageID string) []scene.Option) Option {
	return func(m *Manager) {
		m.viewOpts = fn
	}
}

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = locker
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a page manager delivering through registry and sched.
func NewManager(registry ports.ConnectionRegistry, sched ports.Scheduler, opts ...Option) *Manager {
	m := &Manager{
		registry:  registry,
		scheduler: sched,
		views:     make(map[string]*scene.View),
		holders:   make(map[*scene.View]int),
		locks:     make(map[string]*lockEntry),
		lockTTL:   DefaultLockTTL,
		logger:    logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(pageID) after unlocking.
func (m *Manager) acquire(pageID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[pageID]
	if !exists {
		entry = &lockEntry{}
		m.locks[pageID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(pageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[pageID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, pageID)
	}
}

func (m *Manager) locked(ctx context.Context, pageID string, fn func(context.Context) error) error {
	entry := m.acquire(pageID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(pageID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "page:"+pageID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"page_id", pageID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Open returns the view of the page, creating and building it on first use.
// A page whose builder fails is not registered.
func (m *Manager) Open(ctx context.Context, pageID string) (*scene.View, error) {
	if v, err := m.Get(pageID); err == nil {
		return v, nil
	}

	var view *scene.View
	err := m.locked(ctx, pageID, func(ctx context.Context) error {
		m.mu.Lock()
		existing, ok := m.views[pageID]
		m.mu.Unlock()
		if ok {
			view = existing
			return nil
		}

		var opts []scene.Option
		if m.viewOpts != nil {
			opts = m.viewOpts(pageID)
		}
		v := scene.NewView(pageID, m.registry, m.scheduler, opts...)
		if m.builder != nil {
			if err := m.builder(ctx, v); err != nil {
				return fmt.Errorf("failed to build page %s: %w", pageID, err)
			}
		}

		m.mu.Lock()
		m.views[pageID] = v
		m.mu.Unlock()

		m.logger.Info("Page opened", "page_id", pageID, "objects", len(v.Objects()))
		view = v
		return nil
	})
	return view, err
}

// Get returns an existing page view.
func (m *Manager) Get(pageID string) (*scene.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.views[pageID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", pageID, domain.ErrPageNotFound)
	}
	return v, nil
}

// Acquire opens the page like Open and holds it until the returned release
// func is called. A page is closed when its last holder releases it.
func (m *Manager) Acquire(ctx context.Context, pageID string) (*scene.View, func(), error) {
	for {
		v, err := m.Open(ctx, pageID)
		if err != nil {
			return nil, nil, err
		}

		m.mu.Lock()
		if m.views[pageID] == v {
			m.holders[v]++
			m.mu.Unlock()
			var once sync.Once
			return v, func() { once.Do(func() { m.drop(pageID, v) }) }, nil
		}
		// Closed between Open and here; open a fresh one.
		m.mu.Unlock()
	}
}

func (m *Manager) drop(pageID string, v *scene.View) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.holders[v]--
	if m.holders[v] > 0 {
		return
	}
	delete(m.holders, v)
	if m.views[pageID] == v {
		delete(m.views, pageID)
		m.logger.Info("Page closed", "page_id", pageID, "reason", "idle")
	}
}

// WithLock runs fn against the page view while no other flow of this manager
// (or, with a distributed locker, of any replica) mutates the same page.
// It does not open pages: an unknown page yields domain.ErrPageNotFound.
func (m *Manager) WithLock(ctx context.Context, pageID string, fn func(context.Context, *scene.View) error) error {
	v, err := m.Get(pageID)
	if err != nil {
		return err
	}
	return m.locked(ctx, pageID, func(ctx context.Context) error {
		return fn(ctx, v)
	})
}

// Close discards the page view and its scene graph. Lock entries are not
// touched: they are reference counted and vanish once no flow holds them.
func (m *Manager) Close(pageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.views[pageID]; ok {
		delete(m.views, pageID)
		m.logger.Info("Page closed", "page_id", pageID)
	}
}

// Pages lists the open pages.
func (m *Manager) Pages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.views))
	for id := range m.views {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
