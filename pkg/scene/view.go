package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/threeview/internal/logging"
	"github.com/aretw0/threeview/pkg/command"
	"github.com/aretw0/threeview/pkg/domain"
	"github.com/aretw0/threeview/pkg/ports"
	"github.com/aretw0/threeview/pkg/scheduler"
)

// ClickHandler is the application callback for click events.
// It reports whether the click was handled.
type ClickHandler func(domain.ClickEvent) bool

// Event is an inbound client event routed to a View.
type Event struct {
	Type   domain.EventType
	Socket ports.Socket
	Click  domain.ClickEvent
}

// View is the per-page view connector: it owns the object registry and the
// grouping stack, and is the single point through which commands leave the page.
type View struct {
	pageID    string
	registry  ports.ConnectionRegistry
	scheduler ports.Scheduler
	onClick   ClickHandler
	hooks     domain.Hooks
	logger    *slog.Logger

	mu      sync.Mutex
	objects []*Object
	stack   Stack
	pending []func() // hook calls queued while mu is held
}

// Option configures a View.
type Option func(*View)

// WithClickHandler registers the application click callback.
func WithClickHandler(h ClickHandler) Option {
	return func(v *View) {
		v.onClick = h
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(v *View) {
		v.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the View.
func WithLogger(logger *slog.Logger) Option {
	return func(v *View) {
		v.logger = logger
	}
}

type emptyRegistry struct{}

func (emptyRegistry) SocketsFor(string) []ports.Socket { return nil }

// NewView creates the view connector of a page.
// A nil registry means no socket is ever connected; a nil scheduler gets a
// private scheduler.Pool.
func NewView(pageID string, registry ports.ConnectionRegistry, sched ports.Scheduler, opts ...Option) *View {
	v := &View{
		pageID:    pageID,
		registry:  registry,
		scheduler: sched,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.registry == nil {
		v.registry = emptyRegistry{}
	}
	if v.scheduler == nil {
		v.scheduler = scheduler.NewPool(context.Background(), scheduler.WithLogger(v.logger))
	}
	v.logger = v.logger.With("page_id", pageID)
	return v
}

// PageID returns the page this view belongs to.
func (v *View) PageID() string {
	return v.pageID
}

// unlock releases mu and then runs the hooks queued while it was held,
// so hooks may read the view.
func (v *View) unlock() {
	fire := v.pending
	v.pending = nil
	v.mu.Unlock()
	for _, fn := range fire {
		fn()
	}
}

func (v *View) add(t domain.ObjectType, args []float64) *Object {
	v.mu.Lock()
	defer v.unlock()

	obj := &Object{
		view:     v,
		id:       newID(t),
		typ:      t,
		args:     args,
		parent:   v.stack.Top(),
		color:    domain.DefaultColor,
		opacity:  domain.DefaultOpacity,
		position: domain.Position{},
	}
	v.dispatchLocked(obj.CreateCommand(), nil, false)
	v.objects = append(v.objects, obj)

	v.logger.Debug("Object created", "object_id", obj.id, "type", t, "parent_id", obj.ParentID())
	return obj
}

// BeginScope opens a grouping scope: objects constructed until the matching
// EndScope get obj as their parent.
func (v *View) BeginScope(obj *Object) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stack.Push(obj)
}

// EndScope closes the innermost grouping scope.
func (v *View) EndScope() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, err := v.stack.Pop()
	return err
}

// Within runs fn inside a grouping scope for obj. The scope is closed on every
// exit path, including a panic in fn.
func (v *View) Within(obj *Object, fn func() error) (err error) {
	v.BeginScope(obj)
	defer func() {
		if endErr := v.EndScope(); endErr != nil && err == nil {
			err = endErr
		}
	}()
	return fn()
}

// ScopeDepth returns the number of open grouping scopes.
func (v *View) ScopeDepth() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stack.Len()
}

// Dispatch sends cmd to target, or to every socket of the page when target is nil.
// Delivery is handed to the scheduler; Dispatch never blocks on I/O and never fails.
func (v *View) Dispatch(cmd domain.Command, target ports.Socket) {
	v.mu.Lock()
	defer v.unlock()
	v.dispatchLocked(cmd, target, false)
}

func (v *View) dispatchLocked(cmd domain.Command, target ports.Socket, replay bool) {
	var sockets []ports.Socket
	if target != nil {
		sockets = []ports.Socket{target}
	} else {
		sockets = v.registry.SocketsFor(v.pageID)
	}

	for _, sock := range sockets {
		ev := domain.DispatchEvent{
			Timestamp: time.Now(),
			PageID:    v.pageID,
			SocketID:  sock.ID(),
			Command:   cmd,
			Replay:    replay,
		}
		if v.hooks.OnDispatch != nil {
			v.pending = append(v.pending, func() { v.hooks.OnDispatch(context.Background(), &ev) })
		}
		v.scheduler.Spawn(sock.ID(), v.deliver(sock, ev))
	}
}

func (v *View) deliver(sock ports.Socket, ev domain.DispatchEvent) ports.Task {
	return func(ctx context.Context) {
		err := sock.Send(ctx, ev.Command.Text)
		if err == nil {
			return
		}
		v.logger.Debug("Delivery dropped",
			"socket_id", ev.SocketID,
			"command", ev.Command.Kind,
			"err", err,
		)
		if v.hooks.OnDeliveryError != nil {
			v.hooks.OnDeliveryError(ctx, &domain.DeliveryErrorEvent{DispatchEvent: ev, Err: err})
		}
	}
}

// OnConnect replays the current state of every object, in construction order,
// to sock only: create, then material, then move.
func (v *View) OnConnect(sock ports.Socket) {
	v.mu.Lock()
	defer v.unlock()
	v.replayLocked(sock)
}

// Attach runs register (which makes sock visible to the registry) and the
// replay to sock as one step. No command is dispatched in between, so every
// change reaches sock exactly once: in the replay, or live after it.
func (v *View) Attach(sock ports.Socket, register func()) {
	v.mu.Lock()
	defer v.unlock()
	if register != nil {
		register()
	}
	v.replayLocked(sock)
}

func (v *View) replayLocked(sock ports.Socket) {
	for _, obj := range v.objects {
		for _, cmd := range command.Encode(obj.snapshotLocked()) {
			v.dispatchLocked(cmd, sock, true)
		}
	}

	v.logger.Debug("Replayed scene", "socket_id", sock.ID(), "objects", len(v.objects))
	if v.hooks.OnReplay != nil {
		ev := domain.ReplayEvent{
			Timestamp: time.Now(),
			PageID:    v.pageID,
			SocketID:  sock.ID(),
			Objects:   len(v.objects),
		}
		v.pending = append(v.pending, func() { v.hooks.OnReplay(context.Background(), &ev) })
	}
}

// OnClick invokes the registered click handler and returns its result, or
// false when none is registered. A panic in the handler is not recovered.
func (v *View) OnClick(ev domain.ClickEvent) bool {
	if ev.PageID == "" {
		ev.PageID = v.pageID
	}
	handled := false
	if v.onClick != nil {
		handled = v.onClick(ev)
	}
	if v.hooks.OnClick != nil {
		v.hooks.OnClick(context.Background(), &ev, handled)
	}
	return handled
}

// HandleEvent routes an inbound event. Only connect and click are accepted.
func (v *View) HandleEvent(ev Event) (bool, error) {
	switch ev.Type {
	case domain.EventConnect:
		if ev.Socket == nil {
			return false, errors.New("connect event without socket")
		}
		v.OnConnect(ev.Socket)
		return true, nil
	case domain.EventClick:
		return v.OnClick(ev.Click), nil
	default:
		return false, fmt.Errorf("%q: %w", ev.Type, domain.ErrUnsupportedEvent)
	}
}

// Objects returns the registry in construction order.
func (v *View) Objects() []*Object {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*Object(nil), v.objects...)
}

// Lookup finds an object by id. The root scene id resolves to the first root.
func (v *View) Lookup(id string) (*Object, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, obj := range v.objects {
		if obj.id == id {
			return obj, nil
		}
	}
	return nil, fmt.Errorf("%s on page %s: %w", id, v.pageID, domain.ErrObjectNotFound)
}

// Snapshot returns the current state of every object in construction order.
func (v *View) Snapshot() []domain.ObjectSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]domain.ObjectSnapshot, 0, len(v.objects))
	for _, obj := range v.objects {
		out = append(out, obj.snapshotLocked())
	}
	return out
}
