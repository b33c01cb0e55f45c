package scene_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/threeview/pkg/adapters/memory"
	"github.com/aretw0/threeview/pkg/domain"
	"github.com/aretw0/threeview/pkg/mirror"
	"github.com/aretw0/threeview/pkg/scene"
	"github.com/aretw0/threeview/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = "home"

type fixture struct {
	view     *scene.View
	registry *memory.Registry
	pool     *scheduler.Pool
}

func newFixture(t *testing.T, opts ...scene.Option) *fixture {
	t.Helper()
	reg := memory.NewRegistry()
	pool := scheduler.NewPool(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
	})
	return &fixture{
		view:     scene.NewView(page, reg, pool, opts...),
		registry: reg,
		pool:     pool,
	}
}

func (f *fixture) connect(id string) *memory.Socket {
	s := memory.NewSocket(id)
	f.registry.Add(page, s)
	return s
}

func wait(t *testing.T, s *memory.Socket, n int) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := s.WaitFor(ctx, n)
	require.NoError(t, err, "socket %s received %d of %d commands: %v", s.ID(), len(got), n, got)
	return got
}

func TestView_ExampleTrace(t *testing.T) {
	f := newFixture(t)
	early := f.connect("early")

	root := f.view.Scene()
	g1 := f.view.Group()
	var b1 *scene.Object
	require.NoError(t, f.view.Within(g1, func() error {
		b1 = f.view.Box(1, 1, 1)
		return nil
	}))
	b1.Material("#ff0000", 0.5)

	assert.Equal(t, domain.SceneID, root.ID())
	assert.Empty(t, g1.ParentID())
	assert.Equal(t, g1.ID(), b1.ParentID())

	live := wait(t, early, 4)
	assert.Equal(t, []string{
		`create("scene", "scene", null, )`,
		fmt.Sprintf(`create("group", %q, null, )`, g1.ID()),
		fmt.Sprintf(`create("box", %q, %q, 1.0, 1.0, 1.0)`, b1.ID(), g1.ID()),
		fmt.Sprintf(`material(%q, "#ff0000", 0.5)`, b1.ID()),
	}, live)

	late := f.connect("late")
	f.view.OnConnect(late)
	replay := wait(t, late, 9)
	assert.Equal(t, []string{
		`create("scene", "scene", null, )`,
		`material("scene", "#ffffff", 1)`,
		`move("scene", 0, 0, 0)`,
		fmt.Sprintf(`create("group", %q, null, )`, g1.ID()),
		fmt.Sprintf(`material(%q, "#ffffff", 1)`, g1.ID()),
		fmt.Sprintf(`move(%q, 0, 0, 0)`, g1.ID()),
		fmt.Sprintf(`create("box", %q, %q, 1.0, 1.0, 1.0)`, b1.ID(), g1.ID()),
		fmt.Sprintf(`material(%q, "#ff0000", 0.5)`, b1.ID()),
		fmt.Sprintf(`move(%q, 0, 0, 0)`, b1.ID()),
	}, replay)

	// Replay goes to the new socket only.
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, early.Received(), 4)
}

func TestView_ReplayMatchesLiveState(t *testing.T) {
	f := newFixture(t)
	early := f.connect("early")

	f.view.Scene()
	outer := f.view.Group().Move(1, 0, 0)
	var inner, sphere, cyl *scene.Object
	require.NoError(t, f.view.Within(outer, func() error {
		inner = f.view.Group()
		return f.view.Within(inner, func() error {
			sphere = f.view.Sphere(0.5, 16, 8).Material("#00ff00", 0.2).Move(1, 2, 3)
			cyl = f.view.Cylinder(1, 0, 2, 12, 1)
			return nil
		})
	}))
	sphere.Move(4, 5, 6).Material("#0000ff", 0.9)
	cyl.Material("#123456", 1)
	loose := f.view.Box(2, 2, 2).Move(-1, -1, -1)

	liveCount := 6 + 7 // creates + mutations
	liveCmds := wait(t, early, liveCount)

	late := f.connect("late")
	f.view.OnConnect(late)
	replayCmds := wait(t, late, 3*6)

	liveMirror, replayMirror := mirror.New(), mirror.New()
	for _, c := range liveCmds {
		require.NoError(t, liveMirror.Apply(c))
	}
	for _, c := range replayCmds {
		require.NoError(t, replayMirror.Apply(c))
	}

	assert.Equal(t, f.view.Snapshot(), replayMirror.Objects())
	assert.Equal(t, liveMirror.Objects(), replayMirror.Objects())

	assert.Equal(t, outer.ID(), inner.ParentID())
	assert.Equal(t, inner.ID(), sphere.ParentID())
	assert.Equal(t, inner.ID(), cyl.ParentID())
	assert.Empty(t, loose.ParentID())
}

func TestView_ReplayOrderPerObject(t *testing.T) {
	f := newFixture(t)
	a := f.view.Box(1, 1, 1).Move(1, 1, 1)
	b := f.view.Group().Material("#abcdef", 0.3)

	late := f.connect("late")
	f.view.OnConnect(late)
	got := wait(t, late, 6)

	ids := []string{a.ID(), a.ID(), a.ID(), b.ID(), b.ID(), b.ID()}
	kinds := []domain.CommandKind{
		domain.CommandCreate, domain.CommandMaterial, domain.CommandMove,
		domain.CommandCreate, domain.CommandMaterial, domain.CommandMove,
	}
	for i, text := range got {
		call, err := mirror.Parse(text)
		require.NoError(t, err)
		assert.Equal(t, kinds[i], call.Kind, text)
		assert.Equal(t, ids[i], call.ObjectID, text)
	}
}

func TestView_IdempotentMutations(t *testing.T) {
	f := newFixture(t)
	s := f.connect("s")

	box := f.view.Box(1, 1, 1)
	box.Material("#ff0000", 0.5).Material("#ff0000", 0.5)
	box.Move(1, 2, 3).Move(1, 2, 3)

	got := wait(t, s, 5)
	assert.Equal(t, got[1], got[2])
	assert.Equal(t, got[3], got[4])
	assert.Equal(t, "#ff0000", box.Color())
	assert.Equal(t, 0.5, box.Opacity())
	assert.Equal(t, domain.Position{X: 1, Y: 2, Z: 3}, box.Position())
}

func TestView_SecondRootDoesNotReplaceFirst(t *testing.T) {
	f := newFixture(t)
	first := f.view.Scene()
	box := f.view.Box(1, 1, 1)
	second := f.view.Scene()

	assert.Equal(t, domain.SceneID, first.ID())
	assert.Equal(t, domain.SceneID, second.ID())
	assert.NotSame(t, first, second)
	assert.Len(t, f.view.Objects(), 3)
	assert.NotEqual(t, domain.SceneID, box.ID())
}

func TestView_UniqueIDs(t *testing.T) {
	f := newFixture(t)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		obj := f.view.Box(1, 1, 1)
		assert.False(t, seen[obj.ID()])
		seen[obj.ID()] = true
	}
}

func TestView_NoSocketsIsNotAnError(t *testing.T) {
	f := newFixture(t)
	box := f.view.Box(1, 1, 1).Material("#ff0000", 1).Move(1, 1, 1)
	assert.Equal(t, "#ff0000", box.Color())
	assert.Equal(t, 0, f.pool.Pending())
}

func TestView_DispatchToTarget(t *testing.T) {
	f := newFixture(t)
	a := f.connect("a")
	b := f.connect("b")

	f.view.Dispatch(domain.Command{Kind: domain.CommandMove, ObjectID: "x", Text: `move("x", 0, 0, 0)`}, b)
	assert.Equal(t, []string{`move("x", 0, 0, 0)`}, wait(t, b, 1))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, a.Received())
}

func TestView_DeliveryFailureIsAbsorbed(t *testing.T) {
	failed := make(chan *domain.DeliveryErrorEvent, 4)
	f := newFixture(t, scene.WithHooks(domain.Hooks{
		OnDeliveryError: func(ctx context.Context, e *domain.DeliveryErrorEvent) {
			failed <- e
		},
	}))
	dead := f.connect("dead")
	dead.Close()
	alive := f.connect("alive")

	box := f.view.Box(1, 1, 1)
	assert.Len(t, wait(t, alive, 1), 1)

	select {
	case e := <-failed:
		assert.Equal(t, "dead", e.SocketID)
		assert.Equal(t, box.ID(), e.Command.ObjectID)
		assert.ErrorIs(t, e.Err, memory.ErrSocketClosed)
	case <-time.After(time.Second):
		t.Fatal("delivery error hook not called")
	}
}

func TestView_Click(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.view.OnClick(domain.ClickEvent{ObjectID: "x"}))

	var got domain.ClickEvent
	f = newFixture(t, scene.WithClickHandler(func(ev domain.ClickEvent) bool {
		got = ev
		return true
	}))
	handled, err := f.view.HandleEvent(scene.Event{Type: domain.EventClick, Click: domain.ClickEvent{ObjectID: "b1", X: 1}})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "b1", got.ObjectID)
	assert.Equal(t, page, got.PageID)
}

func TestView_ClickHandlerPanicPropagates(t *testing.T) {
	f := newFixture(t, scene.WithClickHandler(func(domain.ClickEvent) bool {
		panic("handler bug")
	}))
	assert.Panics(t, func() { f.view.OnClick(domain.ClickEvent{}) })
}

func TestView_HandleEvent(t *testing.T) {
	f := newFixture(t)
	f.view.Box(1, 1, 1)

	s := f.connect("s")
	handled, err := f.view.HandleEvent(scene.Event{Type: domain.EventConnect, Socket: s})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Len(t, wait(t, s, 3), 3)

	_, err = f.view.HandleEvent(scene.Event{Type: domain.EventConnect})
	assert.Error(t, err)

	_, err = f.view.HandleEvent(scene.Event{Type: "hover"})
	assert.True(t, errors.Is(err, domain.ErrUnsupportedEvent))
}

func TestView_Lookup(t *testing.T) {
	f := newFixture(t)
	box := f.view.Box(1, 1, 1)

	got, err := f.view.Lookup(box.ID())
	require.NoError(t, err)
	assert.Same(t, box, got)

	_, err = f.view.Lookup("missing")
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestView_AttachOrdersMutationsAfterReplay(t *testing.T) {
	f := newFixture(t)
	box := f.view.Box(1, 1, 1)

	s := memory.NewSocket("late")
	mutated := make(chan *scene.Object, 1)
	f.view.Attach(s, func() {
		f.registry.Add(page, s)
		// Mutations racing the registration wait for the replay.
		go func() {
			box.Move(9, 9, 9)
			mutated <- f.view.Sphere(1, 8, 8)
		}()
	})

	var sphere *scene.Object
	select {
	case sphere = <-mutated:
	case <-time.After(2 * time.Second):
		t.Fatal("mutation did not complete")
	}

	got := wait(t, s, 5)
	assert.Equal(t, fmt.Sprintf(`move(%q, 0, 0, 0)`, box.ID()), got[2])
	assert.Equal(t, fmt.Sprintf(`move(%q, 9, 9, 9)`, box.ID()), got[3])
	assert.Equal(t, fmt.Sprintf(`create("sphere", %q, null, 1.0, 8, 8)`, sphere.ID()), got[4])

	m := mirror.New()
	for _, text := range got {
		require.NoError(t, m.Apply(text))
	}
	assert.Len(t, m.Objects(), 2)
	snap, ok := m.Get(box.ID())
	require.True(t, ok)
	assert.Equal(t, domain.Position{X: 9, Y: 9, Z: 9}, snap.Position)
}

func TestView_HooksMayReadView(t *testing.T) {
	var f *fixture
	colors := make(chan string, 8)
	replays := make(chan int, 1)
	f = newFixture(t, scene.WithHooks(domain.Hooks{
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			obj, err := f.view.Lookup(e.Command.ObjectID)
			if err == nil {
				colors <- obj.Color()
			}
		},
		OnReplay: func(ctx context.Context, e *domain.ReplayEvent) {
			replays <- len(f.view.Objects())
		},
	}))
	f.connect("s")

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.view.Box(1, 1, 1).Material("#123456", 1)
		f.view.OnConnect(memory.NewSocket("late"))
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hook reading the view deadlocked")
	}

	assert.Equal(t, domain.DefaultColor, <-colors)
	assert.Equal(t, "#123456", <-colors)
	assert.Equal(t, 1, <-replays)
}
