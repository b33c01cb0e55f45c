package threeview_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/threeview"
	"github.com/aretw0/threeview/pkg/adapters/memory"
	"github.com/aretw0/threeview/pkg/domain"
	"github.com/aretw0/threeview/pkg/scene"
)

func TestEngine_OpenBuildsPage(t *testing.T) {
	ctx := context.Background()
	engine := threeview.New(ctx, threeview.WithBuilder(func(ctx context.Context, v *scene.View) error {
		v.Scene()
		v.Sphere(2, 16, 8)
		return nil
	}))
	t.Cleanup(func() { _ = engine.Shutdown(context.Background()) })

	view, err := engine.Open(ctx, "home")
	require.NoError(t, err)
	require.Len(t, view.Objects(), 2)
	assert.Equal(t, []string{"home"}, engine.Pages().Pages())

	again, err := engine.Open(ctx, "home")
	require.NoError(t, err)
	assert.Same(t, view, again)
}

func TestEngine_ClickHandlerRunsUnderPageLock(t *testing.T) {
	ctx := context.Background()
	var box *scene.Object

	engine := threeview.New(ctx,
		threeview.WithBuilder(func(ctx context.Context, v *scene.View) error {
			box = v.Box(1, 1, 1)
			return nil
		}),
		threeview.WithClickHandler(func(ctx context.Context, v *scene.View, ev domain.ClickEvent) bool {
			obj, err := v.Lookup(ev.ObjectID)
			if err != nil {
				return false
			}
			obj.Material("#0000ff", 1)
			return true
		}),
	)
	t.Cleanup(func() { _ = engine.Shutdown(context.Background()) })

	view, err := engine.Open(ctx, "home")
	require.NoError(t, err)

	handled, err := view.HandleEvent(scene.Event{
		Type:  domain.EventClick,
		Click: domain.ClickEvent{ObjectID: box.ID()},
	})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "#0000ff", box.Color())

	handled, err = view.HandleEvent(scene.Event{
		Type:  domain.EventClick,
		Click: domain.ClickEvent{ObjectID: "missing"},
	})
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestEngine_HooksReachViews(t *testing.T) {
	ctx := context.Background()
	replays := make(chan int, 1)
	engine := threeview.New(ctx,
		threeview.WithBuilder(func(ctx context.Context, v *scene.View) error {
			v.Scene()
			return nil
		}),
		threeview.WithHooks(domain.Hooks{
			OnReplay: func(_ context.Context, e *domain.ReplayEvent) { replays <- e.Objects },
		}),
	)
	t.Cleanup(func() { _ = engine.Shutdown(context.Background()) })

	view, err := engine.Open(ctx, "home")
	require.NoError(t, err)

	sock := memory.NewSocket("s1")
	view.OnConnect(sock)
	assert.Equal(t, 1, <-replays)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	got, err := sock.WaitFor(waitCtx, 3)
	require.NoError(t, err)
	assert.Equal(t, `create("scene", "scene", null, )`, got[0])
}

func ExampleNew() {
	ctx := context.Background()
	engine := threeview.New(ctx, threeview.WithBuilder(func(ctx context.Context, v *scene.View) error {
		v.Scene()
		g := v.Group()
		return v.Within(g, func() error {
			v.Box(1, 2, 3).Material("#ff0000", 0.5)
			return nil
		})
	}))
	defer engine.Shutdown(ctx)

	view, err := engine.Open(ctx, "home")
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, obj := range view.Objects() {
		fmt.Println(obj.Type(), obj.ParentID() != "", obj.Args())
	}
	// Output:
	// scene false []
	// group false []
	// box true [1 2 3]
}
