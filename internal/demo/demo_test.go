package demo_test

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/threeview/internal/demo"
	"github.com/aretw0/threeview/internal/logging"
	"github.com/aretw0/threeview/pkg/adapters/memory"
	"github.com/aretw0/threeview/pkg/domain"
	"github.com/aretw0/threeview/pkg/page"
	"github.com/aretw0/threeview/pkg/scene"
	"github.com/aretw0/threeview/pkg/scheduler"
)

func newView(t *testing.T) *scene.View {
	t.Helper()
	pool := scheduler.NewPool(context.Background())
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })
	v := scene.NewView("demo", memory.NewRegistry(), pool)
	require.NoError(t, demo.Build(context.Background(), v))
	return v
}

func TestBuild(t *testing.T) {
	v := newView(t)
	objects := v.Objects()
	require.Len(t, objects, 7)
	assert.Equal(t, domain.TypeScene, objects[0].Type())
	assert.Equal(t, domain.TypeGroup, objects[2].Type())
	for _, obj := range objects[3:] {
		assert.Same(t, objects[2], obj.Parent())
	}
	assert.Equal(t, 0, v.ScopeDepth())
}

func TestOnClick_CyclesPalette(t *testing.T) {
	v := newView(t)
	box := v.Objects()[3]
	require.Equal(t, demo.Palette[0], box.Color())

	ctx := context.Background()
	assert.True(t, demo.OnClick(ctx, v, domain.ClickEvent{ObjectID: box.ID()}))
	assert.Equal(t, demo.Palette[1], box.Color())

	assert.False(t, demo.OnClick(ctx, v, domain.ClickEvent{ObjectID: "nothing"}))
	assert.False(t, demo.OnClick(ctx, v, domain.ClickEvent{ObjectID: domain.SceneID}))
}

func TestStep_KeepsRing(t *testing.T) {
	v := newView(t)
	demo.Step(v, math.Pi/3)

	for _, obj := range v.Objects()[3:] {
		p := obj.Position()
		assert.InDelta(t, 2.0, math.Hypot(p.X, p.Z), 1e-9)
		assert.Equal(t, 0.6, p.Y)
	}
	floor := v.Objects()[1].Position()
	assert.Equal(t, -0.05, floor.Y, "objects outside groups stay put")
}

type countingPages struct {
	*page.Manager
	steps atomic.Int32
}

func (c *countingPages) WithLock(ctx context.Context, pageID string, fn func(context.Context, *scene.View) error) error {
	c.steps.Add(1)
	return c.Manager.WithLock(ctx, pageID, fn)
}

func TestAnimate_StopsWithContext(t *testing.T) {
	pool := scheduler.NewPool(context.Background())
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })
	pages := &countingPages{Manager: page.NewManager(memory.NewRegistry(), pool, page.WithBuilder(demo.Build))}
	_, err := pages.Open(context.Background(), "home")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		demo.Animate(ctx, pages, 5*time.Millisecond, logging.NewNop())
		close(done)
	}()

	require.Eventually(t, func() bool { return pages.steps.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Animate did not stop")
	}
}
