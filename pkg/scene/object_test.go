package scene_test

import (
	"testing"

	"github.com/aretw0/threeview/pkg/domain"
	"github.com/aretw0/threeview/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObject_RequiresView(t *testing.T) {
	_, err := scene.NewObject(nil, domain.TypeBox)
	assert.ErrorIs(t, err, domain.ErrNoView)
}

func TestNewObject_Arity(t *testing.T) {
	f := newFixture(t)

	_, err := scene.NewObject(f.view, domain.TypeBox, 1, 2, 3, 4)
	assert.ErrorIs(t, err, domain.ErrArgArity)

	_, err = scene.NewObject(f.view, domain.TypeGroup, 1)
	assert.ErrorIs(t, err, domain.ErrArgArity)

	_, err = scene.NewObject(f.view, "torus")
	assert.ErrorIs(t, err, domain.ErrUnknownType)

	assert.Empty(t, f.view.Objects(), "failed constructions must not reach the registry")
}

func TestNewObject_Defaults(t *testing.T) {
	f := newFixture(t)

	sphere, err := scene.NewObject(f.view, domain.TypeSphere, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 32, 16}, sphere.Args())

	cyl, err := scene.NewObject(f.view, domain.TypeCylinder)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 8, 1}, cyl.Args())

	assert.Equal(t, domain.DefaultColor, cyl.Color())
	assert.Equal(t, domain.DefaultOpacity, cyl.Opacity())
	assert.Equal(t, domain.Position{}, cyl.Position())
}

func TestObject_ArgsAreImmutable(t *testing.T) {
	f := newFixture(t)
	box := f.view.Box(1, 2, 3)

	args := box.Args()
	args[0] = 99
	assert.Equal(t, []float64{1, 2, 3}, box.Args())
	assert.Equal(t, `create("box", "`+box.ID()+`", null, 1.0, 2.0, 3.0)`, box.CreateCommand().Text)
}

func TestObject_Chaining(t *testing.T) {
	f := newFixture(t)
	box := f.view.Box(1, 1, 1)
	assert.Same(t, box, box.Material("#000000", 0).Move(1, 1, 1))
	assert.Equal(t, `move("`+box.ID()+`", 1, 1, 1)`, box.MoveCommand().Text)
	assert.Equal(t, `material("`+box.ID()+`", "#000000", 0)`, box.MaterialCommand().Text)
}

func TestScope(t *testing.T) {
	f := newFixture(t)
	g := f.view.Group()

	outside := f.view.Box(1, 1, 1)
	assert.Nil(t, outside.Parent())

	f.view.BeginScope(g)
	inside := f.view.Box(1, 1, 1)
	require.NoError(t, f.view.EndScope())

	assert.Same(t, g, inside.Parent())
	assert.Equal(t, g.ID(), inside.ParentID())
	assert.ErrorIs(t, f.view.EndScope(), domain.ErrScopeUnderflow)
}

func TestWithin_PopsOnFailure(t *testing.T) {
	f := newFixture(t)
	g := f.view.Group()

	boom := assert.AnError
	err := f.view.Within(g, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, f.view.ScopeDepth())

	assert.Panics(t, func() {
		_ = f.view.Within(g, func() error { panic("build failed") })
	})
	assert.Equal(t, 0, f.view.ScopeDepth())
}

func TestWithin_Nested(t *testing.T) {
	f := newFixture(t)
	outer := f.view.Group()
	var inner, leaf, sibling *scene.Object

	_ = f.view.Within(outer, func() error {
		inner = f.view.Group()
		_ = f.view.Within(inner, func() error {
			leaf = f.view.Box(1, 1, 1)
			return nil
		})
		sibling = f.view.Box(1, 1, 1)
		return nil
	})

	assert.Equal(t, outer.ID(), inner.ParentID())
	assert.Equal(t, inner.ID(), leaf.ParentID())
	assert.Equal(t, outer.ID(), sibling.ParentID())
}

func TestStack(t *testing.T) {
	var s scene.Stack
	assert.Nil(t, s.Top())
	_, err := s.Pop()
	assert.ErrorIs(t, err, domain.ErrScopeUnderflow)
}
