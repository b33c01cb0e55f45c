package scene

import (
	"fmt"

	"github.com/aretw0/threeview/pkg/command"
	"github.com/aretw0/threeview/pkg/domain"
	"github.com/google/uuid"
)

// Object is one node of the scene graph.
// Its type, args and parent are fixed at construction; only material and
// position change afterwards, and only through Material and Move.
type Object struct {
	view   *View
	id     string
	typ    domain.ObjectType
	args   []float64
	parent *Object

	color    string
	opacity  float64
	position domain.Position
}

// NewObject constructs an object of type t in view v.
// Missing trailing args take the shape's declared defaults.
func NewObject(v *View, t domain.ObjectType, args ...float64) (*Object, error) {
	if v == nil {
		return nil, fmt.Errorf("constructing %s: %w", t, domain.ErrNoView)
	}
	shape, err := domain.LookupShape(t)
	if err != nil {
		return nil, err
	}
	full, err := shape.Complete(args)
	if err != nil {
		return nil, err
	}
	return v.add(t, full), nil
}

func newID(t domain.ObjectType) string {
	if t == domain.TypeScene {
		return domain.SceneID
	}
	return uuid.NewString()
}

// ID returns the object identifier.
func (o *Object) ID() string { return o.id }

// Type returns the object type tag.
func (o *Object) Type() domain.ObjectType { return o.typ }

// Args returns a copy of the construction args.
func (o *Object) Args() []float64 { return append([]float64(nil), o.args...) }

// Parent returns the grouping object this object was constructed in, or nil.
func (o *Object) Parent() *Object { return o.parent }

// ParentID returns the parent's id, or "" when there is none.
func (o *Object) ParentID() string {
	if o.parent == nil {
		return ""
	}
	return o.parent.id
}

// View returns the view connector that owns the object.
func (o *Object) View() *View { return o.view }

// Color returns the current material color.
func (o *Object) Color() string {
	o.view.mu.Lock()
	defer o.view.mu.Unlock()
	return o.color
}

// Opacity returns the current material opacity.
func (o *Object) Opacity() float64 {
	o.view.mu.Lock()
	defer o.view.mu.Unlock()
	return o.opacity
}

// Position returns the current position.
func (o *Object) Position() domain.Position {
	o.view.mu.Lock()
	defer o.view.mu.Unlock()
	return o.position
}

// Material sets color and opacity and broadcasts the material command.
func (o *Object) Material(color string, opacity float64) *Object {
	o.view.mu.Lock()
	defer o.view.unlock()

	o.color = color
	o.opacity = opacity
	o.view.dispatchLocked(o.materialCommand(), nil, false)
	return o
}

// Move sets the position and broadcasts the move command.
func (o *Object) Move(x, y, z float64) *Object {
	o.view.mu.Lock()
	defer o.view.unlock()

	o.position = domain.Position{X: x, Y: y, Z: z}
	o.view.dispatchLocked(o.moveCommand(), nil, false)
	return o
}

// Snapshot returns a value copy of the object's current state.
func (o *Object) Snapshot() domain.ObjectSnapshot {
	o.view.mu.Lock()
	defer o.view.mu.Unlock()
	return o.snapshotLocked()
}

// CreateCommand encodes the object's create command.
func (o *Object) CreateCommand() domain.Command {
	return command.Create(o.typ, o.id, o.ParentID(), o.args)
}

// MaterialCommand encodes the object's current material.
func (o *Object) MaterialCommand() domain.Command {
	o.view.mu.Lock()
	defer o.view.mu.Unlock()
	return o.materialCommand()
}

// MoveCommand encodes the object's current position.
func (o *Object) MoveCommand() domain.Command {
	o.view.mu.Lock()
	defer o.view.mu.Unlock()
	return o.moveCommand()
}

func (o *Object) materialCommand() domain.Command {
	return command.Material(o.id, o.color, o.opacity)
}

func (o *Object) moveCommand() domain.Command {
	return command.Move(o.id, o.position.X, o.position.Y, o.position.Z)
}

func (o *Object) snapshotLocked() domain.ObjectSnapshot {
	return domain.ObjectSnapshot{
		ID:       o.id,
		Type:     o.typ,
		ParentID: o.ParentID(),
		Args:     o.Args(),
		Color:    o.color,
		Opacity:  o.opacity,
		Position: o.position,
	}
}
