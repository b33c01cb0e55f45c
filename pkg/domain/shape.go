package domain

import (
	"fmt"
	"sort"
	"sync"
)

// ObjectType is the tag identifying the kind of a scene node.
type ObjectType string

const (
	TypeScene    ObjectType = "scene"
	TypeGroup    ObjectType = "group"
	TypeBox      ObjectType = "box"
	TypeSphere   ObjectType = "sphere"
	TypeCylinder ObjectType = "cylinder"
)

// SceneID is the reserved identifier of the root scene node.
const SceneID = "scene"

// ParamKind tells the encoder how a construction parameter is rendered.
type ParamKind int

const (
	// ParamFloat values always carry a fractional part on the wire ("1.0").
	ParamFloat ParamKind = iota
	// ParamInt values are rendered without a fractional part ("32").
	ParamInt
)

// Param declares one positional construction parameter of a shape.
type Param struct {
	Name    string
	Kind    ParamKind
	Default float64
}

// Shape is the declared argument list of an object type.
type Shape struct {
	Type   ObjectType
	Params []Param
}

// Arity returns the number of construction args.
func (s Shape) Arity() int {
	return len(s.Params)
}

// Defaults returns the default value of every parameter, in order.
func (s Shape) Defaults() []float64 {
	out := make([]float64, len(s.Params))
	for i, p := range s.Params {
		out[i] = p.Default
	}
	return out
}

// Complete validates args against the declared parameters and fills the
// missing trailing positions with their defaults.
func (s Shape) Complete(args []float64) ([]float64, error) {
	if len(args) > len(s.Params) {
		return nil, fmt.Errorf("%s takes %d args, got %d: %w", s.Type, len(s.Params), len(args), ErrArgArity)
	}
	out := s.Defaults()
	copy(out, args)
	return out, nil
}

var (
	shapesMu sync.RWMutex
	shapes   = map[ObjectType]Shape{
		TypeScene: {Type: TypeScene},
		TypeGroup: {Type: TypeGroup},
		TypeBox: {Type: TypeBox, Params: []Param{
			{Name: "width", Kind: ParamFloat, Default: 1.0},
			{Name: "height", Kind: ParamFloat, Default: 1.0},
			{Name: "depth", Kind: ParamFloat, Default: 1.0},
		}},
		TypeSphere: {Type: TypeSphere, Params: []Param{
			{Name: "radius", Kind: ParamFloat, Default: 1.0},
			{Name: "width_segments", Kind: ParamInt, Default: 32},
			{Name: "height_segments", Kind: ParamInt, Default: 16},
		}},
		TypeCylinder: {Type: TypeCylinder, Params: []Param{
			{Name: "top_radius", Kind: ParamFloat, Default: 1.0},
			{Name: "bottom_radius", Kind: ParamFloat, Default: 1.0},
			{Name: "height", Kind: ParamFloat, Default: 1.0},
			{Name: "radial_segments", Kind: ParamInt, Default: 8},
			{Name: "height_segments", Kind: ParamInt, Default: 1},
		}},
	}
)

// LookupShape returns the declared shape of an object type.
func LookupShape(t ObjectType) (Shape, error) {
	shapesMu.RLock()
	defer shapesMu.RUnlock()

	s, ok := shapes[t]
	if !ok {
		return Shape{}, fmt.Errorf("%q: %w", t, ErrUnknownType)
	}
	return s, nil
}

// RegisterShape declares a new object type, or replaces the parameters of an existing one.
// Renderers must know how to build the type for its create command to have any effect.
func RegisterShape(t ObjectType, params ...Param) {
	shapesMu.Lock()
	defer shapesMu.Unlock()
	shapes[t] = Shape{Type: t, Params: append([]Param(nil), params...)}
}

// ShapeTypes lists the registered object types in lexical order.
func ShapeTypes() []ObjectType {
	shapesMu.RLock()
	defer shapesMu.RUnlock()

	out := make([]ObjectType, 0, len(shapes))
	for t := range shapes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
