package mirror

import (
	"fmt"
	"sync"

	"github.com/aretw0/threeview/pkg/domain"
)

// Mirror is a client-side copy of a page's scene.
// Safe for concurrent use.
type Mirror struct {
	mu      sync.RWMutex
	order   []string
	objects map[string]*domain.ObjectSnapshot
	applied int
}

// New creates an empty mirror.
func New() *Mirror {
	return &Mirror{objects: make(map[string]*domain.ObjectSnapshot)}
}

// Apply parses text and applies it.
func (m *Mirror) Apply(text string) error {
	call, err := Parse(text)
	if err != nil {
		return err
	}
	return m.ApplyCall(call)
}

// ApplyCall applies a decoded command. A repeated create resets the object to
// a fresh one at its original position in the order; material and move on an
// unknown object fail with domain.ErrObjectNotFound.
func (m *Mirror) ApplyCall(c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch c.Kind {
	case domain.CommandCreate:
		if _, exists := m.objects[c.ObjectID]; !exists {
			m.order = append(m.order, c.ObjectID)
		}
		m.objects[c.ObjectID] = &domain.ObjectSnapshot{
			ID:       c.ObjectID,
			Type:     c.Type,
			ParentID: c.ParentID,
			Args:     append([]float64(nil), c.Args...),
			Color:    domain.DefaultColor,
			Opacity:  domain.DefaultOpacity,
		}
	case domain.CommandMaterial:
		obj, ok := m.objects[c.ObjectID]
		if !ok {
			return fmt.Errorf("material for %s: %w", c.ObjectID, domain.ErrObjectNotFound)
		}
		obj.Color = c.Color
		obj.Opacity = c.Opacity
	case domain.CommandMove:
		obj, ok := m.objects[c.ObjectID]
		if !ok {
			return fmt.Errorf("move for %s: %w", c.ObjectID, domain.ErrObjectNotFound)
		}
		obj.Position = c.Position
	default:
		return fmt.Errorf("command %q: %w", c.Kind, domain.ErrMalformedCommand)
	}
	m.applied++
	return nil
}

// Objects returns the mirrored objects in first-create order.
func (m *Mirror) Objects() []domain.ObjectSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.ObjectSnapshot, 0, len(m.order))
	for _, id := range m.order {
		obj := *m.objects[id]
		obj.Args = append([]float64(nil), obj.Args...)
		out = append(out, obj)
	}
	return out
}

// Get returns one mirrored object.
func (m *Mirror) Get(id string) (domain.ObjectSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[id]
	if !ok {
		return domain.ObjectSnapshot{}, false
	}
	return *obj, true
}

// Applied returns the number of commands applied so far.
func (m *Mirror) Applied() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.applied
}
