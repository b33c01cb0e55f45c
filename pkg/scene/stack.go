package scene

import "github.com/aretw0/threeview/pkg/domain"

// Stack holds the currently open grouping scopes, innermost last.
type Stack struct {
	items []*Object
}

// Push opens a scope for obj.
func (s *Stack) Push(obj *Object) {
	s.items = append(s.items, obj)
}

// Pop closes the innermost scope.
func (s *Stack) Pop() (*Object, error) {
	if len(s.items) == 0 {
		return nil, domain.ErrScopeUnderflow
	}
	top := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	return top, nil
}

// Top returns the innermost open scope, or nil.
func (s *Stack) Top() *Object {
	if len(s.items) == 0 {
		return nil
	}
	return s.items[len(s.items)-1]
}

// Len returns the number of open scopes.
func (s *Stack) Len() int {
	return len(s.items)
}
