package domain

// Default material of a freshly constructed object.
const (
	DefaultColor   = "#ffffff"
	DefaultOpacity = 1.0
)

// Position is a point in scene space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ObjectSnapshot is a value copy of the observable state of one scene node.
// ParentID is empty for nodes constructed outside any grouping scope.
type ObjectSnapshot struct {
	ID       string     `json:"id"`
	Type     ObjectType `json:"type"`
	ParentID string     `json:"parent_id,omitempty"`
	Args     []float64  `json:"args"`
	Color    string     `json:"color"`
	Opacity  float64    `json:"opacity"`
	Position Position   `json:"position"`
}
