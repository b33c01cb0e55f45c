package domain

// CommandKind names one of the three wire commands.
type CommandKind string

const (
	CommandCreate   CommandKind = "create"
	CommandMaterial CommandKind = "material"
	CommandMove     CommandKind = "move"
)

// Command is an encoded instruction for a renderer.
// Text is exactly what goes on the wire; Kind and ObjectID are kept for routing and metrics.
type Command struct {
	Kind     CommandKind
	ObjectID string
	Text     string
}

// String returns the wire text.
func (c Command) String() string {
	return c.Text
}
