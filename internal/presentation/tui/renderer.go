package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/aretw0/threeview/pkg/command"
	"github.com/aretw0/threeview/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
// When interactive is false the "notty" style is used, so output piped to a
// file carries no escape codes.
func NewRenderer(interactive bool) func(string) (string, error) {
	style := glamour.WithStandardStyle("notty")
	if interactive {
		style = glamour.WithAutoStyle() // Automatically detect light/dark background
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(0))
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// SceneMarkdown renders the hierarchy of a page as a nested markdown list,
// children under their parent, in construction order.
func SceneMarkdown(pageID string, objects []domain.ObjectSnapshot) string {
	children := make(map[string][]domain.ObjectSnapshot)
	known := make(map[string]bool, len(objects))
	for _, obj := range objects {
		known[obj.ID] = true
	}
	var roots []domain.ObjectSnapshot
	for _, obj := range objects {
		if obj.ParentID == "" || !known[obj.ParentID] {
			roots = append(roots, obj)
			continue
		}
		children[obj.ParentID] = append(children[obj.ParentID], obj)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Page `%s`\n\n", pageID)
	if len(objects) == 0 {
		sb.WriteString("_empty scene_\n")
		return sb.String()
	}

	var walk func(obj domain.ObjectSnapshot, depth int)
	walk = func(obj domain.ObjectSnapshot, depth int) {
		fmt.Fprintf(&sb, "%s- %s\n", strings.Repeat("  ", depth), describe(obj))
		for _, child := range children[obj.ID] {
			walk(child, depth+1)
		}
	}
	for _, root := range roots {
		walk(root, 0)
	}

	fmt.Fprintf(&sb, "\n%d objects\n", len(objects))
	return sb.String()
}

func describe(obj domain.ObjectSnapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** `%s`", obj.Type, obj.ID)
	if obj.Type == domain.TypeScene || obj.Type == domain.TypeGroup {
		return sb.String()
	}

	args := make([]string, len(obj.Args))
	for i, a := range obj.Args {
		args[i] = command.FormatNumber(a)
	}
	fmt.Fprintf(&sb, " (%s) %s @ %s at (%s, %s, %s)",
		strings.Join(args, ", "),
		obj.Color,
		command.FormatNumber(obj.Opacity),
		command.FormatNumber(obj.Position.X),
		command.FormatNumber(obj.Position.Y),
		command.FormatNumber(obj.Position.Z),
	)
	return sb.String()
}
