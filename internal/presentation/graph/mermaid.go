package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/threeview/pkg/command"
	"github.com/aretw0/threeview/pkg/domain"
)

// Overlay marks objects to highlight on the graph, e.g. the last clicked one.
type Overlay struct {
	Highlight []string
}

// GenerateMermaid produces a Mermaid flowchart of the scene hierarchy.
// Shapes:
// - Scene: ((Circle))
// - Group: [[Subroutine]]
// - Geometry: [Rectangle], labelled with type and args
// Edges run from parent to child. Parentless objects hang off the scene
// node with a dotted edge when one exists, since the renderer attaches them there.
func GenerateMermaid(objects []domain.ObjectSnapshot, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	hasScene := false
	for _, obj := range objects {
		if obj.Type == domain.TypeScene {
			hasScene = true
			break
		}
	}

	for _, obj := range objects {
		safeID := sanitizeMermaidID(obj.ID)

		opener, closer := "[", "]"
		switch obj.Type {
		case domain.TypeScene:
			opener, closer = "((", "))"
		case domain.TypeGroup:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label(obj), closer)

		switch {
		case obj.ParentID != "":
			fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(obj.ParentID), safeID)
		case hasScene && obj.Type != domain.TypeScene:
			fmt.Fprintf(&sb, "    %s -.-> %s\n", sanitizeMermaidID(domain.SceneID), safeID)
		}

		if obj.Type != domain.TypeScene && obj.Type != domain.TypeGroup && obj.Color != "" {
			fmt.Fprintf(&sb, "    style %s fill:%s,fill-opacity:%s\n", safeID, obj.Color, command.FormatNumber(obj.Opacity))
		}
	}

	if overlay != nil && len(overlay.Highlight) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef highlight stroke:#fbc02d,stroke-width:4px;\n")
		seen := make(map[string]bool)
		for _, id := range overlay.Highlight {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || seen[safeID] {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s highlight;\n", safeID)
		}
	}

	return sb.String()
}

func label(obj domain.ObjectSnapshot) string {
	if obj.Type == domain.TypeScene {
		return obj.ID
	}
	if len(obj.Args) == 0 {
		return fmt.Sprintf("%s %s", obj.Type, obj.ID)
	}
	args := make([]string, len(obj.Args))
	for i, a := range obj.Args {
		args[i] = command.FormatNumber(a)
	}
	return fmt.Sprintf("%s(%s) %s", obj.Type, strings.Join(args, ", "), obj.ID)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
