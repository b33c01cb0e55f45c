// Package command encodes scene object state into wire commands.
//
// Every function is pure: the same object state always yields the same text,
// so commands can be re-derived at any time from current state.
package command

import (
	"strconv"
	"strings"

	"github.com/aretw0/threeview/pkg/domain"
)

// Create encodes the create command of an object.
// An empty parentID is rendered as null. Args are rendered according to the
// shape declared for t; unknown types render every arg in natural form.
func Create(t domain.ObjectType, id, parentID string, args []float64) domain.Command {
	var params []domain.Param
	if shape, err := domain.LookupShape(t); err == nil {
		params = shape.Params
	}

	var sb strings.Builder
	sb.WriteString("create(")
	sb.WriteString(quote(string(t)))
	sb.WriteString(", ")
	sb.WriteString(quote(id))
	sb.WriteString(", ")
	if parentID == "" {
		sb.WriteString("null")
	} else {
		sb.WriteString(quote(parentID))
	}
	sb.WriteString(", ")
	for i, v := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		kind := domain.ParamInt
		if i < len(params) {
			kind = params[i].Kind
		}
		sb.WriteString(formatArg(v, kind))
	}
	sb.WriteString(")")

	return domain.Command{Kind: domain.CommandCreate, ObjectID: id, Text: sb.String()}
}

// Material encodes the material command of an object.
func Material(id, color string, opacity float64) domain.Command {
	text := "material(" + quote(id) + ", " + quote(color) + ", " + FormatNumber(opacity) + ")"
	return domain.Command{Kind: domain.CommandMaterial, ObjectID: id, Text: text}
}

// Move encodes the move command of an object.
func Move(id string, x, y, z float64) domain.Command {
	text := "move(" + quote(id) + ", " + FormatNumber(x) + ", " + FormatNumber(y) + ", " + FormatNumber(z) + ")"
	return domain.Command{Kind: domain.CommandMove, ObjectID: id, Text: text}
}

// Encode returns the full state of one object as create, material and move, in that order.
func Encode(obj domain.ObjectSnapshot) []domain.Command {
	return []domain.Command{
		Create(obj.Type, obj.ID, obj.ParentID, obj.Args),
		Material(obj.ID, obj.Color, obj.Opacity),
		Move(obj.ID, obj.Position.X, obj.Position.Y, obj.Position.Z),
	}
}

// FormatNumber renders v in its shortest decimal form ("0", "0.5", "12.25").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatArg(v float64, kind domain.ParamKind) string {
	s := FormatNumber(v)
	if kind == domain.ParamFloat && !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// quote renders s as a double-quoted string literal understood by the renderer.
func quote(s string) string {
	return strconv.Quote(s)
}
