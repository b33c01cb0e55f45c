// Package mirror rebuilds a scene from a stream of wire commands, the way a
// rendering client does. It is used by the watch command and by tests that
// compare live and replayed streams.
package mirror

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/threeview/pkg/domain"
)

// Call is a decoded wire command.
type Call struct {
	Kind     domain.CommandKind
	ObjectID string
	Type     domain.ObjectType // create only
	ParentID string            // create only; "" for null
	Args     []float64         // create only
	Color    string            // material only
	Opacity  float64           // material only
	Position domain.Position   // move only
}

// Parse decodes one command produced by package command.
func Parse(text string) (Call, error) {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '(')
	if open <= 0 || !strings.HasSuffix(text, ")") {
		return Call{}, fmt.Errorf("%q: %w", text, domain.ErrMalformedCommand)
	}
	name := domain.CommandKind(text[:open])
	fields, err := splitArgs(text[open+1 : len(text)-1])
	if err != nil {
		return Call{}, fmt.Errorf("%q: %v: %w", text, err, domain.ErrMalformedCommand)
	}

	switch name {
	case domain.CommandCreate:
		return parseCreate(text, fields)
	case domain.CommandMaterial:
		return parseMaterial(text, fields)
	case domain.CommandMove:
		return parseMove(text, fields)
	default:
		return Call{}, fmt.Errorf("unknown command %q: %w", name, domain.ErrMalformedCommand)
	}
}

func parseCreate(text string, f []string) (Call, error) {
	if len(f) < 3 {
		return Call{}, fmt.Errorf("%q: create needs type, id and parent: %w", text, domain.ErrMalformedCommand)
	}
	typ, err := unquote(f[0])
	if err != nil {
		return Call{}, fmt.Errorf("%q: %w", text, err)
	}
	id, err := unquote(f[1])
	if err != nil {
		return Call{}, fmt.Errorf("%q: %w", text, err)
	}
	call := Call{Kind: domain.CommandCreate, Type: domain.ObjectType(typ), ObjectID: id}
	if f[2] != "null" {
		if call.ParentID, err = unquote(f[2]); err != nil {
			return Call{}, fmt.Errorf("%q: %w", text, err)
		}
	}
	for _, raw := range f[3:] {
		v, err := number(raw)
		if err != nil {
			return Call{}, fmt.Errorf("%q: %w", text, err)
		}
		call.Args = append(call.Args, v)
	}
	return call, nil
}

func parseMaterial(text string, f []string) (Call, error) {
	if len(f) != 3 {
		return Call{}, fmt.Errorf("%q: material needs 3 fields: %w", text, domain.ErrMalformedCommand)
	}
	id, err := unquote(f[0])
	if err != nil {
		return Call{}, fmt.Errorf("%q: %w", text, err)
	}
	color, err := unquote(f[1])
	if err != nil {
		return Call{}, fmt.Errorf("%q: %w", text, err)
	}
	// Older renderers quoted the opacity; accept both forms.
	raw := f[2]
	if s, err := unquote(raw); err == nil {
		raw = s
	}
	opacity, err := number(raw)
	if err != nil {
		return Call{}, fmt.Errorf("%q: %w", text, err)
	}
	return Call{Kind: domain.CommandMaterial, ObjectID: id, Color: color, Opacity: opacity}, nil
}

func parseMove(text string, f []string) (Call, error) {
	if len(f) != 4 {
		return Call{}, fmt.Errorf("%q: move needs 4 fields: %w", text, domain.ErrMalformedCommand)
	}
	id, err := unquote(f[0])
	if err != nil {
		return Call{}, fmt.Errorf("%q: %w", text, err)
	}
	var xyz [3]float64
	for i := range xyz {
		if xyz[i], err = number(f[i+1]); err != nil {
			return Call{}, fmt.Errorf("%q: %w", text, err)
		}
	}
	return Call{
		Kind:     domain.CommandMove,
		ObjectID: id,
		Position: domain.Position{X: xyz[0], Y: xyz[1], Z: xyz[2]},
	}, nil
}

// splitArgs splits a comma separated argument list, honouring double-quoted
// strings. A trailing empty argument (as in `null, )`) is dropped.
func splitArgs(s string) ([]string, error) {
	var out []string
	var cur strings.Builder
	inString, escaped := false, false

	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case r == ',' && !inString:
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	if inString {
		return nil, fmt.Errorf("unterminated string")
	}
	if last := strings.TrimSpace(cur.String()); last != "" {
		out = append(out, last)
	}
	return out, nil
}

func unquote(s string) (string, error) {
	v, err := strconv.Unquote(s)
	if err != nil {
		return "", fmt.Errorf("expected string, got %s: %w", s, domain.ErrMalformedCommand)
	}
	return v, nil
}

func number(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("expected number, got %s: %w", s, domain.ErrMalformedCommand)
	}
	return v, nil
}
