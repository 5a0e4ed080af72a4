package chatflow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultNodeHalfSize is half the footprint of a freshly dropped node.
var DefaultNodeHalfSize = Size{Width: 140, Height: 70}

// DefaultNodePosition is where palette clicks place nodes.
var DefaultNodePosition = Position{X: 100, Y: 100}

// ComputeDropPosition converts a screen-space drop point into the canvas
// position that centres a node of the given half size under the pointer.
func ComputeDropPosition(pointer, origin Position, half Size) Position {
	return Position{
		X: pointer.X - origin.X - half.Width,
		Y: pointer.Y - origin.Y - half.Height,
	}
}

// DecodeDragPayload parses the template the palette serialised at drag start.
func DecodeDragPayload(raw []byte) (Template, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Template{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if fields == nil {
		return Template{}, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}
	t, err := TemplateFromMap(fields)
	if err != nil {
		return Template{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return t, nil
}

// TemplateFromMap splits a palette object into a Template.
func TemplateFromMap(fields map[string]any) (Template, error) {
	typ, _ := fields["type"].(string)
	if strings.TrimSpace(typ) == "" {
		return Template{}, fmt.Errorf("template has no type")
	}
	name, _ := fields["name"].(string)
	desc, _ := fields["description"].(string)

	t := Template{Type: typ, Name: name, Description: desc, Extra: map[string]any{}}
	for k, v := range fields {
		switch k {
		case "type", "name", "description":
		default:
			t.Extra[k] = v
		}
	}
	return t, nil
}

// MarshalJSON writes the template back in palette form.
func (t Template) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Extra)+3)
	for k, v := range t.Extra {
		out[k] = v
	}
	out["type"] = t.Type
	out["name"] = t.Name
	out["description"] = t.Description
	return json.Marshal(out)
}

// UnmarshalJSON reads a palette object.
func (t *Template) UnmarshalJSON(b []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	parsed, err := TemplateFromMap(fields)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
