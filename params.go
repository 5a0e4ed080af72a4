package chatflow

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ParameterError reports a parameter form submission that failed its schema.
// Nothing is stored when it is returned.
type ParameterError struct {
	NodeID string
	Err    error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("chatflow: parameters for node %s: %v", e.NodeID, e.Err)
}

func (e *ParameterError) Unwrap() error { return e.Err }

func (e *ParameterError) Is(target error) bool { return target == ErrInvalidParameter }

// ResolveParameterSchema accepts either a whole tool object carrying
// toolParameters or a bare JSON Schema, and returns the schema. Anything
// else yields an empty object schema.
func ResolveParameterSchema(schemaOrTool map[string]any) map[string]any {
	if inner, ok := schemaOrTool["toolParameters"].(map[string]any); ok {
		return inner
	}
	if _, ok := schemaOrTool["properties"]; ok || schemaOrTool["type"] == "object" {
		return schemaOrTool
	}
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// HasSchemaFields reports whether a schema declares any properties, i.e.
// whether there is a form to render at all.
func HasSchemaFields(schema map[string]any) bool {
	props, ok := schema["properties"].(map[string]any)
	return ok && len(props) > 0
}

// ValidateParameters checks values against a JSON Schema object.
func ValidateParameters(schema map[string]any, values map[string]any) error {
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("decode schema: %w", err)
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve schema: %w", err)
	}

	// Validate against the JSON form so numbers are float64 like a decoded body.
	var instance any = map[string]any{}
	if values != nil {
		b, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("encode values: %w", err)
		}
		if err := json.Unmarshal(b, &instance); err != nil {
			return fmt.Errorf("decode values: %w", err)
		}
	}
	return resolved.Validate(instance)
}
