package chatflow

import (
	"fmt"
	"sync"
)

// Handle ids used by the built-in kinds.
const (
	HandleAllowedTools    = "allowedTools"
	HandleLanguageModel   = "languageModel"
	HandleInputModeration = "inputModeration"
	HandleAgentExecutor   = "agentExecutor"
	HandleToolOutput      = "toolOutput"
)

// Type names of the built-in kinds. ReActAgentNode is the name the canvas
// registers for agents; AgentNode is what the palette emits.
const (
	TypeAgentNode      = "AgentNode"
	TypeReActAgentNode = "ReActAgentNode"
	TypeToolNode       = "ToolNode"
)

// Kind is one variant of node. Each kind carries its own data shape,
// handles and validation.
type Kind interface {
	// Name is the canonical type name.
	Name() string
	// NameField is the data key holding the node's display name.
	NameField() string
	// DefaultName is used when a node has no display name yet.
	DefaultName() string
	// Inputs and Outputs list the handle ids.
	Inputs() []string
	Outputs() []string
	// NewData builds the initial data for a node created from t.
	NewData(t Template) map[string]any
	// Validate checks a node's data.
	Validate(data map[string]any) error
}

var (
	kindsMu sync.RWMutex
	kinds   = map[string]Kind{}
)

// RegisterKind makes k available under its name and any aliases.
func RegisterKind(k Kind, aliases ...string) {
	kindsMu.Lock()
	defer kindsMu.Unlock()
	kinds[k.Name()] = k
	for _, a := range aliases {
		kinds[a] = k
	}
}

// LookupKind resolves a type name to its kind.
func LookupKind(typeName string) (Kind, error) {
	kindsMu.RLock()
	k, ok := kinds[typeName]
	kindsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, typeName)
	}
	return k, nil
}

func kindOf(n *Node) Kind {
	if n == nil {
		return nil
	}
	k, err := LookupKind(n.Type)
	if err != nil {
		return nil
	}
	return k
}

func init() {
	RegisterKind(AgentKind{}, TypeReActAgentNode)
	RegisterKind(ToolKind{})
}

// AgentKind is the ReAct agent family.
type AgentKind struct{}

func (AgentKind) Name() string        { return TypeAgentNode }
func (AgentKind) NameField() string   { return "title" }
func (AgentKind) DefaultName() string { return "ReAct Agent for LLMs" }

func (AgentKind) Inputs() []string {
	return []string{HandleAllowedTools, HandleLanguageModel, HandleInputModeration}
}

func (AgentKind) Outputs() []string { return []string{HandleAgentExecutor} }

func (k AgentKind) NewData(t Template) map[string]any {
	data := baseData(t)
	if _, ok := data["maxIterations"]; !ok {
		data["maxIterations"] = 0
	}
	if s, _ := data["title"].(string); s == "" {
		data["title"] = k.DefaultName()
	}
	return data
}

func (AgentKind) Validate(data map[string]any) error {
	a, err := DecodeAgentData(data)
	if err != nil {
		return err
	}
	if a.MaxIterations < 0 {
		return fmt.Errorf("%w: maxIterations must be >= 0", ErrInvalidParameter)
	}
	return nil
}

// ToolKind is a callable tool feeding an agent.
type ToolKind struct{}

func (ToolKind) Name() string        { return TypeToolNode }
func (ToolKind) NameField() string   { return "toolName" }
func (ToolKind) DefaultName() string { return "Tool" }
func (ToolKind) Inputs() []string    { return nil }
func (ToolKind) Outputs() []string   { return []string{HandleToolOutput} }

func (k ToolKind) NewData(t Template) map[string]any {
	data := baseData(t)
	if s, _ := data["toolName"].(string); s == "" {
		name := t.Name
		if name == "" {
			name = k.DefaultName()
		}
		data["toolName"] = name
	}
	return data
}

func (ToolKind) Validate(data map[string]any) error {
	raw, ok := data["toolParameters"]
	if !ok || raw == nil {
		return nil
	}
	schema, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: toolParameters must be an object", ErrInvalidParameter)
	}
	if t, ok := schema["type"]; ok && t != "object" {
		return fmt.Errorf("%w: toolParameters must describe an object", ErrInvalidParameter)
	}
	return nil
}

// IsAgent reports whether typeName belongs to the agent family.
func IsAgent(typeName string) bool {
	k, err := LookupKind(typeName)
	if err != nil {
		return false
	}
	_, ok := k.(AgentKind)
	return ok
}

// IsTool reports whether typeName is a tool.
func IsTool(typeName string) bool {
	k, err := LookupKind(typeName)
	if err != nil {
		return false
	}
	_, ok := k.(ToolKind)
	return ok
}

// baseData mirrors how the palette fields land on a node: title and
// description first, then every template field on top.
func baseData(t Template) map[string]any {
	data := map[string]any{
		"title":       t.Name,
		"description": t.Description,
	}
	for k, v := range t.Extra {
		data[k] = cloneValue(v)
	}
	data["type"] = t.Type
	data["name"] = t.Name
	return data
}
