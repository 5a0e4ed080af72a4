package chatflow

import (
	"encoding/json"
	"fmt"
)

// AgentData is the typed view of an agent node's data.
type AgentData struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	MaxIterations int    `json:"maxIterations"`
}

// ToolData is the typed view of a tool node's data.
type ToolData struct {
	ToolName            string         `json:"toolName"`
	ToolID              string         `json:"toolId"`
	ToolDescription     string         `json:"toolDescription"`
	ToolParameters      map[string]any `json:"toolParameters,omitempty"`
	ToolParameterValues map[string]any `json:"toolParameterValues,omitempty"`
}

// DecodeAgentData reads the agent fields out of a node's data map.
func DecodeAgentData(data map[string]any) (AgentData, error) {
	var a AgentData
	if err := redecode(data, &a); err != nil {
		return AgentData{}, fmt.Errorf("%w: agent data: %v", ErrInvalidParameter, err)
	}
	return a, nil
}

// DecodeToolData reads the tool fields out of a node's data map.
func DecodeToolData(data map[string]any) (ToolData, error) {
	var t ToolData
	if err := redecode(data, &t); err != nil {
		return ToolData{}, fmt.Errorf("%w: tool data: %v", ErrInvalidParameter, err)
	}
	return t, nil
}

// redecode round-trips through JSON so numbers and nested maps land in
// the typed struct the same way they would from a request body.
func redecode(in map[string]any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
