package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/chatflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a minimal in-memory chatflow.Store for handler tests.
type memStore struct {
	mu    sync.Mutex
	flows map[string]chatflow.Flow
	seq   int
}

func newMemStore() *memStore { return &memStore{flows: map[string]chatflow.Flow{}} }

func (m *memStore) CreateSchema(context.Context) error { return nil }
func (m *memStore) DropSchema(context.Context) error   { return nil }

func (m *memStore) SaveFlow(_ context.Context, f *chatflow.Flow) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == "" {
		m.seq++
		f.ID = fmt.Sprintf("flow-%d", m.seq)
	}
	f.UpdatedAt = time.Now()
	m.flows[f.ID] = *f
	return f.ID, nil
}

func (m *memStore) GetFlow(_ context.Context, id string) (*chatflow.Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flows[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (m *memStore) ListFlows(_ context.Context, q string) ([]chatflow.FlowSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []chatflow.FlowSummary{}
	for _, f := range m.flows {
		if q == "" || strings.Contains(strings.ToLower(f.Name), strings.ToLower(q)) {
			out = append(out, chatflow.FlowSummary{ID: f.ID, Name: f.Name, NodeCount: len(f.Graph.Nodes), EdgeCount: len(f.Graph.Edges)})
		}
	}
	return out, nil
}

func (m *memStore) DeleteFlow(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flows, id)
	return nil
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, out
}

func newCanvas(t *testing.T, app *fiber.App, name string) string {
	t.Helper()
	resp, body := do(t, app, http.MethodPost, "/canvases", map[string]string{"projectName": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var got struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	require.NotEmpty(t, got.ID)
	return got.ID
}

func addNode(t *testing.T, app *fiber.App, canvas string, tmpl map[string]any) chatflow.Node {
	t.Helper()
	resp, body := do(t, app, http.MethodPost, "/canvases/"+canvas+"/nodes", map[string]any{"template": tmpl})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var n chatflow.Node
	require.NoError(t, json.Unmarshal(body, &n))
	return n
}

var (
	agentTemplate = map[string]any{"type": "AgentNode", "name": "Agent", "description": "ReAct agent"}
	toolTemplate  = map[string]any{
		"type": "ToolNode", "name": "Search", "toolId": "search",
		"toolParameters": map[string]any{
			"type":       "object",
			"required":   []any{"query"},
			"properties": map[string]any{"query": map[string]any{"type": "string"}},
		},
	}
)

func TestCanvasLifecycle(t *testing.T) {
	app := New(nil, nil)
	id := newCanvas(t, app, "  My Flow  ")

	resp, body := do(t, app, http.MethodGet, "/canvases/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state struct {
		ProjectName string         `json:"projectName"`
		CanvasData  chatflow.Graph `json:"canvasData"`
	}
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, "My Flow", state.ProjectName)
	assert.Empty(t, state.CanvasData.Nodes)

	resp, _ = do(t, app, http.MethodDelete, "/canvases/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/canvases/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRenameBlankFallsBack(t *testing.T) {
	app := New(nil, nil)
	id := newCanvas(t, app, "Flow")

	resp, body := do(t, app, http.MethodPut, "/canvases/"+id+"/name", map[string]string{"projectName": "   "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"projectName":"Untitled Chatflow"}`, string(body))
}

func TestAddNodeUnknownKind(t *testing.T) {
	app := New(nil, nil)
	id := newCanvas(t, app, "Flow")

	resp, _ := do(t, app, http.MethodPost, "/canvases/"+id+"/nodes", map[string]any{
		"template": map[string]any{"type": "Mystery", "name": "?"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConnectRules(t *testing.T) {
	app := New(nil, nil)
	id := newCanvas(t, app, "Flow")
	agent := addNode(t, app, id, agentTemplate)
	tool := addNode(t, app, id, toolTemplate)

	resp, body := do(t, app, http.MethodPost, "/canvases/"+id+"/edges", chatflow.Edge{
		Source: tool.ID, Target: agent.ID, SourceHandle: "toolOutput", TargetHandle: "languageModel",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var res chatflow.ConnectResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.False(t, res.Accepted)
	assert.Equal(t, chatflow.ToolRoutingReason, res.Reason)

	_, body = do(t, app, http.MethodGet, "/canvases/"+id, nil)
	assert.Contains(t, string(body), chatflow.ToolRoutingReason)

	resp, body = do(t, app, http.MethodPost, "/canvases/"+id+"/edges", chatflow.Edge{
		Source: tool.ID, Target: agent.ID, SourceHandle: "toolOutput", TargetHandle: "allowedTools",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &res))
	require.NotNil(t, res.Edge)

	resp, _ = do(t, app, http.MethodDelete, "/canvases/"+id+"/edges/"+res.Edge.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestDrop(t *testing.T) {
	app := New(nil, nil)
	id := newCanvas(t, app, "Flow")

	payload, err := json.Marshal(agentTemplate)
	require.NoError(t, err)

	resp, body := do(t, app, http.MethodPost, "/canvases/"+id+"/drop", map[string]any{
		"payload": string(payload),
		"pointer": map[string]float64{"x": 350, "y": 260},
		"origin":  map[string]float64{"x": 50, "y": 60},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var got struct {
		Added        bool                   `json:"added"`
		Node         chatflow.Node          `json:"node"`
		Notification *chatflow.Notification `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.True(t, got.Added)
	assert.Equal(t, chatflow.Position{X: 160, Y: 130}, got.Node.Position)
	require.NotNil(t, got.Notification)
	assert.Equal(t, "Agent added successfully!", got.Notification.Message)

	t.Run("malformed payload is ignored", func(t *testing.T) {
		resp, body := do(t, app, http.MethodPost, "/canvases/"+id+"/drop", map[string]any{
			"payload": "text/plain from elsewhere",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"added":false}`, string(body))
	})
}

func TestCopyDeleteStaleIDs(t *testing.T) {
	app := New(nil, nil)
	id := newCanvas(t, app, "Flow")
	agent := addNode(t, app, id, agentTemplate)

	resp, body := do(t, app, http.MethodPost, "/canvases/"+id+"/nodes/"+agent.ID+"/copy", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var cp chatflow.Node
	require.NoError(t, json.Unmarshal(body, &cp))
	assert.Equal(t, "Agent (0)", cp.Data["title"])

	resp, _ = do(t, app, http.MethodPost, "/canvases/"+id+"/nodes/ghost/copy", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	for range 2 {
		resp, _ = do(t, app, http.MethodDelete, "/canvases/"+id+"/nodes/"+agent.ID, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	resp, _ = do(t, app, http.MethodGet, "/canvases/"+id+"/nodes/"+agent.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestParameters(t *testing.T) {
	app := New(nil, nil)
	id := newCanvas(t, app, "Flow")
	tool := addNode(t, app, id, toolTemplate)
	agent := addNode(t, app, id, agentTemplate)
	base := "/canvases/" + id + "/nodes/"

	resp, body := do(t, app, http.MethodGet, base+tool.ID+"/parameters", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var form chatflow.ParameterForm
	require.NoError(t, json.Unmarshal(body, &form))
	assert.True(t, form.HasFields)

	resp, _ = do(t, app, http.MethodPut, base+tool.ID+"/parameters", map[string]any{"values": map[string]any{}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = do(t, app, http.MethodPut, base+tool.ID+"/parameters", map[string]any{"values": map[string]any{"query": "weather"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var n chatflow.Node
	require.NoError(t, json.Unmarshal(body, &n))
	assert.Equal(t, map[string]any{"query": "weather"}, n.Data["toolParameterValues"])

	resp, _ = do(t, app, http.MethodPut, base+agent.ID+"/max-iterations", map[string]int{"maxIterations": -1})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = do(t, app, http.MethodPut, base+agent.ID+"/max-iterations", map[string]int{"maxIterations": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &n))
	assert.EqualValues(t, 5, n.Data["maxIterations"])

	resp, _ = do(t, app, http.MethodPut, base+"ghost/max-iterations", map[string]int{"maxIterations": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPatchLegacyParameterKey(t *testing.T) {
	app := New(nil, nil)
	id := newCanvas(t, app, "Flow")
	tool := addNode(t, app, id, toolTemplate)

	resp, body := do(t, app, http.MethodPatch, "/canvases/"+id+"/nodes/"+tool.ID+"/data", map[string]any{
		"additionalParameters": map[string]any{"query": "x"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var n chatflow.Node
	require.NoError(t, json.Unmarshal(body, &n))
	assert.Equal(t, map[string]any{"query": "x"}, n.Data["toolParameterValues"])
	assert.NotContains(t, n.Data, "additionalParameters")
}

func TestPatchRejectsInvalidData(t *testing.T) {
	app := New(nil, nil)
	id := newCanvas(t, app, "Flow")
	agent := addNode(t, app, id, agentTemplate)
	path := "/canvases/" + id + "/nodes/" + agent.ID + "/data"

	resp, _ := do(t, app, http.MethodPatch, path, map[string]any{"maxIterations": -5})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	_, body := do(t, app, http.MethodGet, "/canvases/"+id+"/nodes/"+agent.ID, nil)
	var info chatflow.NodeInfo
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, 0, info.MaxIterations)

	resp, _ = do(t, app, http.MethodPatch, "/canvases/"+id+"/nodes/ghost/data", map[string]any{"x": 1})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCountCanvases(t *testing.T) {
	app := New(nil, nil)
	count := func() int {
		resp, body := do(t, app, http.MethodGet, "/canvases", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got struct {
			Open int `json:"open"`
		}
		require.NoError(t, json.Unmarshal(body, &got))
		return got.Open
	}

	assert.Equal(t, 0, count())
	first := newCanvas(t, app, "One")
	newCanvas(t, app, "Two")
	assert.Equal(t, 2, count())

	do(t, app, http.MethodDelete, "/canvases/"+first, nil)
	assert.Equal(t, 1, count())
}

func TestExport(t *testing.T) {
	app := New(nil, nil)
	id := newCanvas(t, app, "Support Bot")
	addNode(t, app, id, agentTemplate)

	resp, body := do(t, app, http.MethodGet, "/canvases/"+id+"/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "support_bot_export.json")

	var payload chatflow.ExportPayload
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "Support Bot", payload.ProjectName)
	assert.Equal(t, 1, payload.Metadata.NodeCount)
	assert.Equal(t, 0, payload.Metadata.EdgeCount)
}

func TestSync(t *testing.T) {
	app := New(nil, nil)
	id := newCanvas(t, app, "Flow")
	agent := addNode(t, app, id, agentTemplate)

	resp, _ := do(t, app, http.MethodPut, "/canvases/"+id+"/nodes/"+agent.ID+"/position", chatflow.Position{X: 400, Y: 300})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := do(t, app, http.MethodPut, "/canvases/"+id+"/sync", map[string]any{
		"nodes": []chatflow.Node{
			{ID: agent.ID, Type: "AgentNode", Position: chatflow.Position{X: 0, Y: 0}, Data: map[string]any{"extra": true}},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var g chatflow.Graph
	require.NoError(t, json.Unmarshal(body, &g))
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, chatflow.Position{X: 400, Y: 300}, g.Nodes[0].Position)
	assert.Equal(t, true, g.Nodes[0].Data["extra"])
	assert.Equal(t, "Agent", g.Nodes[0].Data["title"])
}

func TestFlowsWithoutStore(t *testing.T) {
	app := New(nil, nil)
	id := newCanvas(t, app, "Flow")

	resp, _ := do(t, app, http.MethodPost, "/canvases/"+id+"/save", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/flows", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSaveAndOpenFlow(t *testing.T) {
	store := newMemStore()
	app := New(nil, store)
	id := newCanvas(t, app, "Support Bot")
	agent := addNode(t, app, id, agentTemplate)
	tool := addNode(t, app, id, toolTemplate)
	resp, _ := do(t, app, http.MethodPost, "/canvases/"+id+"/edges", chatflow.Edge{
		Source: tool.ID, Target: agent.ID, TargetHandle: "allowedTools",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := do(t, app, http.MethodPost, "/canvases/"+id+"/save", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var saved struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &saved))

	resp, body = do(t, app, http.MethodGet, "/flows?q=support", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []chatflow.FlowSummary
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].NodeCount)
	assert.Equal(t, 1, list[0].EdgeCount)

	resp, body = do(t, app, http.MethodPost, "/flows/"+saved.ID+"/open", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var opened struct {
		ID          string         `json:"id"`
		ProjectName string         `json:"projectName"`
		CanvasData  chatflow.Graph `json:"canvasData"`
	}
	require.NoError(t, json.Unmarshal(body, &opened))
	assert.NotEqual(t, id, opened.ID)
	assert.Equal(t, "Support Bot", opened.ProjectName)
	assert.Len(t, opened.CanvasData.Nodes, 2)
	assert.Len(t, opened.CanvasData.Edges, 1)

	resp, _ = do(t, app, http.MethodDelete, "/flows/"+saved.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, app, http.MethodGet, "/flows/"+saved.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
