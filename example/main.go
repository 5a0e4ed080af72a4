package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/chatflow"
	"github.com/meikuraledutech/chatflow/postgres"
)

func main() {
	editor := chatflow.NewEditor("Support Bot", nil)

	// ── Palette click: agent at the default position ──────────────────
	agent, err := editor.AddNode(chatflow.Template{
		Type:        chatflow.TypeAgentNode,
		Name:        "ReAct Agent for LLMs",
		Description: "Agent used to answer queries with chain of thoughts for self-guided task completion",
	})
	if err != nil {
		log.Fatalf("add agent: %v", err)
	}
	fmt.Printf("added %s at %+v\n", agent.ID, agent.Position)

	// ── Drag and drop: tool centred under the pointer ─────────────────
	payload, _ := json.Marshal(map[string]any{
		"type":            chatflow.TypeToolNode,
		"name":            "Web Search",
		"toolId":          "web-search",
		"toolDescription": "Search the web",
		"toolParameters": map[string]any{
			"type":     "object",
			"required": []any{"query"},
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
			},
		},
	})
	tool, ok := editor.Drop(payload, chatflow.Position{X: 600, Y: 300}, chatflow.Position{})
	if !ok {
		log.Fatal("drop was ignored")
	}
	fmt.Printf("dropped %s at %+v (%s)\n", tool.ID, tool.Position, editor.Notification().Message)

	// A drag from somewhere else is ignored.
	if _, ok := editor.Drop([]byte("not json"), chatflow.Position{}, chatflow.Position{}); !ok {
		fmt.Println("malformed drop ignored")
	}

	// ── Connections ───────────────────────────────────────────────────
	res := editor.Connect(chatflow.Edge{
		Source: tool.ID, SourceHandle: chatflow.HandleToolOutput,
		Target: agent.ID, TargetHandle: chatflow.HandleLanguageModel,
	})
	fmt.Printf("tool → languageModel: accepted=%v reason=%q\n", res.Accepted, res.Reason)

	res = editor.Connect(chatflow.Edge{
		Source: tool.ID, SourceHandle: chatflow.HandleToolOutput,
		Target: agent.ID, TargetHandle: chatflow.HandleAllowedTools,
	})
	fmt.Printf("tool → allowedTools: accepted=%v edge=%s\n", res.Accepted, res.Edge.ID)

	// ── Parameters ────────────────────────────────────────────────────
	if err := editor.SubmitToolParameters(tool.ID, map[string]any{}); err != nil {
		fmt.Printf("rejected parameters: %v\n", err)
	}
	if err := editor.SubmitToolParameters(tool.ID, map[string]any{"query": "weather in Lisbon"}); err != nil {
		log.Fatalf("parameters: %v", err)
	}
	if err := editor.SetMaxIterations(agent.ID, 5); err != nil {
		log.Fatalf("max iterations: %v", err)
	}

	// ── Copies ────────────────────────────────────────────────────────
	for range 2 {
		cp, _ := editor.CopyNode(agent.ID)
		fmt.Printf("copied %s as %q\n", agent.ID, cp.Data["title"])
	}

	// ── Export ────────────────────────────────────────────────────────
	path, err := chatflow.WriteExportFile(os.TempDir(), editor.Export())
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	fmt.Printf("\nexported to %s\n", path)

	b, _ := chatflow.MarshalExport(editor.Export())
	fmt.Println(string(b))

	// ── Optional: save to postgres ────────────────────────────────────
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	var store chatflow.Store = postgres.New(pool)
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	id, err := store.SaveFlow(ctx, editor.Snapshot())
	if err != nil {
		log.Fatalf("save: %v", err)
	}
	fmt.Printf("\nsaved as %s\n", id)

	flows, err := store.ListFlows(ctx, "support")
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	printJSON(flows)
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
