package chatflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DefaultProjectName is used for blank project names.
const DefaultProjectName = "Untitled Chatflow"

// ExportTimeFormat matches JavaScript's Date.toISOString.
const ExportTimeFormat = "2006-01-02T15:04:05.000Z"

// ExportPayload is the downloadable JSON document for a canvas.
type ExportPayload struct {
	ProjectName string         `json:"projectName"`
	ExportedAt  string         `json:"exportedAt"`
	CanvasData  Graph          `json:"canvasData"`
	Metadata    ExportMetadata `json:"metadata"`
}

// ExportMetadata summarises the exported graph.
type ExportMetadata struct {
	NodeCount int `json:"nodeCount"`
	EdgeCount int `json:"edgeCount"`
}

// Export snapshots g into an export payload stamped with at.
func Export(projectName string, g Graph, at time.Time) ExportPayload {
	if strings.TrimSpace(projectName) == "" {
		projectName = DefaultProjectName
	}
	g = g.Clone()
	return ExportPayload{
		ProjectName: projectName,
		ExportedAt:  at.UTC().Format(ExportTimeFormat),
		CanvasData:  g,
		Metadata: ExportMetadata{
			NodeCount: len(g.Nodes),
			EdgeCount: len(g.Edges),
		},
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExportFilename derives the download name: lowercase, whitespace runs
// replaced by "_", suffixed "_export.json".
func ExportFilename(projectName string) string {
	if strings.TrimSpace(projectName) == "" {
		return "untitled_chatflow_export.json"
	}
	return strings.ToLower(whitespaceRun.ReplaceAllString(projectName, "_")) + "_export.json"
}

// MarshalExport renders the payload as two-space indented JSON.
func MarshalExport(p ExportPayload) ([]byte, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("chatflow: encode export: %w", err)
	}
	return b, nil
}

// WriteExportFile writes the payload into dir under its conventional
// filename and returns the path written.
func WriteExportFile(dir string, p ExportPayload) (string, error) {
	b, err := MarshalExport(p)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ExportFilename(p.ProjectName))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("chatflow: write export: %w", err)
	}
	return path, nil
}
