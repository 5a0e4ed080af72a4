// Package api serves the chatflow editor over HTTP.
package api

import (
	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/chatflow"
)

type server struct {
	sessions *Sessions
	store    chatflow.Store
}

// New builds the fiber app. store may be nil, in which case the save and
// flow catalogue routes answer 503.
func New(sessions *Sessions, store chatflow.Store) *fiber.App {
	if sessions == nil {
		sessions = NewSessions(nil)
	}
	s := &server{sessions: sessions, store: store}

	app := fiber.New()

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", s.createSchema)
	app.Delete("/schema", s.dropSchema)

	// ── Canvases (editor sessions) ────────────────────────────────────
	app.Post("/canvases", s.createCanvas)
	app.Get("/canvases", s.countCanvases)
	app.Get("/canvases/:id", s.getCanvas)
	app.Delete("/canvases/:id", s.closeCanvas)
	app.Put("/canvases/:id/name", s.renameCanvas)
	app.Put("/canvases/:id/sync", s.syncCanvas)
	app.Get("/canvases/:id/export", s.exportCanvas)
	app.Post("/canvases/:id/save", s.saveCanvas)

	// ── Nodes ─────────────────────────────────────────────────────────
	app.Post("/canvases/:id/nodes", s.addNode)
	app.Post("/canvases/:id/drop", s.dropNode)
	app.Get("/canvases/:id/nodes/:nodeId", s.nodeInfo)
	app.Delete("/canvases/:id/nodes/:nodeId", s.deleteNode)
	app.Put("/canvases/:id/nodes/:nodeId/position", s.moveNode)
	app.Post("/canvases/:id/nodes/:nodeId/copy", s.copyNode)
	app.Patch("/canvases/:id/nodes/:nodeId/data", s.patchNodeData)
	app.Get("/canvases/:id/nodes/:nodeId/parameters", s.parameterForm)
	app.Put("/canvases/:id/nodes/:nodeId/parameters", s.submitParameters)
	app.Put("/canvases/:id/nodes/:nodeId/max-iterations", s.setMaxIterations)

	// ── Edges ─────────────────────────────────────────────────────────
	app.Post("/canvases/:id/edges", s.connect)
	app.Delete("/canvases/:id/edges/:edgeId", s.removeEdge)

	// ── Saved flows ───────────────────────────────────────────────────
	app.Get("/flows", s.listFlows)
	app.Get("/flows/:id", s.getFlow)
	app.Delete("/flows/:id", s.deleteFlow)
	app.Post("/flows/:id/open", s.openFlow)

	return app
}

func errorJSON(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func (s *server) lookup(c fiber.Ctx) (*chatflow.Editor, bool) {
	return s.sessions.Get(c.Params("id"))
}

func canvasNotFound(c fiber.Ctx) error {
	return errorJSON(c, fiber.StatusNotFound, "canvas not found")
}

func noStore(c fiber.Ctx) error {
	return errorJSON(c, fiber.StatusServiceUnavailable, "no flow store configured")
}
