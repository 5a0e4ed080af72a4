package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/chatflow"
)

type nameRequest struct {
	ProjectName string `json:"projectName"`
}

type canvasResponse struct {
	ID string `json:"id"`
	chatflow.EditorState
}

func (s *server) createCanvas(c fiber.Ctx) error {
	var req nameRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "invalid body")
		}
	}
	id, e := s.sessions.Create(req.ProjectName)
	return c.Status(fiber.StatusCreated).JSON(canvasResponse{ID: id, EditorState: e.State()})
}

func (s *server) countCanvases(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"open": s.sessions.Len()})
}

func (s *server) getCanvas(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	return c.JSON(canvasResponse{ID: c.Params("id"), EditorState: e.State()})
}

func (s *server) closeCanvas(c fiber.Ctx) error {
	s.sessions.Close(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *server) renameCanvas(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	var req nameRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	return c.JSON(fiber.Map{"projectName": e.Rename(req.ProjectName)})
}

type syncRequest struct {
	Nodes     []chatflow.Node `json:"nodes"`
	Edges     []chatflow.Edge `json:"edges"`
	KeepLocal bool            `json:"keepLocal"`
}

// syncCanvas reconciles a node/edge list pushed by the browser. Omitted
// (null) halves are left alone.
func (s *server) syncCanvas(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	var req syncRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	policy := chatflow.PruneLocal
	if req.KeepLocal {
		policy = chatflow.KeepLocal
	}
	e.Canvas().ReplaceFromExternal(req.Nodes, req.Edges, policy)
	return c.JSON(e.GetCanvasData())
}

func (s *server) exportCanvas(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	payload := e.Export()
	b, err := chatflow.MarshalExport(payload)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	c.Attachment(chatflow.ExportFilename(payload.ProjectName))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(b)
}

func (s *server) saveCanvas(c fiber.Ctx) error {
	if s.store == nil {
		return noStore(c)
	}
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	f := e.Snapshot()
	id, err := s.store.SaveFlow(c.Context(), f)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	e.SetFlowID(id)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id, "updatedAt": f.UpdatedAt})
}

// ── Nodes ─────────────────────────────────────────────────────────────

type addNodeRequest struct {
	Template chatflow.Template  `json:"template"`
	Position *chatflow.Position `json:"position,omitempty"`
}

func (s *server) addNode(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	var req addNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	n, err := e.Canvas().AddNode(req.Template, req.Position)
	if errors.Is(err, chatflow.ErrUnknownKind) || errors.Is(err, chatflow.ErrInvalidParameter) {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

type dropRequest struct {
	Payload string            `json:"payload"`
	Pointer chatflow.Position `json:"pointer"`
	Origin  chatflow.Position `json:"origin"`
}

// dropNode never reports a malformed payload as an error: drags from
// unrelated sources end up here too.
func (s *server) dropNode(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	var req dropRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	n, added := e.Drop([]byte(req.Payload), req.Pointer, req.Origin)
	if !added {
		return c.JSON(fiber.Map{"added": false})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"added":        true,
		"node":         n,
		"notification": e.Notification(),
	})
}

func (s *server) nodeInfo(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	info, ok := e.NodeInfo(c.Params("nodeId"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "node not found")
	}
	return c.JSON(info)
}

func (s *server) deleteNode(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	e.DeleteNode(c.Params("nodeId"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *server) moveNode(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	var pos chatflow.Position
	if err := c.Bind().JSON(&pos); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	e.Canvas().MoveNode(c.Params("nodeId"), pos)
	return c.SendStatus(fiber.StatusNoContent)
}

// copyNode answers 204 when the source is gone: the browser may be
// acting on a stale node.
func (s *server) copyNode(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	n, copied := e.CopyNode(c.Params("nodeId"))
	if !copied {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

func (s *server) patchNodeData(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	var partial map[string]any
	if err := c.Bind().JSON(&partial); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	var perr *chatflow.ParameterError
	err := e.PatchNodeData(c.Params("nodeId"), partial)
	switch {
	case errors.Is(err, chatflow.ErrNodeNotFound):
		return c.SendStatus(fiber.StatusNoContent)
	case errors.As(err, &perr):
		return errorJSON(c, fiber.StatusUnprocessableEntity, perr.Err.Error())
	case err != nil:
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	n, _ := e.Canvas().Node(c.Params("nodeId"))
	return c.JSON(n)
}

func (s *server) parameterForm(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	form, ok := e.ParameterForm(c.Params("nodeId"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "node not found")
	}
	return c.JSON(form)
}

type parametersRequest struct {
	Values map[string]any `json:"values"`
}

func (s *server) submitParameters(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	var req parametersRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	return parameterResult(c, e, e.SubmitToolParameters(c.Params("nodeId"), req.Values))
}

type maxIterationsRequest struct {
	MaxIterations int `json:"maxIterations"`
}

func (s *server) setMaxIterations(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	var req maxIterationsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	return parameterResult(c, e, e.SetMaxIterations(c.Params("nodeId"), req.MaxIterations))
}

func parameterResult(c fiber.Ctx, e *chatflow.Editor, err error) error {
	var perr *chatflow.ParameterError
	switch {
	case errors.Is(err, chatflow.ErrNodeNotFound):
		return errorJSON(c, fiber.StatusNotFound, "node not found")
	case errors.As(err, &perr):
		return errorJSON(c, fiber.StatusUnprocessableEntity, perr.Err.Error())
	case errors.Is(err, chatflow.ErrInvalidParameter):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case err != nil:
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	n, _ := e.Canvas().Node(c.Params("nodeId"))
	return c.JSON(n)
}

// ── Edges ─────────────────────────────────────────────────────────────

func (s *server) connect(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	var edge chatflow.Edge
	if err := c.Bind().JSON(&edge); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	res := e.Connect(edge)
	if !res.Accepted {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(res)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (s *server) removeEdge(c fiber.Ctx) error {
	e, ok := s.lookup(c)
	if !ok {
		return canvasNotFound(c)
	}
	e.Canvas().RemoveEdge(c.Params("edgeId"))
	return c.SendStatus(fiber.StatusNoContent)
}
