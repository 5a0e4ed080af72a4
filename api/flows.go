package api

import (
	"github.com/gofiber/fiber/v3"
)

func (s *server) createSchema(c fiber.Ctx) error {
	if s.store == nil {
		return noStore(c)
	}
	if err := s.store.CreateSchema(c.Context()); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"message": "schema created"})
}

func (s *server) dropSchema(c fiber.Ctx) error {
	if s.store == nil {
		return noStore(c)
	}
	if err := s.store.DropSchema(c.Context()); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"message": "schema dropped"})
}

func (s *server) listFlows(c fiber.Ctx) error {
	if s.store == nil {
		return noStore(c)
	}
	flows, err := s.store.ListFlows(c.Context(), c.Query("q"))
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(flows)
}

func (s *server) getFlow(c fiber.Ctx) error {
	if s.store == nil {
		return noStore(c)
	}
	f, err := s.store.GetFlow(c.Context(), c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	if f == nil {
		return errorJSON(c, fiber.StatusNotFound, "flow not found")
	}
	return c.JSON(f)
}

func (s *server) deleteFlow(c fiber.Ctx) error {
	if s.store == nil {
		return noStore(c)
	}
	if err := s.store.DeleteFlow(c.Context(), c.Params("id")); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// openFlow starts an editor session from a saved flow.
func (s *server) openFlow(c fiber.Ctx) error {
	if s.store == nil {
		return noStore(c)
	}
	f, err := s.store.GetFlow(c.Context(), c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	if f == nil {
		return errorJSON(c, fiber.StatusNotFound, "flow not found")
	}
	id, e := s.sessions.Create(f.Name)
	e.Load(f)
	return c.Status(fiber.StatusCreated).JSON(canvasResponse{ID: id, EditorState: e.State()})
}
