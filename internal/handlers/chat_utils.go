package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/session"
)

// currentSession returns the request session or writes a 401.
func currentSession(c *fiber.Ctx) (*session.Session, error) {
	sess, ok := session.From(c)
	if !ok {
		return nil, response.Unauthorized(c)
	}
	return sess, nil
}

// paramUUID parses a path parameter or writes a 400.
func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, false, response.Fail(c, fiber.StatusBadRequest, "invalid_id", "Invalid "+name)
	}
	return id, true, nil
}
