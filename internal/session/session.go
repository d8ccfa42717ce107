// Package session holds the per-request identity built once by middleware.
package session

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

// LocalsKey is where the session is stored on fiber and websocket locals.
const LocalsKey = "session"

type Session struct {
	UserID uuid.UUID
	// Role is the role the user is acting as; Roles lists every grant.
	Role  models.Role
	Roles []models.Role

	// Restriction is the active restriction, nil when the user is free.
	Restriction *models.Restriction
}

func (s *Session) Has(role models.Role) bool {
	if s == nil {
		return false
	}
	if s.Role == role {
		return true
	}
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *Session) IsAdmin() bool { return s.Has(models.RoleAdmin) }

func (s *Session) Restricted() bool {
	return s != nil && s.Restriction != nil && s.Restriction.IsActive
}

func Set(c *fiber.Ctx, s *Session) {
	c.Locals(LocalsKey, s)
}

func From(c *fiber.Ctx) (*Session, bool) {
	return FromValue(c.Locals(LocalsKey))
}

// FromValue reads a session out of a locals value.
func FromValue(v interface{}) (*Session, bool) {
	s, ok := v.(*Session)
	return s, ok && s != nil
}
