package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/session"
)

// RequireRoles passes when the session holds any of the allowed roles.
func RequireRoles(allowed ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := session.From(c)
		if !ok {
			return response.Unauthorized(c)
		}
		for _, r := range allowed {
			if sess.Has(r) {
				return c.Next()
			}
		}
		return response.Forbidden(c, "")
	}
}

// VerifyRole re-checks the grant against the database so a revoked role
// stops working before the token expires.
func VerifyRole(users repository.UserRepository, role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := session.From(c)
		if !ok {
			return response.Unauthorized(c)
		}
		roles, err := users.Roles(c.UserContext(), sess.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return response.Unauthorized(c)
			}
			slog.Error("role lookup failed", "user_id", sess.UserID, "error", err)
			return fiber.ErrInternalServerError
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return response.Forbidden(c, "")
	}
}
