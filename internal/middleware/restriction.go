package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/session"
)

// RequireUnrestricted keeps restricted users on the appeal surface. Admins
// are never held back.
func RequireUnrestricted() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := session.From(c)
		if !ok {
			return response.Unauthorized(c)
		}
		if sess.Restricted() && !sess.IsAdmin() {
			return response.Forbidden(c, response.CodeRestricted)
		}
		return c.Next()
	}
}
