package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/session"
	"github.com/Bla-nqo/fundiconnect-builder/internal/utils"
)

// RestrictionFinder returns the user's active restriction or nil.
type RestrictionFinder func(ctx context.Context, userID uuid.UUID) (*models.Restriction, error)

// AttachSession turns the verified token into a session.Session. It must run
// after JWTProtected.
func AttachSession(findRestriction RestrictionFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok || token == nil {
			return response.Unauthorized(c)
		}

		claims, ok := token.Claims.(*utils.Claims)
		if !ok {
			return response.Unauthorized(c)
		}

		sess, err := SessionFromClaims(claims)
		if err != nil {
			return response.Unauthorized(c)
		}

		if findRestriction != nil {
			r, err := findRestriction(c.UserContext(), sess.UserID)
			if err != nil {
				slog.Error("restriction lookup failed", "user_id", sess.UserID, "error", err)
				return fiber.ErrInternalServerError
			}
			sess.Restriction = r
		}

		session.Set(c, sess)
		return c.Next()
	}
}

func SessionFromClaims(claims *utils.Claims) (*session.Session, error) {
	uid, err := uuid.Parse(strings.TrimSpace(claims.UserID))
	if err != nil {
		return nil, err
	}
	sess := &session.Session{
		UserID: uid,
		Role:   models.ParseRole(claims.Role),
	}
	for _, r := range claims.Roles {
		if role := models.ParseRole(r); role != "" {
			sess.Roles = append(sess.Roles, role)
		}
	}
	if sess.Role == "" {
		return nil, fiber.ErrUnauthorized
	}
	return sess, nil
}
