package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"

	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/utils"
)

// TokenCookie is the cookie the browser session rides on.
const TokenCookie = "jm_token"

// JWTProtected accepts the token from the cookie, a bearer header or the
// token query parameter (used by the feed socket).
func JWTProtected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: []byte(secret)},
		TokenLookup: "cookie:" + TokenCookie + ",header:Authorization,query:token",
		AuthScheme:  "Bearer",
		Claims:      &utils.Claims{},
		ContextKey:  "user",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return response.Unauthorized(c)
		},
	})
}
