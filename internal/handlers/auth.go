package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Bla-nqo/fundiconnect-builder/internal/middleware"
	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/auth"
)

type AuthHandler struct {
	Auth    *auth.Service
	Expires int
	// Secure marks the session cookie Secure; off for plain-HTTP development.
	Secure bool
}

type RegisterReq struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"omitempty,min=8,max=30"`
}

type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SwitchRoleReq struct {
	Role string `json:"role" validate:"required,oneof=client fundi admin"`
}

func (h *AuthHandler) setToken(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.Secure,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})
}

func (h *AuthHandler) clearToken(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.Secure,
		SameSite: "Lax",
	})
}

func userPayload(u *models.User, roles []models.Role) fiber.Map {
	m := fiber.Map{
		"id":         u.ID,
		"full_name":  u.FullName,
		"email":      u.Email,
		"phone":      u.Phone,
		"role":       u.Role,
		"avatar_url": u.AvatarURL,
	}
	if roles != nil {
		m["roles"] = roles
	}
	return m
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if ok, err := bind(c, &req); !ok {
		return err
	}

	u, token, err := h.Auth.Register(c.UserContext(), auth.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		return fail(c, err)
	}

	h.setToken(c, token)
	return response.Created(c, "Register berhasil", fiber.Map{
		"user":  userPayload(u, nil),
		"token": token,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if ok, err := bind(c, &req); !ok {
		return err
	}

	u, token, err := h.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}

	h.setToken(c, token)
	return response.OK(c, "Login berhasil", fiber.Map{
		"user":  userPayload(u, nil),
		"token": token,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.clearToken(c)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logout berhasil",
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	u, roles, err := h.Auth.Me(c.UserContext(), sess.UserID)
	if err != nil {
		return fail(c, err)
	}
	data := userPayload(u, roles)
	data["acting_as"] = sess.Role
	data["restriction"] = sess.Restriction
	return response.OK(c, "OK", data)
}

// HasRole answers GET /api/me/roles/:role from the database, not the token.
func (h *AuthHandler) HasRole(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	role := models.ParseRole(c.Params("role"))
	if role == "" {
		return response.Fail(c, fiber.StatusBadRequest, "invalid_role", "Unknown role")
	}
	has, err := h.Auth.HasRole(c.UserContext(), sess.UserID, role)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "OK", fiber.Map{"role": role, "has_role": has})
}

func (h *AuthHandler) SwitchRole(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	var req SwitchRoleReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	role := models.ParseRole(req.Role)
	token, err := h.Auth.SwitchRole(c.UserContext(), sess.UserID, role)
	if err != nil {
		return fail(c, err)
	}
	h.setToken(c, token)
	return response.OK(c, "Role switched", fiber.Map{"role": role, "token": token})
}
