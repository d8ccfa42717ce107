package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/fundi"
)

// FundiOnboardingHandler covers the fundi application and the admin vetting
// queue that decides it.
type FundiOnboardingHandler struct {
	Fundi  *fundi.Service
	Tokens *AuthHandler
}

func NewFundiOnboardingHandler(svc *fundi.Service, tokens *AuthHandler) *FundiOnboardingHandler {
	return &FundiOnboardingHandler{Fundi: svc, Tokens: tokens}
}

type FundiApplyRequest struct {
	MobileNumber    string   `json:"mobile_number" validate:"required,min=8,max=30"`
	Location        string   `json:"location" validate:"max=200"`
	Skills          []string `json:"skills"`
	Bio             string   `json:"bio" validate:"max=2000"`
	ExperienceYears int      `json:"experience_years" validate:"min=0,max=80"`
	HourlyRate      int64    `json:"hourly_rate" validate:"min=0"`
}

type VerifyMobileRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}

func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	return phone
}

// Apply files the application and switches the session to the fundi role.
func (h *FundiOnboardingHandler) Apply(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	var req FundiApplyRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	profile, err := h.Fundi.Apply(c.UserContext(), sess.UserID, fundi.ApplyInput{
		MobileNumber:    normalizePhone(req.MobileNumber),
		Location:        req.Location,
		Skills:          req.Skills,
		Bio:             req.Bio,
		ExperienceYears: req.ExperienceYears,
		HourlyRate:      req.HourlyRate,
	})
	if err != nil {
		return fail(c, err)
	}

	token, err := h.Tokens.Auth.SwitchRole(c.UserContext(), sess.UserID, models.RoleFundi)
	if err != nil {
		return err
	}
	h.Tokens.setToken(c, token)

	return response.Created(c, "Application submitted", fiber.Map{
		"profile": profile,
		"role":    models.RoleFundi,
		"token":   token,
	})
}

func (h *FundiOnboardingHandler) Me(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	profile, err := h.Fundi.Profile(c.UserContext(), sess.UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "OK", profile)
}

func (h *FundiOnboardingHandler) Pending(c *fiber.Ctx) error {
	list, err := h.Fundi.ListPending(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, "OK", list)
}

func (h *FundiOnboardingHandler) Approve(c *fiber.Ctx) error {
	return h.decide(c, true)
}

func (h *FundiOnboardingHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, false)
}

func (h *FundiOnboardingHandler) decide(c *fiber.Ctx, approve bool) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	id, ok, err := paramUUID(c, "id")
	if !ok {
		return err
	}

	var profile *models.FundiProfile
	msg := "Fundi approved"
	if approve {
		profile, err = h.Fundi.Approve(c.UserContext(), sess.UserID, id)
	} else {
		msg = "Fundi rejected"
		profile, err = h.Fundi.Reject(c.UserContext(), sess.UserID, id)
	}
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, msg, profile)
}

func (h *FundiOnboardingHandler) VerifyMobile(c *fiber.Ctx) error {
	id, ok, err := paramUUID(c, "id")
	if !ok {
		return err
	}
	var req VerifyMobileRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	profile, err := h.Fundi.VerifyMobile(c.UserContext(), id, *req.Verified)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "Mobile verification updated", profile)
}
