package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/moderation"
)

type ModerationHandler struct {
	Moderation *moderation.ModerationService
}

type RestrictRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Reason string `json:"reason" validate:"required,max=2000"`
}

type AppealRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type ResolveAppealRequest struct {
	Approve  *bool  `json:"approve" validate:"required"`
	Response string `json:"response" validate:"max=4000"`
}

// MyRestriction is reachable while restricted; data is null when free.
func (h *ModerationHandler) MyRestriction(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	r, err := h.Moderation.Current(c.UserContext(), sess.UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "OK", fiber.Map{
		"restriction": r,
		"can_appeal":  r != nil && !r.HasPendingAppeal(),
	})
}

func (h *ModerationHandler) SubmitAppeal(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	var req AppealRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	r, err := h.Moderation.Current(c.UserContext(), sess.UserID)
	if err != nil {
		return fail(c, err)
	}
	if r == nil {
		return fail(c, moderation.ErrNotRestricted)
	}
	appeal, err := h.Moderation.SubmitAppeal(c.UserContext(), sess.UserID, r.ID, req.Message)
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "Appeal Submitted", appeal)
}

func (h *ModerationHandler) Restrict(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	var req RestrictRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	r, err := h.Moderation.Restrict(c.UserContext(), sess.UserID, uuid.MustParse(req.UserID), req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "User restricted", r)
}

func (h *ModerationHandler) ListActive(c *fiber.Ctx) error {
	list, err := h.Moderation.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, "OK", list)
}

func (h *ModerationHandler) Lift(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	id, ok, err := paramUUID(c, "id")
	if !ok {
		return err
	}
	r, err := h.Moderation.Lift(c.UserContext(), sess.UserID, id)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "Restriction lifted", r)
}

func (h *ModerationHandler) PendingAppeals(c *fiber.Ctx) error {
	list, err := h.Moderation.ListPendingAppeals(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, "OK", list)
}

func (h *ModerationHandler) ResolveAppeal(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	id, ok, err := paramUUID(c, "id")
	if !ok {
		return err
	}
	var req ResolveAppealRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	a, err := h.Moderation.ResolveAppeal(c.UserContext(), sess.UserID, id, *req.Approve, req.Response)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "Appeal resolved", a)
}
