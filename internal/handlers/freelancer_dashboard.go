package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/dashboard"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/fundi"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/stats"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/wallet"
)

type DashboardHandler struct {
	Dashboard *dashboard.Service
	Fundi     *fundi.Service
	Wallet    *wallet.WalletService
	Stats     *stats.Service
}

// Get returns the surface the session lands on.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	d, err := h.Dashboard.Resolve(c.UserContext(), sess)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "OK", d)
}

// FundiStats returns summary for the fundi dashboard
func (h *DashboardHandler) FundiStats(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	st, err := h.Fundi.Stats(c.UserContext(), sess.UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "OK", st)
}

// WalletSummary is the fundi's earnings balance and ledger.
func (h *DashboardHandler) WalletSummary(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	ctx := c.UserContext()
	total, err := h.Wallet.Earnings(ctx, sess.UserID)
	if err != nil {
		return fail(c, err)
	}
	history, err := h.Wallet.History(ctx, sess.UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "OK", fiber.Map{
		"balance":      total,
		"transactions": history,
	})
}

func (h *DashboardHandler) Recommended(c *fiber.Ctx) error {
	list, err := h.Fundi.Recommended(c.UserContext(), c.Query("skill"))
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "OK", list)
}

// Platform is the public landing-page counter set.
func (h *DashboardHandler) Platform(c *fiber.Ctx) error {
	p, err := h.Stats.Platform(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, "OK", p)
}
