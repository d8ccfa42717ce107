package handlers

import (
	"errors"
	"log/slog"

	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"

	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/auth"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/catalog"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/fundi"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/jobs"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/messaging"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/moderation"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/ratings"
)

type errMapping struct {
	err    error
	status int
	code   string
}

var errorTable = []errMapping{
	{jobs.ErrJobNotFound, fiber.StatusNotFound, response.CodeNotFound},
	{jobs.ErrJobUnavailable, fiber.StatusConflict, "job_unavailable"},
	{jobs.ErrNotApproved, fiber.StatusForbidden, "not_approved"},
	{jobs.ErrNotJobOwner, fiber.StatusForbidden, "not_owner"},
	{jobs.ErrNotAssigned, fiber.StatusForbidden, "not_assigned"},
	{jobs.ErrOwnJob, fiber.StatusUnprocessableEntity, "own_job"},
	{jobs.ErrInvalidTransition, fiber.StatusConflict, "invalid_transition"},
	{jobs.ErrInvalidJob, fiber.StatusUnprocessableEntity, response.CodeValidationFailed},

	{fundi.ErrAlreadyApplied, fiber.StatusConflict, "already_applied"},
	{fundi.ErrProfileNotFound, fiber.StatusNotFound, response.CodeNotFound},
	{fundi.ErrInvalidProfile, fiber.StatusUnprocessableEntity, response.CodeValidationFailed},

	{messaging.ErrEmptyMessage, fiber.StatusUnprocessableEntity, response.CodeValidationFailed},
	{messaging.ErrMessageTooLong, fiber.StatusUnprocessableEntity, response.CodeValidationFailed},
	{messaging.ErrSelfMessage, fiber.StatusUnprocessableEntity, "self_message"},
	{messaging.ErrRecipientNotFound, fiber.StatusNotFound, response.CodeNotFound},
	{messaging.ErrMessageIDTaken, fiber.StatusConflict, "duplicate_id"},

	{ratings.ErrAlreadyRated, fiber.StatusConflict, "already_rated"},
	{ratings.ErrInvalidRating, fiber.StatusUnprocessableEntity, response.CodeValidationFailed},
	{ratings.ErrJobNotRateable, fiber.StatusConflict, "job_not_rateable"},
	{ratings.ErrNotJobOwner, fiber.StatusForbidden, "not_owner"},
	{ratings.ErrJobNotFound, fiber.StatusNotFound, response.CodeNotFound},

	{moderation.ErrAppealPending, fiber.StatusConflict, "appeal_pending"},
	{moderation.ErrEmptyAppeal, fiber.StatusUnprocessableEntity, response.CodeValidationFailed},
	{moderation.ErrEmptyReason, fiber.StatusUnprocessableEntity, response.CodeValidationFailed},
	{moderation.ErrNotRestricted, fiber.StatusConflict, "not_restricted"},
	{moderation.ErrAlreadyRestricted, fiber.StatusConflict, "already_restricted"},
	{moderation.ErrSelfRestrict, fiber.StatusUnprocessableEntity, "self_restrict"},
	{moderation.ErrUserNotFound, fiber.StatusNotFound, response.CodeNotFound},
	{moderation.ErrRestrictionNotFound, fiber.StatusNotFound, response.CodeNotFound},
	{moderation.ErrNotYourRestriction, fiber.StatusForbidden, "not_owner"},
	{moderation.ErrAppealNotFound, fiber.StatusNotFound, response.CodeNotFound},
	{moderation.ErrAppealResolved, fiber.StatusConflict, "appeal_resolved"},

	{catalog.ErrCategoryNotFound, fiber.StatusNotFound, response.CodeNotFound},
	{catalog.ErrCategoryExists, fiber.StatusConflict, "category_exists"},
	{catalog.ErrEmptyName, fiber.StatusUnprocessableEntity, response.CodeValidationFailed},

	{auth.ErrEmailTaken, fiber.StatusConflict, "email_taken"},
	{auth.ErrPhoneTaken, fiber.StatusConflict, "phone_taken"},
	{auth.ErrInvalidCredentials, fiber.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrInactive, fiber.StatusForbidden, "inactive"},
	{auth.ErrRoleNotGranted, fiber.StatusForbidden, "role_not_granted"},
	{auth.ErrUserNotFound, fiber.StatusNotFound, response.CodeNotFound},
}

// fail maps a service error onto its envelope. Unknown errors fall through
// to ErrorHandler as a 500.
func fail(c *fiber.Ctx, err error) error {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return response.Fail(c, m.status, m.code, err.Error())
		}
	}
	return err
}

// ErrorHandler writes the envelope for errors no handler answered.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
		return response.Fail(c, code, response.CodeInternal, message)
	}
	if code == fiber.StatusUnauthorized {
		return response.Unauthorized(c)
	}
	return response.Fail(c, code, "", message)
}
