package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/ratings"
)

type RatingHandler struct {
	Ratings *ratings.Service
}

type SubmitRatingRequest struct {
	JobID  string `json:"job_id" validate:"required,uuid"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"max=2000"`
}

func (h *RatingHandler) Submit(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	var req SubmitRatingRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	r, err := h.Ratings.Submit(c.UserContext(), sess.UserID, ratings.SubmitInput{
		JobID:  uuid.MustParse(req.JobID),
		Rating: req.Rating,
		Review: req.Review,
	})
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "Thank you for your feedback!", r)
}

func (h *RatingHandler) ForFundi(c *fiber.Ctx) error {
	id, ok, err := paramUUID(c, "id")
	if !ok {
		return err
	}
	sum, err := h.Ratings.ForFundi(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "OK", sum)
}
