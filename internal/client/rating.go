package client

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

var ErrInvalidRating = errors.New("client: rating must be between 1 and 5")

// SubmitRating rates the fundi of a completed job. A duplicate rating gets
// its own message, distinct from the generic failure.
func (s *Session) SubmitRating(ctx context.Context, jobID uuid.UUID, rating int, review string) (*models.Rating, error) {
	if rating < 1 || rating > 5 {
		s.notify(Notification{Level: LevelError, Title: "Rating Required", Message: "Please select a rating"})
		return nil, ErrInvalidRating
	}

	body := map[string]interface{}{
		"job_id": jobID,
		"rating": rating,
		"review": strings.TrimSpace(review),
	}
	var out models.Rating
	msg, err := s.API.Do(ctx, "POST", "/api/ratings", body, &out)
	if err != nil {
		if HasCode(err, "already_rated") {
			s.notify(Notification{Level: LevelError, Title: "You have already rated this job"})
			return nil, err
		}
		return nil, s.report(err, "Failed to submit rating")
	}
	s.notify(Notification{Level: LevelSuccess, Title: msg})
	return &out, nil
}
