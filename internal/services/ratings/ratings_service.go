package ratings

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
)

var (
	ErrAlreadyRated   = errors.New("you have already rated this job")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrJobNotRateable = errors.New("job cannot be rated yet")
	ErrNotJobOwner    = errors.New("only the job's client can rate it")
	ErrJobNotFound    = errors.New("job not found")
)

type SubmitInput struct {
	JobID  uuid.UUID
	Rating int
	Review string
}

type Summary struct {
	Ratings []models.Rating `json:"ratings"`
	Mean    float64         `json:"mean"`
	Count   int             `json:"count"`
}

type Service struct {
	Store *repository.Store
	Pub   realtime.Publisher
}

func NewService(store *repository.Store, pub realtime.Publisher) *Service {
	return &Service{Store: store, Pub: pub}
}

func (s *Service) Submit(ctx context.Context, clientID uuid.UUID, in SubmitInput) (*models.Rating, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}
	job, err := s.Store.Jobs.FindByID(ctx, in.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.ClientID != clientID {
		return nil, ErrNotJobOwner
	}
	if !job.Actions().CanRate {
		return nil, ErrJobNotRateable
	}

	rating := &models.Rating{
		JobID:    job.ID,
		FundiID:  *job.FundiID,
		ClientID: clientID,
		Rating:   in.Rating,
		Review:   strings.TrimSpace(in.Review),
	}
	if err := s.Store.Ratings.Create(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyRated
		}
		return nil, err
	}

	realtime.Emit(ctx, s.Pub, models.TableRatings, realtime.EventInsert, rating, nil)
	return rating, nil
}

func (s *Service) ForFundi(ctx context.Context, fundiID uuid.UUID) (*Summary, error) {
	list, err := s.Store.Ratings.ListByFundi(ctx, fundiID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Rating{}
	}
	return &Summary{Ratings: list, Mean: models.MeanRating(list), Count: len(list)}, nil
}
