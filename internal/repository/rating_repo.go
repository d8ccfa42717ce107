package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository creates a new RatingRepository
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// Create returns ErrDuplicate when the (job, fundi) pair is already rated.
func (r *ratingRepository) Create(ctx context.Context, rating *models.Rating) error {
	return translate(r.db.WithContext(ctx).Omit("Job", "Client").Create(rating).Error)
}

func (r *ratingRepository) ListByFundi(ctx context.Context, fundiID uuid.UUID) ([]models.Rating, error) {
	var out []models.Rating
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("fundi_id = ?", fundiID).
		Order("created_at DESC").
		Find(&out).Error
	return out, translate(err)
}
