package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

type fundiRepository struct {
	db *gorm.DB
}

// NewFundiRepository creates a new FundiRepository
func NewFundiRepository(db *gorm.DB) FundiRepository {
	return &fundiRepository{db: db}
}

func (r *fundiRepository) Create(ctx context.Context, p *models.FundiProfile) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(p).Error)
}

func (r *fundiRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.FundiProfile, error) {
	var p models.FundiProfile
	if err := r.db.WithContext(ctx).Preload("User").First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *fundiRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.FundiProfile, error) {
	var p models.FundiProfile
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ListByStatus returns newest profiles first, joined with their user.
func (r *fundiRepository) ListByStatus(ctx context.Context, status models.ApprovalStatus) ([]models.FundiProfile, error) {
	var out []models.FundiProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("approval_status = ?", status).
		Order("created_at DESC").
		Find(&out).Error
	return out, translate(err)
}

func (r *fundiRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.ApprovalStatus, at time.Time) (*models.FundiProfile, error) {
	return r.update(ctx, id, map[string]interface{}{
		"approval_status": status,
		"updated_at":      at,
	})
}

func (r *fundiRepository) SetMobileVerified(ctx context.Context, id uuid.UUID, verified bool, at time.Time) (*models.FundiProfile, error) {
	return r.update(ctx, id, map[string]interface{}{
		"mobile_verified": verified,
		"updated_at":      at,
	})
}

func (r *fundiRepository) update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*models.FundiProfile, error) {
	res := r.db.WithContext(ctx).
		Model(&models.FundiProfile{}).
		Where("id = ?", id).
		Updates(changes)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *fundiRepository) CountByStatus(ctx context.Context, status models.ApprovalStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.FundiProfile{}).
		Where("approval_status = ?", status).
		Count(&n).Error
	return n, translate(err)
}
