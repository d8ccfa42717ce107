package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

type restrictionRepository struct {
	db *gorm.DB
}

// NewRestrictionRepository creates a new RestrictionRepository
func NewRestrictionRepository(db *gorm.DB) RestrictionRepository {
	return &restrictionRepository{db: db}
}

func (r *restrictionRepository) withAppeals(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Appeals", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC")
	})
}

func (r *restrictionRepository) Create(ctx context.Context, res *models.Restriction) error {
	res.IsActive = true
	return translate(r.db.WithContext(ctx).Omit("Appeals").Create(res).Error)
}

func (r *restrictionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Restriction, error) {
	var res models.Restriction
	if err := r.withAppeals(ctx).First(&res, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &res, nil
}

func (r *restrictionRepository) ActiveForUser(ctx context.Context, userID uuid.UUID) (*models.Restriction, error) {
	var res models.Restriction
	err := r.withAppeals(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		First(&res).Error
	if err != nil {
		return nil, translate(err)
	}
	return &res, nil
}

func (r *restrictionRepository) ListActive(ctx context.Context) ([]models.Restriction, error) {
	var out []models.Restriction
	err := r.withAppeals(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&out).Error
	return out, translate(err)
}

// Lift is a logical delete; the row stays with is_active = false.
func (r *restrictionRepository) Lift(ctx context.Context, id uuid.UUID, at time.Time) (*models.Restriction, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Restriction{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"lifted_at":  at,
			"updated_at": at,
		})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return r.FindByID(ctx, id)
}

// CreateAppeal relies on idx_one_pending_appeal to reject a second pending
// appeal with ErrDuplicate.
func (r *restrictionRepository) CreateAppeal(ctx context.Context, a *models.Appeal) error {
	a.Status = models.AppealPending
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

func (r *restrictionRepository) FindAppeal(ctx context.Context, id uuid.UUID) (*models.Appeal, error) {
	var a models.Appeal
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *restrictionRepository) ListPendingAppeals(ctx context.Context) ([]models.Appeal, error) {
	var out []models.Appeal
	err := r.db.WithContext(ctx).
		Where("status = ?", models.AppealPending).
		Order("created_at ASC").
		Find(&out).Error
	return out, translate(err)
}

func (r *restrictionRepository) ResolveAppeal(ctx context.Context, id uuid.UUID, status models.AppealStatus, response string, reviewer uuid.UUID, at time.Time) (*models.Appeal, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Appeal{}).
		Where("id = ? AND status = ?", id, models.AppealPending).
		Updates(map[string]interface{}{
			"status":         status,
			"admin_response": response,
			"reviewed_by":    reviewer,
			"reviewed_at":    at,
			"updated_at":     at,
		})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindAppeal(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return r.FindAppeal(ctx, id)
}
