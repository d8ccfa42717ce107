package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]models.JobCategory, error) {
	var out []models.JobCategory
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, translate(err)
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.JobCategory, error) {
	var c models.JobCategory
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *models.JobCategory) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *categoryRepository) Update(ctx context.Context, c *models.JobCategory) error {
	res := r.db.WithContext(ctx).
		Model(&models.JobCategory{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"name":        c.Name,
			"description": c.Description,
			"icon":        c.Icon,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.JobCategory{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
