package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) Update(ctx context.Context, u *models.User) error {
	return translate(r.db.WithContext(ctx).Save(u).Error)
}

// GrantRole is idempotent: an existing grant is left alone.
func (r *userRepository) GrantRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	grant := models.UserRole{ID: uuid.New(), UserID: userID, Role: role}
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&grant).Error)
}

func (r *userRepository) Roles(ctx context.Context, userID uuid.UUID) ([]models.Role, error) {
	u, err := r.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var grants []models.UserRole
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&grants).Error; err != nil {
		return nil, translate(err)
	}

	roles := []models.Role{u.Role}
	for _, g := range grants {
		if g.Role != u.Role {
			roles = append(roles, g.Role)
		}
	}
	return roles, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, translate(err)
}
