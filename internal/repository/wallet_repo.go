package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

// Record returns ErrDuplicate when the (user, reference, type) entry exists.
func (r *walletRepository) Record(ctx context.Context, entry *models.WalletTransaction) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(entry).Error)
}

func (r *walletRepository) Sum(ctx context.Context, userID uuid.UUID, typ models.WalletTrxType) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("user_id = ? AND type = ?", userID, typ).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, translate(err)
}

func (r *walletRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WalletTransaction, error) {
	var out []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, translate(err)
}
