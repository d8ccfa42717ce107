package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, m *models.Message) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *messageRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var m models.Message
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// Conversation returns both directions between a and b, oldest first.
func (r *messageRepository) Conversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("created_at ASC").
		Find(&out).Error
	return out, translate(err)
}
