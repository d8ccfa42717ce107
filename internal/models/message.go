// internal/models/message.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a directed, append-only note between two users. The ID may be
// chosen by the sender so an optimistic copy and its echo share a key.
type Message struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SenderID    uuid.UUID  `gorm:"type:uuid;index:idx_message_pair;not null" json:"sender_id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;index:idx_message_pair;not null" json:"recipient_id"`
	JobID       *uuid.UUID `gorm:"type:uuid;index" json:"job_id,omitempty"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

func (m *Message) Involves(userID uuid.UUID) bool {
	return m.SenderID == userID || m.RecipientID == userID
}
