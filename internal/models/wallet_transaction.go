package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WalletTrxType string

const (
	WalletTrxCredit WalletTrxType = "credit" // earnings for a completed job
	WalletTrxDebit  WalletTrxType = "debit"
	WalletTrxRefund WalletTrxType = "refund"
)

// WalletTransaction is a ledger row. One entry per (user, reference, type)
// so crediting the same job twice is a no-op.
type WalletTransaction struct {
	ID          uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID     `gorm:"type:uuid;index;not null;uniqueIndex:idx_wallet_reference" json:"user_id"`
	Amount      int64         `gorm:"not null" json:"amount"`
	Type        WalletTrxType `gorm:"type:varchar(20);not null;uniqueIndex:idx_wallet_reference" json:"type"`
	Description string        `gorm:"type:text" json:"description"`
	ReferenceID *uuid.UUID    `gorm:"type:uuid;index;uniqueIndex:idx_wallet_reference" json:"reference_id,omitempty"` // job id
	CreatedAt   time.Time     `json:"created_at"`

	// Relation
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (w *WalletTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}
