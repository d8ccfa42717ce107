package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Restriction is never removed; lifting flips IsActive off.
type Restriction struct {
	ID       uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	AdminID  uuid.UUID  `gorm:"type:uuid;not null" json:"admin_id"`
	Reason   string     `gorm:"type:text;not null" json:"reason"`
	IsActive bool       `gorm:"not null;default:true;index" json:"is_active"`
	LiftedAt *time.Time `json:"lifted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Appeals []Appeal `gorm:"foreignKey:RestrictionID" json:"appeals,omitempty"`
}

func (r *Restriction) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// HasPendingAppeal is derived from the loaded appeals, never stored.
func (r *Restriction) HasPendingAppeal() bool {
	if r == nil {
		return false
	}
	for i := range r.Appeals {
		if r.Appeals[i].Pending() {
			return true
		}
	}
	return false
}

type AppealStatus string

const (
	AppealPending  AppealStatus = "pending"
	AppealApproved AppealStatus = "approved"
	AppealRejected AppealStatus = "rejected"
)

type Appeal struct {
	ID            uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RestrictionID uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:idx_one_pending_appeal,where:status = 'pending'" json:"restriction_id"`
	UserID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	AppealMessage string       `gorm:"type:text;not null" json:"appeal_message"`
	Status        AppealStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	AdminResponse *string    `gorm:"type:text" json:"admin_response,omitempty"`
	ReviewedBy    *uuid.UUID `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Appeal) TableName() string { return TableAppeals }

func (a *Appeal) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

func (a *Appeal) Pending() bool { return a.Status == AppealPending }

func (a *Appeal) Response() string {
	if a.AdminResponse == nil {
		return ""
	}
	return *a.AdminResponse
}
