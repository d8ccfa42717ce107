// internal/models/fundi_profile.go
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type FundiProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	MobileNumber    string                      `gorm:"type:varchar(30);not null" json:"mobile_number"`
	Location        string                      `gorm:"type:varchar(120)" json:"location"`
	Skills          datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"skills"`
	Bio             string                      `gorm:"type:text" json:"bio"`
	ExperienceYears int                         `gorm:"not null;default:0" json:"experience_years"`
	HourlyRate      int64                       `gorm:"not null;default:0" json:"hourly_rate"`

	ApprovalStatus ApprovalStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"approval_status"`
	MobileVerified bool           `gorm:"not null;default:false" json:"mobile_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (p *FundiProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

func (p *FundiProfile) Approved() bool {
	return p != nil && p.ApprovalStatus == ApprovalApproved
}

// HasSkill matches case-insensitively. An empty skill matches every profile.
func (p *FundiProfile) HasSkill(skill string) bool {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return true
	}
	for _, s := range p.Skills {
		if strings.EqualFold(strings.TrimSpace(s), skill) {
			return true
		}
	}
	return false
}

func (p *FundiProfile) DisplayName() string {
	if p == nil {
		return (*User)(nil).DisplayName()
	}
	return p.User.DisplayName()
}

// SplitSkills turns "Plumbing, Tiling" into a trimmed, de-duplicated list.
func SplitSkills(raw string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		s := strings.TrimSpace(part)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
