package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleClient Role = "client"
	RoleFundi  Role = "fundi"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleFundi, RoleAdmin:
		return true
	}
	return false
}

// ParseRole normalizes a role string. Unknown values map to "".
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return ""
	}
	return r
}

// internal/models/user.go
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName string    `gorm:"not null" json:"full_name"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone    *string   `gorm:"type:varchar(30);uniqueIndex" json:"phone,omitempty"`

	Password  string  `gorm:"not null" json:"-"`
	Role      Role    `gorm:"type:varchar(20);not null;index" json:"role"`
	AvatarURL *string `gorm:"type:text" json:"avatar_url,omitempty"`
	IsActive  bool    `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// HAS ONE fundi_profile (fundi_profiles.user_id -> users.id)
	FundiProfile *FundiProfile `gorm:"foreignKey:UserID;references:ID" json:"fundi_profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// DisplayName falls back to a placeholder when the profile join is absent.
func (u *User) DisplayName() string {
	if u == nil || strings.TrimSpace(u.FullName) == "" {
		return "Unknown user"
	}
	return u.FullName
}

func (u *User) Avatar() string {
	if u == nil || u.AvatarURL == nil {
		return ""
	}
	return *u.AvatarURL
}

// UserRole grants an additional role to a user. The primary role lives on
// users.role; has_role checks both.
type UserRole struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_role" json:"user_id"`
	Role      Role      `gorm:"type:varchar(20);not null;uniqueIndex:idx_user_role" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *UserRole) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
