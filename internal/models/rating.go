package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rating is unique per (job, fundi); the store rejects a second one.
type Rating struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_job_fundi" json:"job_id"`
	FundiID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_job_fundi;index" json:"fundi_id"`
	ClientID uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`

	Rating int    `gorm:"not null;check:chk_rating_range,rating >= 1 AND rating <= 5" json:"rating"` // 1-5
	Review string `gorm:"type:text" json:"review"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Job    *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Client *User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

func (r *Rating) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// MeanRating folds ratings into their average; zero when there are none.
func MeanRating(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	return float64(sum) / float64(len(ratings))
}
