// internal/models/job.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobOpen       JobStatus = "open"
	JobAccepted   JobStatus = "accepted"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobCancelled  JobStatus = "cancelled"
)

type Job struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"client_id"`
	FundiID    *uuid.UUID `gorm:"type:uuid;index" json:"fundi_id"`
	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`

	Title       string                      `gorm:"type:varchar(160);not null" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	Location    string                      `gorm:"type:varchar(120)" json:"location"`
	Budget      int64                       `gorm:"not null" json:"budget"`
	Skills      datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"skills"`

	Status    JobStatus  `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Client *User `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Fundi  *User `gorm:"foreignKey:FundiID" json:"fundi,omitempty"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) (err error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return
}

func (j *Job) Assigned() bool {
	return j.FundiID != nil && *j.FundiID != uuid.Nil
}

// AssignedTo reports whether fundiID is the assigned fundi.
func (j *Job) AssignedTo(fundiID uuid.UUID) bool {
	return j.Assigned() && *j.FundiID == fundiID
}

// Progress is 100 for completed jobs and 0 until both dates are known.
func (j *Job) Progress(now time.Time) int {
	if j.Status == JobCompleted {
		return 100
	}
	if j.StartDate == nil || j.EndDate == nil {
		return 0
	}
	return Progress(*j.StartDate, *j.EndDate, now)
}

func (j *Job) FundiName() string {
	if !j.Assigned() {
		return "Unassigned"
	}
	return j.Fundi.DisplayName()
}

type JobActions struct {
	CanChat bool `json:"can_chat"`
	CanRate bool `json:"can_rate"`
}

// Actions never offers chat or rating on a job without an assigned fundi.
func (j *Job) Actions() JobActions {
	if !j.Assigned() {
		return JobActions{}
	}
	return JobActions{
		CanChat: j.Status != JobCancelled,
		CanRate: j.Status == JobCompleted,
	}
}
