package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobCategory struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"type:varchar(40)" json:"icon"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *JobCategory) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// DefaultCategories seeds an empty catalog.
var DefaultCategories = []JobCategory{
	{Name: "Electricians", Description: "Wiring, installations and electrical repairs", Icon: "zap"},
	{Name: "Plumbers", Description: "Pipes, fittings, leaks and water systems", Icon: "wrench"},
	{Name: "Masons", Description: "Bricklaying, stonework and concrete", Icon: "hammer"},
	{Name: "Painters", Description: "Interior and exterior painting", Icon: "paintbrush"},
	{Name: "Carpenters", Description: "Furniture, doors, roofing and woodwork", Icon: "ruler"},
	{Name: "Tilers", Description: "Floor and wall tiling", Icon: "grid"},
}
