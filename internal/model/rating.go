package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rating is immutable reference data seeded at startup
type Rating struct {
	ID          string    `gorm:"type:uuid;primary_key" json:"id"`
	Type        string    `gorm:"type:varchar(20);not null;uniqueIndex" json:"type"` // RECOMMENDED, NEW, SO_SO
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate hook to generate UUID
func (r *Rating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Rating) TableName() string {
	return "ratings"
}

// Constants for rating types
const (
	RatingRecommended = "RECOMMENDED"
	RatingNew         = "NEW"
	RatingSoSo        = "SO_SO"
)

// DefaultRatings returns the seed rows for the ratings table
func DefaultRatings() []Rating {
	return []Rating{
		{Type: RatingRecommended, Description: "Would go again and tell friends"},
		{Type: RatingNew, Description: "Just opened or newly discovered"},
		{Type: RatingSoSo, Description: "Fine, but nothing special"},
	}
}
