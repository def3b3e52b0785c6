package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WantToGo marks a user as intending to visit the place a post reviews.
// Same association shape as Like, toggled independently.
type WantToGo struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_wtg_user_post,unique" json:"user_id"`
	PostID    string    `gorm:"type:uuid;not null;index:idx_wtg_user_post,unique" json:"post_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// BeforeCreate hook to generate UUID
func (w *WantToGo) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (WantToGo) TableName() string {
	return "want_to_gos"
}
