package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Like is an association record: one row per (user, post) pair. The unique
// index is the only mutual exclusion between concurrent toggles.
type Like struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_like_user_post,unique" json:"user_id"`
	PostID    string    `gorm:"type:uuid;not null;index:idx_like_user_post,unique" json:"post_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// BeforeCreate hook to generate UUID
func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Like) TableName() string {
	return "likes"
}
