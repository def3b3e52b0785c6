package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag is created on demand the first time a post uses its name.
// Name matching is exact (case-sensitive) on creation.
type Tag struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate hook to generate UUID
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Tag) TableName() string {
	return "tags"
}

// PostTag links a tag to a post; re-tagging the same pair is a no-op
type PostTag struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	TagID     string    `gorm:"type:uuid;not null;index:idx_post_tag,unique" json:"tag_id"`
	PostID    string    `gorm:"type:uuid;not null;index:idx_post_tag,unique" json:"post_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Tag Tag `gorm:"foreignKey:TagID;references:ID" json:"tag,omitempty"`
}

// BeforeCreate hook to generate UUID
func (pt *PostTag) BeforeCreate(tx *gorm.DB) error {
	if pt.ID == "" {
		pt.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (PostTag) TableName() string {
	return "post_tags"
}
