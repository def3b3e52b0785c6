package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID        string  `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string  `gorm:"type:uuid;not null;index;references:users(id)" json:"user_id"`
	Title     string  `gorm:"type:varchar(255);not null" json:"title"`
	Content   *string `gorm:"type:text" json:"content,omitempty"`
	Location  *string `gorm:"type:varchar(255)" json:"location,omitempty"`
	PlaceName *string `gorm:"type:varchar(255)" json:"place_name,omitempty"`
	ImageURLs string  `gorm:"type:jsonb" json:"image_urls,omitempty"` // Variant set of image URLs stored as JSON
	RatingID  *string `gorm:"type:uuid;index;references:ratings(id)" json:"rating_id,omitempty"`
	// Only ever incremented via a column expression, never read-modify-write
	ShareCount int64     `gorm:"default:0" json:"share_count"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	User   User    `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Rating *Rating `gorm:"foreignKey:RatingID;references:ID" json:"rating,omitempty"`
}

// BeforeCreate hook to generate UUID
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Post) TableName() string {
	return "posts"
}

// GetImageURLs returns ImageURLs as a slice of strings
func (p *Post) GetImageURLs() []string {
	if p.ImageURLs == "" || p.ImageURLs == "[]" {
		return []string{}
	}
	var urls []string
	if err := json.Unmarshal([]byte(p.ImageURLs), &urls); err != nil {
		return []string{}
	}
	return urls
}

// SetImageURLs sets ImageURLs from a slice of strings
func (p *Post) SetImageURLs(urls []string) error {
	if len(urls) == 0 {
		// Use empty JSON array instead of empty string for PostgreSQL JSONB
		p.ImageURLs = "[]"
		return nil
	}
	bytes, err := json.Marshal(urls)
	if err != nil {
		return err
	}
	p.ImageURLs = string(bytes)
	return nil
}

// MarshalJSON custom JSON marshaling to convert ImageURLs string to array
func (p *Post) MarshalJSON() ([]byte, error) {
	type Alias Post
	aux := &struct {
		ImageURLs []string `json:"image_urls,omitempty"`
		*Alias
	}{
		ImageURLs: p.GetImageURLs(),
		Alias:     (*Alias)(p),
	}
	return json.Marshal(aux)
}

// UnmarshalJSON accepts image_urls as either the stored JSON string or the
// array form produced by MarshalJSON, so cached posts round-trip
func (p *Post) UnmarshalJSON(data []byte) error {
	type Alias Post
	aux := &struct {
		ImageURLs json.RawMessage `json:"image_urls,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.ImageURLs) == 0 {
		p.ImageURLs = "[]"
		return nil
	}
	var s string
	if err := json.Unmarshal(aux.ImageURLs, &s); err == nil {
		p.ImageURLs = s
		return nil
	}
	p.ImageURLs = string(aux.ImageURLs)
	return nil
}
