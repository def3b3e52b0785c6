package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"type:uuid;primary_key" json:"id"`
	DisplayName  string    `gorm:"type:varchar(100);not null" json:"display_name"`
	PhotoURL     *string   `gorm:"type:text" json:"photo_url,omitempty"`
	FirstName    *string   `gorm:"type:varchar(100)" json:"first_name,omitempty"`
	LastName     *string   `gorm:"type:varchar(100)" json:"last_name,omitempty"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// PublicUser is the subset of user fields that may appear inside a composite
// post view. Email and name parts never leave the users table.
type PublicUser struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	PhotoURL    *string `json:"photo_url,omitempty"`
}

// Public projects the user onto its public fields
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
	}
}
