package entity

import "time"

// Profile holds auxiliary per-account metadata, one-to-one with User.
// A profile is created in the same transaction as its user and never
// outlives it.
type Profile struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	ContactNumber string    `gorm:"size:20;not null;default:''" json:"contact_number,omitempty"`
	Bio           string    `gorm:"size:500;not null;default:''" json:"bio"`
	ImageURL      string    `gorm:"size:255;not null;default:''" json:"image_url"`
	Location      string    `gorm:"size:100;not null;default:''" json:"location,omitempty"`
	Gender        string    `gorm:"size:20;not null;default:''" json:"gender,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "user_profiles"
}
