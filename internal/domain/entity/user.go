package entity

import (
	"log"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Auth providers an account can originate from.
const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// Roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents one authenticatable account. Password and reset-token
// fields are never serialized. A password hash is present only for local
// accounts; federated accounts authenticate through user_identities.
type User struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UserName       string `gorm:"size:100;not null" json:"user_name"`
	Email          string `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password       string `gorm:"size:100;not null;default:''" json:"-"`
	IsVerified     bool   `gorm:"not null;default:false" json:"is_verified"`
	Role           string `gorm:"size:20;not null;default:'user'" json:"role"` // "user" or "admin"
	AuthProvider   string `gorm:"size:20;not null;default:'local'" json:"auth_provider"`
	ProfilePicture string `gorm:"size:255;not null;default:''" json:"profile_picture"`

	// ProfileID is the back-reference to the one-to-one Profile, set right
	// after the profile row is created.
	ProfileID *uint `gorm:"index" json:"profile_id,omitempty"`

	ResetPasswordToken   string     `gorm:"size:64;not null;default:'';index" json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// BeforeSave normalizes the user name and hashes the password, unless it
// already is a bcrypt hash (prevents double hashing on re-saves).
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.UserName = capitalizeFirst(strings.TrimSpace(u.UserName))

	if len(u.Password) > 0 && !strings.HasPrefix(u.Password, "$2a$") &&
		!strings.HasPrefix(u.Password, "$2b$") && !strings.HasPrefix(u.Password, "$2y$") {
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[User.BeforeSave] failed to hash password for email=%s: %v", u.Email, err)
			return err
		}
		u.Password = string(hashed)
	}
	return nil
}

// CheckPassword reports whether the supplied password matches the stored
// hash. Always false for accounts without a password hash.
func (u *User) CheckPassword(password string) bool {
	if u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// IsLocal reports whether the account authenticates with a password.
func (u *User) IsLocal() bool {
	return u.AuthProvider == ProviderLocal
}

// HasLiveResetToken reports whether a reset token exists and has not
// expired at the given instant.
func (u *User) HasLiveResetToken(now time.Time) bool {
	return u.ResetPasswordToken != "" &&
		u.ResetPasswordExpires != nil &&
		now.Before(*u.ResetPasswordExpires)
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
