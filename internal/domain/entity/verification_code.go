package entity

import (
	"time"
)

// VerificationCode is a short-lived numeric code proving ownership of an
// email address before account creation. Codes are unique across all live
// rows so a lookup by code is never ambiguous. All codes for an email are
// deleted once one of them is consumed.
type VerificationCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:100;not null;index" json:"email"`
	Code      string    `gorm:"size:10;not null;uniqueIndex" json:"-"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (VerificationCode) TableName() string {
	return "verification_codes"
}

// IsExpired reports whether the code is past its TTL at the given instant.
func (v *VerificationCode) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.After(v.CreatedAt.Add(ttl))
}
