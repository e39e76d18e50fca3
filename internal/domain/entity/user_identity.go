package entity

import "time"

// UserIdentity links an account to an external auth provider. The
// (provider, provider_sub) pair is unique: one provider subject maps to
// exactly one account. ProviderEmail keeps the address the provider
// reported, which may differ from the account email when that address is
// already registered locally.
type UserIdentity struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Provider      string    `gorm:"size:20;not null;uniqueIndex:idx_provider_sub,priority:1" json:"provider"`
	ProviderSub   string    `gorm:"size:255;not null;uniqueIndex:idx_provider_sub,priority:2" json:"provider_sub"`
	ProviderEmail string    `gorm:"size:100;not null;default:''" json:"provider_email,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (UserIdentity) TableName() string {
	return "user_identities"
}
