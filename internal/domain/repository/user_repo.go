package repository

import (
	"time"

	"github.com/yourusername/learndocs-api/internal/domain/entity"
)

// UserRepository persists accounts. The store's unique indexes are the
// single source of truth for email uniqueness; implementations translate
// unique-constraint violations into apperrors.ErrConflict.
type UserRepository interface {
	Create(user *entity.User) error
	// CreateWithProfile creates the user and its profile and links the
	// profile id back onto the user in one transaction, so a provisioning
	// failure never leaves an account without a profile.
	CreateWithProfile(user *entity.User, profile *entity.Profile) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	// GetByResetToken looks up the account holding the given reset token.
	// Expiry is checked by the caller against ResetPasswordExpires.
	GetByResetToken(token string) (*entity.User, error)
	Update(user *entity.User) error
	// UpdatePassword hashes and stores a new password and clears any
	// pending reset token in the same statement.
	UpdatePassword(userID uint, newPassword string) error
	SetResetToken(userID uint, token string, expires time.Time) error
	ClearResetToken(userID uint) error
	UpdateLastLogin(userID uint, at time.Time) error
	// Delete removes the account and cascade-deletes its profile and
	// provider identities atomically.
	Delete(userID uint) error
}
