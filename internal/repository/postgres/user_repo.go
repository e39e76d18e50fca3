package postgres

import (
	"errors"
	"log"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yourusername/learndocs-api/internal/domain/entity"
	apperrors "github.com/yourusername/learndocs-api/internal/pkg/errors"
)

// UserRepo implements repository.UserRepository.
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a new user repository.
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user. A unique-index violation on email is
// reported as ErrConflict so two concurrent signups for the same address
// resolve to exactly one created account.
func (r *UserRepo) Create(user *entity.User) error {
	return translateUniqueViolation(r.db.Create(user).Error)
}

// CreateWithProfile creates the user, its profile, and the back-reference
// in one transaction.
func (r *UserRepo) CreateWithProfile(user *entity.User, profile *entity.Profile) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.ProfileID = &profile.ID
		return tx.Model(&entity.User{}).Where("id = ?", user.ID).
			Update("profile_id", profile.ID).Error
	})
	return translateUniqueViolation(err)
}

// GetByID returns a user by id.
func (r *UserRepo) GetByID(id uint) (*entity.User, error) {
	var user entity.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns a user by email.
func (r *UserRepo) GetByEmail(email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByResetToken returns the user holding the given reset token.
func (r *UserRepo) GetByResetToken(token string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("reset_password_token = ? AND reset_password_token <> ''", token).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Update saves the full user record.
func (r *UserRepo) Update(user *entity.User) error {
	return translateUniqueViolation(r.db.Save(user).Error)
}

// UpdatePassword hashes and stores the new password with a direct SQL
// statement, bypassing the BeforeSave hook to avoid double hashing, and
// clears any pending reset token in the same statement.
func (r *UserRepo) UpdatePassword(userID uint, newPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[UserRepo.UpdatePassword] failed to hash password for user ID=%d: %v", userID, err)
		return err
	}

	result := r.db.Exec(
		"UPDATE users SET password = ?, reset_password_token = '', reset_password_expires = NULL, updated_at = ? WHERE id = ?",
		string(hashed), time.Now(), userID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SetResetToken stores a new reset token, overwriting any prior one.
func (r *UserRepo) SetResetToken(userID uint, token string, expires time.Time) error {
	return r.db.Model(&entity.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"reset_password_token":   token,
		"reset_password_expires": expires,
		"updated_at":             time.Now(),
	}).Error
}

// ClearResetToken removes a pending reset token without touching the
// password.
func (r *UserRepo) ClearResetToken(userID uint) error {
	return r.db.Model(&entity.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"reset_password_token":   "",
		"reset_password_expires": nil,
		"updated_at":             time.Now(),
	}).Error
}

// UpdateLastLogin stamps the last successful authentication.
func (r *UserRepo) UpdateLastLogin(userID uint, at time.Time) error {
	return r.db.Model(&entity.User{}).Where("id = ?", userID).
		Update("last_login_at", at).Error
}

// Delete removes the user and cascade-deletes its profile and provider
// identities in one transaction.
func (r *UserRepo) Delete(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&entity.Profile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&entity.UserIdentity{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.User{}, userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// translateUniqueViolation maps a Postgres unique-constraint violation
// (SQLSTATE 23505) onto ErrConflict.
func translateUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperrors.ErrConflict
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrConflict
	}
	return err
}
