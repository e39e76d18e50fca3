package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/learndocs-api/internal/domain/entity"
	apperrors "github.com/yourusername/learndocs-api/internal/pkg/errors"
)

// UserIdentityRepo implements repository.UserIdentityRepository.
type UserIdentityRepo struct {
	db *gorm.DB
}

// NewUserIdentityRepo creates a new provider-identity repository.
func NewUserIdentityRepo(db *gorm.DB) *UserIdentityRepo {
	return &UserIdentityRepo{db: db}
}

// Create inserts a provider link. The composite unique index on
// (provider, provider_sub) makes a concurrent duplicate an ErrConflict.
func (r *UserIdentityRepo) Create(identity *entity.UserIdentity) error {
	return translateUniqueViolation(r.db.Create(identity).Error)
}

// GetByProviderSub returns the link for a provider subject id.
func (r *UserIdentityRepo) GetByProviderSub(provider, providerSub string) (*entity.UserIdentity, error) {
	var identity entity.UserIdentity
	err := r.db.Where("provider = ? AND provider_sub = ?", provider, providerSub).
		First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &identity, nil
}

// DeleteByUserID removes every provider link owned by the user.
func (r *UserIdentityRepo) DeleteByUserID(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&entity.UserIdentity{}).Error
}
