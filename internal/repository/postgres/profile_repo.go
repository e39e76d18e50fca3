package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/learndocs-api/internal/domain/entity"
	apperrors "github.com/yourusername/learndocs-api/internal/pkg/errors"
)

// ProfileRepo implements repository.ProfileRepository.
type ProfileRepo struct {
	db *gorm.DB
}

// NewProfileRepo creates a new profile repository.
func NewProfileRepo(db *gorm.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Create inserts a new profile.
func (r *ProfileRepo) Create(profile *entity.Profile) error {
	return translateUniqueViolation(r.db.Create(profile).Error)
}

// GetByUserID returns the profile owned by the given user.
func (r *ProfileRepo) GetByUserID(userID uint) (*entity.Profile, error) {
	var profile entity.Profile
	if err := r.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}
