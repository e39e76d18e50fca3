package repository

import "github.com/yourusername/learndocs-api/internal/domain/entity"

// ProfileRepository persists per-account profiles.
type ProfileRepository interface {
	Create(profile *entity.Profile) error
	GetByUserID(userID uint) (*entity.Profile, error)
}
