package repository

import "github.com/yourusername/learndocs-api/internal/domain/entity"

// UserIdentityRepository stores external provider links for accounts.
type UserIdentityRepository interface {
	Create(identity *entity.UserIdentity) error
	GetByProviderSub(provider, providerSub string) (*entity.UserIdentity, error)
	DeleteByUserID(userID uint) error
}
