package repository

import (
	"time"

	"github.com/yourusername/learndocs-api/internal/domain/entity"
)

// VerificationCodeRepository persists one-time signup codes.
type VerificationCodeRepository interface {
	Create(code *entity.VerificationCode) error
	// GetByCode is used at issuance time to guarantee a code is unique
	// among live rows before inserting it.
	GetByCode(code string) (*entity.VerificationCode, error)
	// GetLatestByEmail returns the most recently issued code for the
	// email, ties broken by highest id so the result is deterministic.
	GetLatestByEmail(email string) (*entity.VerificationCode, error)
	DeleteByID(id uint) error
	// DeleteByEmail removes every code for the email, consumed or not.
	DeleteByEmail(email string) error
	// DeleteExpired removes codes created before the cutoff.
	DeleteExpired(before time.Time) error
}
