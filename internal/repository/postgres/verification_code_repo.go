package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/learndocs-api/internal/domain/entity"
	apperrors "github.com/yourusername/learndocs-api/internal/pkg/errors"
)

// VerificationCodeRepo implements repository.VerificationCodeRepository.
type VerificationCodeRepo struct {
	db *gorm.DB
}

// NewVerificationCodeRepo creates a new verification code repository.
func NewVerificationCodeRepo(db *gorm.DB) *VerificationCodeRepo {
	return &VerificationCodeRepo{db: db}
}

// Create inserts a new code. The unique index on code backs up the
// issuance-time collision check.
func (r *VerificationCodeRepo) Create(code *entity.VerificationCode) error {
	return translateUniqueViolation(r.db.Create(code).Error)
}

// GetByCode returns the live row holding the given code value.
func (r *VerificationCodeRepo) GetByCode(code string) (*entity.VerificationCode, error) {
	var record entity.VerificationCode
	if err := r.db.Where("code = ?", code).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetLatestByEmail returns the most recently issued code for the email.
// Ordering by created_at then id keeps the winner deterministic when two
// codes land on the same timestamp.
func (r *VerificationCodeRepo) GetLatestByEmail(email string) (*entity.VerificationCode, error) {
	var record entity.VerificationCode
	err := r.db.Where("email = ?", email).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// DeleteByID removes a single code row.
func (r *VerificationCodeRepo) DeleteByID(id uint) error {
	return r.db.Delete(&entity.VerificationCode{}, id).Error
}

// DeleteByEmail removes every code issued for the email.
func (r *VerificationCodeRepo) DeleteByEmail(email string) error {
	return r.db.Where("email = ?", email).Delete(&entity.VerificationCode{}).Error
}

// DeleteExpired removes codes created before the cutoff.
func (r *VerificationCodeRepo) DeleteExpired(before time.Time) error {
	return r.db.Where("created_at < ?", before).Delete(&entity.VerificationCode{}).Error
}
