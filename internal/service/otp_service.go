package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/learndocs-api/internal/domain/entity"
	"github.com/yourusername/learndocs-api/internal/domain/repository"
	apperrors "github.com/yourusername/learndocs-api/internal/pkg/errors"
)

const otpCollisionRetries = 5

// OTPService issues and consumes signup verification codes. A code is
// bound to the email it was requested for, lives for a fixed TTL from
// creation, and only the most recently issued code for an email can
// verify it.
type OTPService struct {
	userRepo     repository.UserRepository
	codeRepo     repository.VerificationCodeRepository
	emailService EmailService
	codeTTL      time.Duration
}

func NewOTPService(
	userRepo repository.UserRepository,
	codeRepo repository.VerificationCodeRepository,
	emailService EmailService,
	codeTTL time.Duration,
) (*OTPService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if codeRepo == nil {
		return nil, fmt.Errorf("verification code repository is required")
	}
	if emailService == nil {
		return nil, fmt.Errorf("email service is required")
	}
	if codeTTL <= 0 {
		codeTTL = 5 * time.Minute
	}
	return &OTPService{
		userRepo:     userRepo,
		codeRepo:     codeRepo,
		emailService: emailService,
		codeTTL:      codeTTL,
	}, nil
}

// RequestCode issues a fresh code for the email and delivers it. An email
// that already belongs to an account is refused before any code is
// created. When delivery fails the stored code is removed, so a code the
// requester never saw cannot verify a later signup.
func (s *OTPService) RequestCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}

	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrEmailRegistered)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	record, err := s.createUniqueCode(email)
	if err != nil {
		return err
	}

	// Best effort sweep of stale codes, piggybacked on issuance.
	if err := s.codeRepo.DeleteExpired(time.Now().Add(-s.codeTTL)); err != nil {
		log.Printf("[OTPService] Failed to sweep expired codes: %v", err)
	}

	idempotencyKey := fmt.Sprintf("signup-otp:%s", uuid.NewString())
	if err := s.emailService.SendVerificationCode(ctx, email, record.Code, idempotencyKey); err != nil {
		log.Printf("[OTPService] Delivery failed for %s, removing issued code: %v", email, err)
		if delErr := s.codeRepo.DeleteByID(record.ID); delErr != nil {
			log.Printf("[OTPService] Failed to remove undelivered code ID=%d: %v", record.ID, delErr)
		}
		return fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailure, err)
	}

	return nil
}

// VerifyAndConsume checks the submitted code against the latest code
// issued for the email and, on success, deletes every code for that
// email so the value cannot be replayed. Wrong code, superseded code,
// expired code, and no code at all are indistinguishable to the caller.
func (s *OTPService) VerifyAndConsume(email, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return apperrors.ErrInvalidOrExpired
	}

	record, err := s.codeRepo.GetLatestByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrInvalidOrExpired
		}
		return err
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		return apperrors.ErrInvalidOrExpired
	}
	if record.IsExpired(time.Now(), s.codeTTL) {
		return apperrors.ErrInvalidOrExpired
	}

	if err := s.codeRepo.DeleteByEmail(email); err != nil {
		return fmt.Errorf("failed to consume verification code: %w", err)
	}
	return nil
}

// createUniqueCode generates a code and retries on the rare value
// collision with a live code issued for another email.
func (s *OTPService) createUniqueCode(email string) (*entity.VerificationCode, error) {
	for attempt := 0; attempt < otpCollisionRetries; attempt++ {
		code, err := generateOTPCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate verification code: %w", err)
		}

		_, err = s.codeRepo.GetByCode(code)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}

		record := &entity.VerificationCode{
			Email: email,
			Code:  code,
		}
		if err := s.codeRepo.Create(record); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("failed to store verification code: %w", err)
		}
		return record, nil
	}
	return nil, fmt.Errorf("failed to generate a unique verification code")
}

func generateOTPCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
