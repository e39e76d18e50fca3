package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/learndocs-api/internal/domain/entity"
	"github.com/yourusername/learndocs-api/internal/domain/repository"
	apperrors "github.com/yourusername/learndocs-api/internal/pkg/errors"
	"github.com/yourusername/learndocs-api/pkg/auth"
)

const (
	minPasswordLength = 6
	resetTokenBytes   = 32
)

// SignUpInput carries the fields submitted on signup.
type SignUpInput struct {
	UserName        string
	Email           string
	Password        string
	ConfirmPassword string
	OTP             string
}

// AuthService implements the password-based account lifecycle: signup
// gated by an emailed code, login, password change and reset, and
// account removal.
type AuthService struct {
	userRepo      repository.UserRepository
	profileRepo   repository.ProfileRepository
	otpService    *OTPService
	jwtService    *auth.JWTService
	emailService  EmailService
	clientBaseURL string
	resetTokenTTL time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	otpService *OTPService,
	jwtService *auth.JWTService,
	emailService EmailService,
	clientBaseURL string,
	resetTokenTTL time.Duration,
) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if profileRepo == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	if otpService == nil {
		return nil, fmt.Errorf("otp service is required")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("jwt service is required")
	}
	if emailService == nil {
		return nil, fmt.Errorf("email service is required")
	}
	if resetTokenTTL <= 0 {
		resetTokenTTL = 15 * time.Minute
	}
	return &AuthService{
		userRepo:      userRepo,
		profileRepo:   profileRepo,
		otpService:    otpService,
		jwtService:    jwtService,
		emailService:  emailService,
		clientBaseURL: strings.TrimRight(clientBaseURL, "/"),
		resetTokenTTL: resetTokenTTL,
	}, nil
}

// SignUp validates the submitted fields, consumes the verification code,
// and creates the account with an empty profile. The returned token
// opens the first session, so a fresh signup does not need a separate
// login round trip.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*entity.User, string, error) {
	userName := strings.TrimSpace(input.UserName)
	email := normalizeEmail(input.Email)

	if userName == "" || email == "" || input.Password == "" || input.OTP == "" {
		return nil, "", fmt.Errorf("%w: all fields are required", apperrors.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", fmt.Errorf("%w: invalid email address", apperrors.ErrValidation)
	}
	if len(input.Password) < minPasswordLength {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minPasswordLength)
	}
	if input.Password != input.ConfirmPassword {
		return nil, "", fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrPasswordMismatch)
	}

	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, "", fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrEmailRegistered)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", err
	}

	if err := s.otpService.VerifyAndConsume(email, input.OTP); err != nil {
		return nil, "", err
	}

	user := &entity.User{
		UserName:       userName,
		Email:          email,
		Password:       input.Password,
		IsVerified:     true,
		Role:           entity.RoleUser,
		AuthProvider:   entity.ProviderLocal,
		ProfilePicture: initialsAvatarURL(userName),
	}
	profile := &entity.Profile{}

	if err := s.userRepo.CreateWithProfile(user, profile); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, "", fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrEmailRegistered)
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	log.Printf("[AuthService] User registered: ID=%d, Email=%s", user.ID, user.Email)
	return user, token, nil
}

// Login checks the credentials and opens a session. A federated account
// with no password on file fails the same way a wrong password does.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", apperrors.ErrNotFound
		}
		return nil, "", err
	}

	if !user.CheckPassword(password) {
		return nil, "", fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, ErrWrongPassword)
	}

	if err := s.userRepo.UpdateLastLogin(user.ID, time.Now()); err != nil {
		log.Printf("[AuthService] Failed to update last login for user ID=%d: %v", user.ID, err)
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}

	log.Printf("[AuthService] User logged in: ID=%d, Email=%s", user.ID, user.Email)
	return user, token, nil
}

// ChangePassword replaces the password of an authenticated user after
// re-checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword, confirmPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: old and new passwords are required", apperrors.ErrValidation)
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minPasswordLength)
	}
	if newPassword != confirmPassword {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrPasswordMismatch)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(oldPassword) {
		return fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, ErrWrongPassword)
	}

	if err := s.userRepo.UpdatePassword(userID, newPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.emailService.SendPasswordChangedNotice(ctx, user.Email); err != nil {
		log.Printf("[AuthService] Failed to send password changed notice to %s: %v", user.Email, err)
	}

	log.Printf("[AuthService] Password changed for user ID=%d", userID)
	return nil
}

// ForgotPassword issues a single-use reset token and mails the reset
// link. A fresh request overwrites any live token, so only the latest
// link works. When delivery fails the token is cleared again, leaving no
// live token the account owner never received.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return err
	}
	// Federated accounts have no password to reset. The handler answers
	// ErrNotFound with the same success shape as a real request.
	if !user.IsLocal() {
		return apperrors.ErrNotFound
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	expires := time.Now().Add(s.resetTokenTTL)

	if err := s.userRepo.SetResetToken(user.ID, token, expires); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.clientBaseURL, token)
	idempotencyKey := fmt.Sprintf("password-reset:%s", uuid.NewString())
	if err := s.emailService.SendPasswordResetLink(ctx, user.Email, resetURL, idempotencyKey); err != nil {
		log.Printf("[AuthService] Reset link delivery failed for user ID=%d, clearing token: %v", user.ID, err)
		if clearErr := s.userRepo.ClearResetToken(user.ID); clearErr != nil {
			log.Printf("[AuthService] Failed to clear undelivered reset token for user ID=%d: %v", user.ID, clearErr)
		}
		return fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailure, err)
	}

	log.Printf("[AuthService] Reset link issued for user ID=%d", user.ID)
	return nil
}

// ResetPassword redeems a reset token. The token expiry is checked here
// against the stored timestamp, and the repository clears the token in
// the same statement that writes the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return fmt.Errorf("%w: token and new password are required", apperrors.ErrValidation)
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minPasswordLength)
	}
	if newPassword != confirmPassword {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrPasswordMismatch)
	}

	user, err := s.userRepo.GetByResetToken(token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrInvalidOrExpired
		}
		return err
	}
	if !user.HasLiveResetToken(time.Now()) {
		return apperrors.ErrInvalidOrExpired
	}
	// A reset token must never put a password hash onto a federated
	// account.
	if !user.IsLocal() {
		return apperrors.ErrInvalidOrExpired
	}

	if err := s.userRepo.UpdatePassword(user.ID, newPassword); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	if err := s.emailService.SendPasswordChangedNotice(ctx, user.Email); err != nil {
		log.Printf("[AuthService] Failed to send password changed notice to %s: %v", user.Email, err)
	}

	log.Printf("[AuthService] Password reset completed for user ID=%d", user.ID)
	return nil
}

// DeleteAccount removes the user with its profile and provider links.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.userRepo.Delete(userID); err != nil {
		return err
	}
	log.Printf("[AuthService] Account deleted: user ID=%d", userID)
	return nil
}

// initialsAvatarURL builds a generated avatar seeded with the first
// character of the display name.
func initialsAvatarURL(userName string) string {
	seed := ""
	for _, r := range userName {
		seed = string(r)
		break
	}
	return fmt.Sprintf("https://api.dicebear.com/6.x/initials/svg?seed=%s", url.QueryEscape(seed))
}

func generateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
