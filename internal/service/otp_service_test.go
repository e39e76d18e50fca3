package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/learndocs-api/internal/domain/entity"
	apperrors "github.com/yourusername/learndocs-api/internal/pkg/errors"
)

func newOTPService(t *testing.T, userRepo *MockUserRepo, codeRepo *MockVerificationCodeRepo, email *MockEmailService) *OTPService {
	t.Helper()
	svc, err := NewOTPService(userRepo, codeRepo, email, 5*time.Minute)
	require.NoError(t, err)
	return svc
}

func TestOTPService_RequestCode_Success(t *testing.T) {
	userRepo := new(MockUserRepo)
	codeRepo := new(MockVerificationCodeRepo)
	email := new(MockEmailService)
	svc := newOTPService(t, userRepo, codeRepo, email)

	userRepo.On("GetByEmail", "new@example.com").Return(nil, apperrors.ErrNotFound)
	codeRepo.On("GetByCode", mock.AnythingOfType("string")).Return(nil, apperrors.ErrNotFound)
	codeRepo.On("Create", mock.AnythingOfType("*entity.VerificationCode")).Return(nil)
	codeRepo.On("DeleteExpired", mock.AnythingOfType("time.Time")).Return(nil)
	email.On("SendVerificationCode", mock.Anything, "new@example.com", mock.MatchedBy(func(code string) bool {
		return len(code) == 6
	}), mock.AnythingOfType("string")).Return(nil)

	err := svc.RequestCode(context.Background(), "New@Example.com")

	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
	codeRepo.AssertExpectations(t)
	email.AssertExpectations(t)
}

func TestOTPService_RequestCode_RegisteredEmail(t *testing.T) {
	userRepo := new(MockUserRepo)
	codeRepo := new(MockVerificationCodeRepo)
	email := new(MockEmailService)
	svc := newOTPService(t, userRepo, codeRepo, email)

	userRepo.On("GetByEmail", "taken@example.com").Return(&entity.User{ID: 1, Email: "taken@example.com"}, nil)

	err := svc.RequestCode(context.Background(), "taken@example.com")

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	codeRepo.AssertNotCalled(t, "Create", mock.Anything)
	email.AssertNotCalled(t, "SendVerificationCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOTPService_RequestCode_DeliveryFailureRemovesCode(t *testing.T) {
	userRepo := new(MockUserRepo)
	codeRepo := new(MockVerificationCodeRepo)
	email := new(MockEmailService)
	svc := newOTPService(t, userRepo, codeRepo, email)

	userRepo.On("GetByEmail", "new@example.com").Return(nil, apperrors.ErrNotFound)
	codeRepo.On("GetByCode", mock.AnythingOfType("string")).Return(nil, apperrors.ErrNotFound)
	codeRepo.On("Create", mock.AnythingOfType("*entity.VerificationCode")).Run(func(args mock.Arguments) {
		args.Get(0).(*entity.VerificationCode).ID = 42
	}).Return(nil)
	codeRepo.On("DeleteExpired", mock.AnythingOfType("time.Time")).Return(nil)
	email.On("SendVerificationCode", mock.Anything, "new@example.com", mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))
	codeRepo.On("DeleteByID", uint(42)).Return(nil)

	err := svc.RequestCode(context.Background(), "new@example.com")

	assert.ErrorIs(t, err, apperrors.ErrDeliveryFailure)
	codeRepo.AssertCalled(t, "DeleteByID", uint(42))
}

func TestOTPService_VerifyAndConsume_Success(t *testing.T) {
	userRepo := new(MockUserRepo)
	codeRepo := new(MockVerificationCodeRepo)
	email := new(MockEmailService)
	svc := newOTPService(t, userRepo, codeRepo, email)

	codeRepo.On("GetLatestByEmail", "new@example.com").Return(&entity.VerificationCode{
		ID:        1,
		Email:     "new@example.com",
		Code:      "123456",
		CreatedAt: time.Now().Add(-1 * time.Minute),
	}, nil)
	codeRepo.On("DeleteByEmail", "new@example.com").Return(nil)

	err := svc.VerifyAndConsume("new@example.com", "123456")

	assert.NoError(t, err)
	codeRepo.AssertCalled(t, "DeleteByEmail", "new@example.com")
}

func TestOTPService_VerifyAndConsume_TTLBoundary(t *testing.T) {
	cases := []struct {
		name    string
		age     time.Duration
		wantErr bool
	}{
		{"just inside ttl", 4*time.Minute + 59*time.Second, false},
		{"just past ttl", 5*time.Minute + 1*time.Second, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			userRepo := new(MockUserRepo)
			codeRepo := new(MockVerificationCodeRepo)
			email := new(MockEmailService)
			svc := newOTPService(t, userRepo, codeRepo, email)

			codeRepo.On("GetLatestByEmail", "new@example.com").Return(&entity.VerificationCode{
				ID:        1,
				Email:     "new@example.com",
				Code:      "123456",
				CreatedAt: time.Now().Add(-tc.age),
			}, nil)
			if !tc.wantErr {
				codeRepo.On("DeleteByEmail", "new@example.com").Return(nil)
			}

			err := svc.VerifyAndConsume("new@example.com", "123456")

			if tc.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpired)
				codeRepo.AssertNotCalled(t, "DeleteByEmail", mock.Anything)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOTPService_VerifyAndConsume_WrongCode(t *testing.T) {
	userRepo := new(MockUserRepo)
	codeRepo := new(MockVerificationCodeRepo)
	email := new(MockEmailService)
	svc := newOTPService(t, userRepo, codeRepo, email)

	codeRepo.On("GetLatestByEmail", "new@example.com").Return(&entity.VerificationCode{
		ID:        1,
		Email:     "new@example.com",
		Code:      "123456",
		CreatedAt: time.Now(),
	}, nil)

	err := svc.VerifyAndConsume("new@example.com", "654321")

	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpired)
	codeRepo.AssertNotCalled(t, "DeleteByEmail", mock.Anything)
}

// A superseded code must not verify: only the latest issued code counts.
func TestOTPService_VerifyAndConsume_SupersededCode(t *testing.T) {
	userRepo := new(MockUserRepo)
	codeRepo := new(MockVerificationCodeRepo)
	email := new(MockEmailService)
	svc := newOTPService(t, userRepo, codeRepo, email)

	codeRepo.On("GetLatestByEmail", "new@example.com").Return(&entity.VerificationCode{
		ID:        2,
		Email:     "new@example.com",
		Code:      "222222",
		CreatedAt: time.Now(),
	}, nil)

	err := svc.VerifyAndConsume("new@example.com", "111111")

	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpired)
}

// After consumption there are no codes left, so a replay fails.
func TestOTPService_VerifyAndConsume_Replay(t *testing.T) {
	userRepo := new(MockUserRepo)
	codeRepo := new(MockVerificationCodeRepo)
	email := new(MockEmailService)
	svc := newOTPService(t, userRepo, codeRepo, email)

	codeRepo.On("GetLatestByEmail", "new@example.com").Return(nil, apperrors.ErrNotFound)

	err := svc.VerifyAndConsume("new@example.com", "123456")

	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpired)
}

func TestOTPService_VerifyAndConsume_EmptyInput(t *testing.T) {
	userRepo := new(MockUserRepo)
	codeRepo := new(MockVerificationCodeRepo)
	email := new(MockEmailService)
	svc := newOTPService(t, userRepo, codeRepo, email)

	assert.ErrorIs(t, svc.VerifyAndConsume("", "123456"), apperrors.ErrInvalidOrExpired)
	assert.ErrorIs(t, svc.VerifyAndConsume("new@example.com", ""), apperrors.ErrInvalidOrExpired)
}
