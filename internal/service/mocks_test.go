package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/learndocs-api/internal/domain/entity"
)

// ============================================================================
// Shared repository and service mocks
// ============================================================================

// MockUserRepo implements repository.UserRepository.
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepo) CreateWithProfile(user *entity.User, profile *entity.Profile) error {
	args := m.Called(user, profile)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByResetToken(token string) (*entity.User, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) Update(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepo) UpdatePassword(userID uint, newPassword string) error {
	args := m.Called(userID, newPassword)
	return args.Error(0)
}

func (m *MockUserRepo) SetResetToken(userID uint, token string, expires time.Time) error {
	args := m.Called(userID, token, expires)
	return args.Error(0)
}

func (m *MockUserRepo) ClearResetToken(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockUserRepo) UpdateLastLogin(userID uint, at time.Time) error {
	args := m.Called(userID, at)
	return args.Error(0)
}

func (m *MockUserRepo) Delete(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

// MockProfileRepo implements repository.ProfileRepository.
type MockProfileRepo struct {
	mock.Mock
}

func (m *MockProfileRepo) Create(profile *entity.Profile) error {
	args := m.Called(profile)
	return args.Error(0)
}

func (m *MockProfileRepo) GetByUserID(userID uint) (*entity.Profile, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

// MockUserIdentityRepo implements repository.UserIdentityRepository.
type MockUserIdentityRepo struct {
	mock.Mock
}

func (m *MockUserIdentityRepo) Create(identity *entity.UserIdentity) error {
	args := m.Called(identity)
	return args.Error(0)
}

func (m *MockUserIdentityRepo) GetByProviderSub(provider, providerSub string) (*entity.UserIdentity, error) {
	args := m.Called(provider, providerSub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserIdentity), args.Error(1)
}

func (m *MockUserIdentityRepo) DeleteByUserID(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

// MockVerificationCodeRepo implements repository.VerificationCodeRepository.
type MockVerificationCodeRepo struct {
	mock.Mock
}

func (m *MockVerificationCodeRepo) Create(code *entity.VerificationCode) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockVerificationCodeRepo) GetByCode(code string) (*entity.VerificationCode, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.VerificationCode), args.Error(1)
}

func (m *MockVerificationCodeRepo) GetLatestByEmail(email string) (*entity.VerificationCode, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.VerificationCode), args.Error(1)
}

func (m *MockVerificationCodeRepo) DeleteByID(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockVerificationCodeRepo) DeleteByEmail(email string) error {
	args := m.Called(email)
	return args.Error(0)
}

func (m *MockVerificationCodeRepo) DeleteExpired(before time.Time) error {
	args := m.Called(before)
	return args.Error(0)
}

// MockStateRepo implements repository.OAuthStateRepository.
type MockStateRepo struct {
	mock.Mock
}

func (m *MockStateRepo) Save(state, provider string, ttl time.Duration) error {
	args := m.Called(state, provider, ttl)
	return args.Error(0)
}

func (m *MockStateRepo) Consume(state string) (string, error) {
	args := m.Called(state)
	return args.String(0), args.Error(1)
}

// MockEmailService implements EmailService.
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendVerificationCode(ctx context.Context, toEmail, code, idempotencyKey string) error {
	args := m.Called(ctx, toEmail, code, idempotencyKey)
	return args.Error(0)
}

func (m *MockEmailService) SendPasswordResetLink(ctx context.Context, toEmail, resetURL, idempotencyKey string) error {
	args := m.Called(ctx, toEmail, resetURL, idempotencyKey)
	return args.Error(0)
}

func (m *MockEmailService) SendPasswordChangedNotice(ctx context.Context, toEmail string) error {
	args := m.Called(ctx, toEmail)
	return args.Error(0)
}

// fakeProvider is a canned ProviderClient for federation tests.
type fakeProvider struct {
	name    string
	profile *ProviderProfile
	err     error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) AuthURL(state string) string {
	return "https://provider.example/auth?state=" + state
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (*ProviderProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}
