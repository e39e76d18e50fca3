package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/learndocs-api/internal/domain/entity"
	"github.com/yourusername/learndocs-api/internal/middleware"
	apperrors "github.com/yourusername/learndocs-api/internal/pkg/errors"
	"github.com/yourusername/learndocs-api/internal/service"
	"github.com/yourusername/learndocs-api/pkg/auth"
)

// Minimal testify mocks for the repositories the handler flows touch.

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(user *entity.User) error { return m.Called(user).Error(0) }
func (m *mockUserRepo) CreateWithProfile(user *entity.User, profile *entity.Profile) error {
	return m.Called(user, profile).Error(0)
}
func (m *mockUserRepo) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}
func (m *mockUserRepo) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}
func (m *mockUserRepo) GetByResetToken(token string) (*entity.User, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}
func (m *mockUserRepo) Update(user *entity.User) error { return m.Called(user).Error(0) }
func (m *mockUserRepo) UpdatePassword(userID uint, newPassword string) error {
	return m.Called(userID, newPassword).Error(0)
}
func (m *mockUserRepo) SetResetToken(userID uint, token string, expires time.Time) error {
	return m.Called(userID, token, expires).Error(0)
}
func (m *mockUserRepo) ClearResetToken(userID uint) error { return m.Called(userID).Error(0) }
func (m *mockUserRepo) UpdateLastLogin(userID uint, at time.Time) error {
	return m.Called(userID, at).Error(0)
}
func (m *mockUserRepo) Delete(userID uint) error { return m.Called(userID).Error(0) }

type mockProfileRepo struct{ mock.Mock }

func (m *mockProfileRepo) Create(profile *entity.Profile) error { return m.Called(profile).Error(0) }
func (m *mockProfileRepo) GetByUserID(userID uint) (*entity.Profile, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

type mockCodeRepo struct{ mock.Mock }

func (m *mockCodeRepo) Create(code *entity.VerificationCode) error { return m.Called(code).Error(0) }
func (m *mockCodeRepo) GetByCode(code string) (*entity.VerificationCode, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.VerificationCode), args.Error(1)
}
func (m *mockCodeRepo) GetLatestByEmail(email string) (*entity.VerificationCode, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.VerificationCode), args.Error(1)
}
func (m *mockCodeRepo) DeleteByID(id uint) error         { return m.Called(id).Error(0) }
func (m *mockCodeRepo) DeleteByEmail(email string) error { return m.Called(email).Error(0) }
func (m *mockCodeRepo) DeleteExpired(t time.Time) error  { return m.Called(t).Error(0) }

type handlerFixture struct {
	userRepo    *mockUserRepo
	profileRepo *mockProfileRepo
	codeRepo    *mockCodeRepo
	router      *gin.Engine
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userRepo := new(mockUserRepo)
	profileRepo := new(mockProfileRepo)
	codeRepo := new(mockCodeRepo)
	emailService := &service.NoopEmailService{}

	jwtService, err := auth.NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)

	otpService, err := service.NewOTPService(userRepo, codeRepo, emailService, 5*time.Minute)
	require.NoError(t, err)

	authService, err := service.NewAuthService(userRepo, profileRepo, otpService, jwtService, emailService, "https://app.example.com", 15*time.Minute)
	require.NoError(t, err)

	oauthService, err := service.NewOAuthService(userRepo, new(mockIdentityRepo), new(mockStateRepo), jwtService, nil)
	require.NoError(t, err)

	h := NewAuthHandler(authService, otpService, oauthService, jwtService, "https://app.example.com", false)

	router := gin.New()
	router.POST("/auth/send-otp", h.SendOTP)
	router.POST("/auth/signup", h.SignUp)
	router.POST("/auth/login", h.Login)
	router.POST("/auth/logout", h.Logout)
	router.POST("/auth/forgot-password", h.ForgotPassword)
	router.POST("/auth/reset-password", h.ResetPassword)

	return &handlerFixture{userRepo: userRepo, profileRepo: profileRepo, codeRepo: codeRepo, router: router}
}

type mockIdentityRepo struct{ mock.Mock }

func (m *mockIdentityRepo) Create(identity *entity.UserIdentity) error {
	return m.Called(identity).Error(0)
}
func (m *mockIdentityRepo) GetByProviderSub(provider, sub string) (*entity.UserIdentity, error) {
	args := m.Called(provider, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserIdentity), args.Error(1)
}
func (m *mockIdentityRepo) DeleteByUserID(userID uint) error { return m.Called(userID).Error(0) }

type mockStateRepo struct{ mock.Mock }

func (m *mockStateRepo) Save(state, provider string, ttl time.Duration) error {
	return m.Called(state, provider, ttl).Error(0)
}
func (m *mockStateRepo) Consume(state string) (string, error) {
	args := m.Called(state)
	return args.String(0), args.Error(1)
}

func postJSON(router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSendOTP_InvalidEmail(t *testing.T) {
	f := newHandlerFixture(t)

	w := postJSON(f.router, "/auth/send-otp", gin.H{"email": "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// The issued code must never appear in the response body.
func TestSendOTP_CodeNotLeaked(t *testing.T) {
	f := newHandlerFixture(t)

	var issuedCode string
	f.userRepo.On("GetByEmail", "new@example.com").Return(nil, apperrors.ErrNotFound)
	f.codeRepo.On("GetByCode", mock.Anything).Return(nil, apperrors.ErrNotFound)
	f.codeRepo.On("Create", mock.AnythingOfType("*entity.VerificationCode")).Run(func(args mock.Arguments) {
		issuedCode = args.Get(0).(*entity.VerificationCode).Code
	}).Return(nil)
	f.codeRepo.On("DeleteExpired", mock.Anything).Return(nil)

	w := postJSON(f.router, "/auth/send-otp", gin.H{"email": "new@example.com"})

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, issuedCode)
	assert.NotContains(t, w.Body.String(), issuedCode)
}

func TestSignUp_SetsCookieAndRedactsSecrets(t *testing.T) {
	f := newHandlerFixture(t)

	f.userRepo.On("GetByEmail", "alice@example.com").Return(nil, apperrors.ErrNotFound)
	f.codeRepo.On("GetLatestByEmail", "alice@example.com").Return(&entity.VerificationCode{
		ID: 1, Email: "alice@example.com", Code: "123456", CreatedAt: time.Now(),
	}, nil)
	f.codeRepo.On("DeleteByEmail", "alice@example.com").Return(nil)
	f.userRepo.On("CreateWithProfile", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(0).(*entity.User).ID = 7
	}).Return(nil)

	w := postJSON(f.router, "/auth/signup", gin.H{
		"userName":        "alice",
		"email":           "alice@example.com",
		"password":        "secret123",
		"confirmPassword": "secret123",
		"otp":             "123456",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "secret123")
	assert.NotContains(t, w.Body.String(), "password")

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLogin_InvalidCredentialsIndistinguishable(t *testing.T) {
	f := newHandlerFixture(t)

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	f.userRepo.On("GetByEmail", "ghost@example.com").Return(nil, apperrors.ErrNotFound)
	f.userRepo.On("GetByEmail", "alice@example.com").Return(&entity.User{
		ID: 7, Email: "alice@example.com", Password: string(hashed),
	}, nil)

	unknown := postJSON(f.router, "/auth/login", gin.H{"email": "ghost@example.com", "password": "whatever1"})
	wrongPass := postJSON(f.router, "/auth/login", gin.H{"email": "alice@example.com", "password": "whatever1"})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.JSONEq(t, unknown.Body.String(), wrongPass.Body.String())
}

func TestLogout_ClearsCookie(t *testing.T) {
	f := newHandlerFixture(t)

	w := postJSON(f.router, "/auth/logout", gin.H{})

	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

// Unknown emails get the same success-shaped answer as known ones.
func TestForgotPassword_DoesNotRevealAccountExistence(t *testing.T) {
	f := newHandlerFixture(t)

	f.userRepo.On("GetByEmail", "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	w := postJSON(f.router, "/auth/forgot-password", gin.H{"email": "ghost@example.com"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	f.userRepo.AssertNotCalled(t, "SetResetToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPassword_UnknownToken(t *testing.T) {
	f := newHandlerFixture(t)

	f.userRepo.On("GetByResetToken", "ghost-token").Return(nil, apperrors.ErrNotFound)

	w := postJSON(f.router, "/auth/reset-password", gin.H{
		"resetPasswordToken": "ghost-token",
		"password":           "newsecret",
		"confirmPassword":    "newsecret",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_or_expired")
}
