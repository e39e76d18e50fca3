package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/learndocs-api/internal/handler/dto"
	"github.com/yourusername/learndocs-api/internal/middleware"
	apperrors "github.com/yourusername/learndocs-api/internal/pkg/errors"
	"github.com/yourusername/learndocs-api/internal/service"
	"github.com/yourusername/learndocs-api/pkg/auth"
)

// AuthHandler handles authentication requests.
type AuthHandler struct {
	authService   *service.AuthService
	otpService    *service.OTPService
	oauthService  *service.OAuthService
	jwtService    *auth.JWTService
	clientBaseURL string
	cookieSecure  bool
}

// NewAuthHandler creates a new authentication handler.
func NewAuthHandler(
	authService *service.AuthService,
	otpService *service.OTPService,
	oauthService *service.OAuthService,
	jwtService *auth.JWTService,
	clientBaseURL string,
	cookieSecure bool,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		otpService:    otpService,
		oauthService:  oauthService,
		jwtService:    jwtService,
		clientBaseURL: clientBaseURL,
		cookieSecure:  cookieSecure,
	}
}

// Request bodies.

// SendOTPRequest asks for a signup verification code.
type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SignUpRequest submits the signup form together with the emailed code.
type SignUpRequest struct {
	UserName        string `json:"userName" binding:"required,min=2,max=50"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	OTP             string `json:"otp" binding:"required,len=6"`
}

// LoginRequest submits credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest replaces the password of the current session user.
type ChangePasswordRequest struct {
	Password        string `json:"password" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// ForgotPasswordRequest asks for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest redeems a reset token.
type ResetPasswordRequest struct {
	Token           string `json:"resetPasswordToken" binding:"required"`
	NewPassword     string `json:"password" binding:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// SendOTP issues a signup verification code for the given email. The
// code itself only travels by email, never in the response.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := h.otpService.RequestCode(c.Request.Context(), req.Email); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verification code sent"})
}

// SignUp creates an account once the emailed code checks out and opens
// the first session.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	user, token, err := h.authService.SignUp(c.Request.Context(), service.SignUpInput{
		UserName:        req.UserName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		OTP:             req.OTP,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Account created",
		"token":   token,
		"user":    dto.NewSafeUser(user),
	})
}

// Login checks credentials and opens a session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password are indistinguishable to the
		// client.
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials", "error_type": "invalid_credentials"})
			return
		}
		h.respondError(c, err)
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged in",
		"token":   token,
		"user":    dto.NewSafeUser(user),
	})
}

// Logout clears the session cookie. Bearer tokens stay valid until they
// expire; logout only affects the cookie-carried session.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

// ChangePassword replaces the password of the authenticated user.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uint)
	if err := h.authService.ChangePassword(c.Request.Context(), userID, req.Password, req.NewPassword, req.ConfirmPassword); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed"})
}

// ForgotPassword issues a reset link. The response shape does not reveal
// whether the email belongs to an account.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	err := h.authService.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		h.respondError(c, err)
		return
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		log.Printf("[AuthHandler] Forgot password for unknown email")
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "If the email is registered, a reset link has been sent"})
}

// ResetPassword redeems a reset token and sets the new password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password has been reset"})
}

// OAuthRedirect starts the federation flow by redirecting to the
// provider's consent screen.
func (h *AuthHandler) OAuthRedirect(c *gin.Context) {
	authURL, err := h.oauthService.BeginAuth(c.Param("provider"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// OAuthCallback finishes the federation flow. On success the session
// cookie is set and the client is redirected with the token in the
// query; on failure the client lands on its error page.
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	provider := c.Param("provider")

	if errParam := c.Query("error"); errParam != "" {
		log.Printf("[AuthHandler] Provider %s denied authorization: %s", provider, errParam)
		c.Redirect(http.StatusTemporaryRedirect, h.clientErrorURL("provider_denied"))
		return
	}

	user, token, err := h.oauthService.HandleCallback(c.Request.Context(), provider, c.Query("state"), c.Query("code"))
	if err != nil {
		log.Printf("[AuthHandler] OAuth callback failed for provider %s: %v", provider, err)
		c.Redirect(http.StatusTemporaryRedirect, h.clientErrorURL("oauth_failed"))
		return
	}

	log.Printf("[AuthHandler] Federated login: user ID=%d via %s", user.ID, provider)
	h.setSessionCookie(c, token)
	c.Redirect(http.StatusTemporaryRedirect, fmt.Sprintf("%s/register?token=%s", h.clientBaseURL, url.QueryEscape(token)))
}

func (h *AuthHandler) clientErrorURL(reason string) string {
	return fmt.Sprintf("%s/register?error=%s", h.clientBaseURL, url.QueryEscape(reason))
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookieName, token, int(h.jwtService.TokenTTL().Seconds()), "/", "", h.cookieSecure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.cookieSecure, true)
}

// respondError maps service errors onto HTTP statuses with the shared
// response envelope.
func (h *AuthHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error(), "error_type": "validation"})
	case errors.Is(err, apperrors.ErrInvalidOrExpired):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Code or token is invalid or has expired", "error_type": "invalid_or_expired"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Email is already registered", "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized", "error_type": "unauthorized"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found", "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrDeliveryFailure):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Failed to deliver email, please try again", "error_type": "delivery_failure"})
	case errors.Is(err, service.ErrProviderDenied):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Provider rejected the request", "error_type": "provider_denied"})
	default:
		log.Printf("[AuthHandler] Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error", "error_type": "internal"})
	}
}
