package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/learndocs-api/internal/domain/repository"
	"github.com/yourusername/learndocs-api/internal/handler/dto"
	"github.com/yourusername/learndocs-api/internal/middleware"
	apperrors "github.com/yourusername/learndocs-api/internal/pkg/errors"
	"github.com/yourusername/learndocs-api/internal/service"
)

// UserHandler handles requests about the current user.
type UserHandler struct {
	userRepo     repository.UserRepository
	profileRepo  repository.ProfileRepository
	authService  *service.AuthService
	cookieSecure bool
}

func NewUserHandler(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	authService *service.AuthService,
	cookieSecure bool,
) *UserHandler {
	return &UserHandler{
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		authService:  authService,
		cookieSecure: cookieSecure,
	}
}

// GetMe returns the session user with its profile.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// The account backing this session is gone.
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Session user no longer exists", "error_type": "session_invalidated"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	response := gin.H{"success": true, "user": dto.NewSafeUser(user)}
	if profile, err := h.profileRepo.GetByUserID(userID); err == nil {
		response["profile"] = dto.NewProfileResponse(profile)
	}

	c.JSON(http.StatusOK, response)
}

// DeleteMe removes the session user's account and closes the session.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	if err := h.authService.DeleteAccount(c.Request.Context(), userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found", "error_type": "not_found"})
			return
		}
		log.Printf("[UserHandler] Failed to delete account for user ID=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Account deleted"})
}
