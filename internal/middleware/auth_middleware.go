package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/learndocs-api/internal/domain/entity"
	"github.com/yourusername/learndocs-api/internal/domain/repository"
	apperrors "github.com/yourusername/learndocs-api/internal/pkg/errors"
	"github.com/yourusername/learndocs-api/pkg/auth"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "token"

// AuthMiddleware guards protected routes with bearer-token sessions.
type AuthMiddleware struct {
	jwtService *auth.JWTService
	userRepo   repository.UserRepository
}

func NewAuthMiddleware(jwtService *auth.JWTService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService, userRepo: userRepo}
}

// RequireAuth authenticates the request. The token is looked up in the
// session cookie first, then in a "token" field of a JSON body, then in
// the Authorization header. After signature validation the account is
// re-fetched, so tokens issued before an account was deleted stop
// working. Puts user_id, email, and role into the gin context; email and
// role come from the store, not the token, so role changes take effect
// on the next request.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication token missing", "error_type": "token_missing"})
			c.Abort()
			return
		}

		claims, err := m.jwtService.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			c.Abort()
			return
		}

		user, err := m.userRepo.GetByID(claims.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Session user no longer exists", "error_type": "session_invalidated"})
				c.Abort()
				return
			}
			log.Printf("[AuthMiddleware] Failed to load user ID=%d: %v", claims.UserID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal"})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("email", user.Email)
		c.Set("role", user.Role)
		c.Next()
	}
}

// AdminOnly rejects requests whose session role is not admin. Must be
// applied after RequireAuth.
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
			c.Abort()
			return
		}
		if role.(string) != entity.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin rights required", "error_type": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	if token := tokenFromBody(c); token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	return ""
}

// tokenFromBody reads a "token" field out of a JSON body and restores
// the body so handlers can still bind it.
func tokenFromBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	contentType := c.ContentType()
	if contentType != "" && contentType != "application/json" {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Token)
}
