package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Context keys set by the auth middlewares
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextIsStaff  = "is_staff"
)

// TokenValidator validates JWT tokens and loads the user a token was issued to
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// AuthMiddleware creates a middleware that rejects requests without a valid JWT
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing authorization header"})
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid authorization header format"})
			return
		}

		if !authenticate(c, validator, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through. A malformed or expired token is still rejected
// so clients notice stale credentials.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid authorization header format"})
			return
		}
		if !authenticate(c, validator, token) {
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id, if any
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// IsStaff reports whether the authenticated user is staff
func IsStaff(c *gin.Context) bool {
	return c.GetBool(ContextIsStaff)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" || strings.Contains(token, " ") {
		return "", false
	}
	return token, true
}

// authenticate validates token and stores the current state of its user in
// the context. Identity and staff status come from the database rather than
// the claims, so deleted users and revoked staff take effect at once.
func authenticate(c *gin.Context, validator TokenValidator, token string) bool {
	claims, err := validator.ValidateToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or expired token"})
		return false
	}

	user, err := validator.GetUserByID(c.Request.Context(), claims.UserID)
	if errors.Is(err, service.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "user not found"})
		return false
	}
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
		return false
	}

	c.Set(ContextUserID, user.ID)
	c.Set(ContextUsername, user.Username)
	c.Set(ContextIsStaff, user.IsStaff)
	return true
}
