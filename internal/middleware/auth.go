package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "finanzas/internal/errors"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
)

// AuthMiddleware verifies the JWT access token and sets the user in the context
func AuthMiddleware(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		// Refresh and reset tokens fail here because of their token_type.
		claims, err := tokens.ValidateAccessToken(parts[1])
		if err != nil {
			abortWithError(c, apperrors.ErrInvalidToken)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

// AdminChecker reports whether a user currently holds the admin role.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RequireAdmin rejects requests whose user is not an admin. The role is read
// from the store on every request so demotions apply immediately.
func RequireAdmin(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if userID == "" {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		ok, err := checker.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if !ok {
			abortWithError(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
