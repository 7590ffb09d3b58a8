// Package middleware provides Gin HTTP middleware for authentication, rate
// limiting, security headers, request IDs, and metrics.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Recovery → RequestID → Metrics → Logger → CORS → Security → (RateLimit → Auth per group) → Handler
//
// Security headers run early so they appear on all responses including errors.
// Rate limiting runs before auth on the login endpoints to block brute-force
// attempts before any bcrypt work. Auth populates the principal identity that
// write handlers and the audit emitter read from the request context.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grcplatform/grc-backend/internal/auth"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

// RequireAuth validates the Bearer JWT and loads the principal into the
// request context. Requests without a valid token are rejected with 401 before
// any handler (and therefore any store write) runs.
func RequireAuth(userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must start with 'Bearer '",
			})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is empty",
			})
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		user, err := userRepo.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
			})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID.String())
		c.Set("organization_id", user.OrganizationID.String())

		c.Next()
	}
}

// OptionalAuth - same as RequireAuth but continues without a principal when no
// valid token is presented. Used on read routes so the audit trail can
// attribute reads when a session happens to be present.
func OptionalAuth(userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.Next()
			return
		}

		if claims, err := auth.ValidateJWT(token); err == nil {
			if userID, err := uuid.Parse(claims.UserID); err == nil {
				user, err := userRepo.GetByID(c.Request.Context(), userID)
				if err == nil && user != nil {
					c.Set("user", user)
					c.Set("user_id", user.ID.String())
					c.Set("organization_id", user.OrganizationID.String())
				}
			}
		}

		c.Next()
	}
}
