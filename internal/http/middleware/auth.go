// README: Firebase ID-token auth middleware with role gating.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fleetops/internal/infra"
)

const (
	ContextUID   = "auth_uid"
	ContextEmail = "auth_email"
	ContextRole  = "auth_role"
)

// Auth verifies the Bearer token and stashes the caller's identity in the
// request context.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ContextUID, token.UID)
		if email, ok := token.Claims["email"].(string); ok {
			c.Set(ContextEmail, email)
		}
		if role, ok := token.Claims["role"].(string); ok {
			c.Set(ContextRole, role)
		}
		c.Next()
	}
}

// RequireRole gates a route group to one role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}

// CallerEmail returns the authenticated caller's email, or the UID when the
// token carried no email claim.
func CallerEmail(c *gin.Context) string {
	if email := c.GetString(ContextEmail); email != "" {
		return email
	}
	return c.GetString(ContextUID)
}
