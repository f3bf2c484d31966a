package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace-chat/internal/auth"
)

// AuthMiddleware validates the Authorization header against the local token
// verifier and stashes the identity in the gin context.
func AuthMiddleware(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		identity, err := verifier.Verify(parts[1])
		if err != nil {
			status := gin.H{"error": "invalid token"}
			if errors.Is(err, auth.ErrExpiredToken) {
				status = gin.H{"error": "token expired"}
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, status)
			return
		}

		c.Set("userID", identity.ID)
		c.Set("username", identity.Username)
		c.Set("userRole", identity.Role)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated identity carries the
// given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userRole") != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}
