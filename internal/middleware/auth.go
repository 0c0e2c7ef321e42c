package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"healthcare-portal-server/internal/policy"
	"healthcare-portal-server/internal/utils"
)

const identityKey = "identity"

// AuthMiddleware creates a middleware for JWT authentication. A valid
// access token puts the caller's policy.Identity in the context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1], secret)
		if err != nil {
			utils.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}
		if claims.UserID == "" || !claims.Role.Valid() {
			utils.Unauthorized(c, "Invalid token claims")
			c.Abort()
			return
		}

		c.Set(identityKey, policy.Identity{UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// GetIdentityFromContext returns the caller set by AuthMiddleware.
func GetIdentityFromContext(c *gin.Context) (policy.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return policy.Identity{}, false
	}
	id, ok := value.(policy.Identity)
	return id, ok
}

// GetUserIDFromContext returns the caller's user ID.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	id, ok := GetIdentityFromContext(c)
	return id.UserID, ok
}
