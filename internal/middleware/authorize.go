package middleware

import (
	"github.com/gin-gonic/gin"

	"harmonia/api/internal/models"
)

// RequireRoles runs after Authenticate.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(RejectMissingToken.Status, gin.H{"error": RejectMissingToken.Code})
			return
		}

		if !roleAllowed(identity.Role, roles) {
			c.AbortWithStatusJSON(RejectForbidden.Status, gin.H{"error": RejectForbidden.Code})
			return
		}

		c.Next()
	}
}
