package middleware

import (
	"github.com/gin-gonic/gin"

	"harmonia/api/internal/security"
)

const identityKey = "identity"

// Authenticate verifies the bearer token and stores the caller's identity on the
// context. It never touches the user store.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, rejection := Authorize(c.GetHeader("Authorization"), verifier)
		if rejection != nil {
			c.AbortWithStatusJSON(rejection.Status, gin.H{"error": rejection.Code})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) (security.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return security.Identity{}, false
	}
	identity, ok := v.(security.Identity)
	return identity, ok
}
