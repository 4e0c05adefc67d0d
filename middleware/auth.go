package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/peochain/peochain-api/utils"
)

// APIKeyMiddleware gates the analytics endpoints behind a shared secret
// passed in the X-API-Key header. The waitlist signup flow itself stays
// anonymous; only reads are key-gated.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			utils.LogError("Analytics API key is not configured, rejecting request")
			utils.Unauthorized(c, "Analytics access is not configured")
			c.Abort()
			return
		}

		provided := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			utils.LogError("Invalid analytics API key from %s", c.ClientIP())
			utils.Unauthorized(c, "Invalid or missing API key")
			c.Abort()
			return
		}

		c.Next()
	}
}
