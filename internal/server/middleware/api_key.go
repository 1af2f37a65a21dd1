package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKey rejects requests whose x-api-key header does not match key. An empty
// key disables the check.
func APIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key != "" && c.GetHeader("x-api-key") != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "unauthorized",
			})
			return
		}
		c.Next()
	}
}
