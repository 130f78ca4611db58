package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/relocrm/leadstack/internal/utils"
)

// UserMiddleware copies the acting user's id and email from the request headers into the gin context.
func UserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("UserId", firstHeader(c, utils.UserIdHeaders))
		c.Set("UserEmail", firstHeader(c, utils.UserEmailHeaders))
		c.Next()
	}
}

func firstHeader(c *gin.Context, headers []string) string {
	for _, header := range headers {
		if value := c.GetHeader(header); value != "" {
			return value
		}
	}
	return ""
}
