package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/relocrm/leadstack/internal/utils"
)

// CustomContextMiddleware stamps appSource and the user set by UserMiddleware onto the
// request context, where services and published events read them.
func CustomContextMiddleware(appSource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(utils.WithCustomContextFromGinRequest(c, appSource))
		c.Next()
	}
}
