package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type APIKeyConfig struct {
	HeaderName  string
	ValidAPIKey string
	// QueryParam is read only for routes listed in QueryRoutes, since EventSource
	// cannot send custom headers.
	QueryParam  string
	QueryRoutes []string
}

// APIKeyMiddleware rejects requests without the configured key.
func APIKeyMiddleware(config APIKeyConfig) gin.HandlerFunc {
	queryRoutes := make(map[string]bool, len(config.QueryRoutes))
	for _, route := range config.QueryRoutes {
		queryRoutes[route] = true
	}

	return func(c *gin.Context) {
		apiKey := strings.TrimSpace(c.GetHeader(config.HeaderName))
		if apiKey == "" && config.QueryParam != "" && queryRoutes[c.FullPath()] {
			apiKey = strings.TrimSpace(c.Query(config.QueryParam))
		}

		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing API key",
			})
			return
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(config.ValidAPIKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid API key",
			})
			return
		}

		c.Next()
	}
}
