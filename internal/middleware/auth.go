// Package middleware contains Gin middleware for the status server.
// Middleware in Gin is a handler that runs before (or after) your route handler.
// It calls c.Next() to proceed or c.Abort() to stop the chain.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// contextKeyAPIKey is where APIKeyAuth stores the caller's key.
const contextKeyAPIKey = "api_key"

// APIKeyAuth returns middleware that validates API keys sent in the
// X-API-Key header or the api_key query param. With no keys configured the
// status API is open, which is the usual setup when it only listens on
// localhost.
//
// Go closures: this function returns a function. The outer function captures
// `keySet` in its closure, so the returned handler has access to it.
func APIKeyAuth(validKeys []string) gin.HandlerFunc {
	if len(validKeys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	// Go doesn't have a built-in Set type, so we use map[string]struct{}.
	keySet := make(map[string]struct{}, len(validKeys))
	for _, k := range validKeys {
		keySet[k] = struct{}{}
	}

	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = c.Query("api_key")
		}

		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing API key",
			})
			return
		}

		if _, ok := keySet[key]; !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid API key",
			})
			return
		}

		// gin.Context is like a request-scoped key-value store.
		c.Set(contextKeyAPIKey, key)
		c.Next()
	}
}
