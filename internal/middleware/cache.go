package middleware

import (
	"github.com/gin-gonic/gin"
)

// Cache-Control directives used by the quiz routes.
const (
	// CacheNoStore keeps answer keys and attempt data out of shared caches.
	CacheNoStore = "no-store"
	// CachePrivateRevalidate lets a browser keep the learner view but revalidate it.
	CachePrivateRevalidate = "private, no-cache"
)

// CacheControl sets the Cache-Control header for every response of the route group.
func CacheControl(directive string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", directive)
		c.Next()
	}
}
