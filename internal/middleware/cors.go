package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const corsMaxAge = 12 * time.Hour

var corsAllowedHeaders = strings.Join([]string{
	"Origin",
	"Content-Type",
	"Content-Length",
	"Accept-Encoding",
	"Accept",
	"Cache-Control",
	"X-Requested-With",
}, ", ")

// CORS allows the marketing site's browser pages to call the relay endpoint
// cross-origin. An empty origins list allows any origin; tracking beacons
// arrive from wherever the pages are hosted.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	maxAge := strconv.Itoa(int(corsMaxAge.Seconds()))

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := resolveOrigin(origin, allowedOrigins)
		if allowed == "" {
			c.Next()
			return
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", allowed)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
		c.Writer.Header().Set("Access-Control-Max-Age", maxAge)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// resolveOrigin returns the origin value for the response header, or empty
// string if the origin is not allowed.
func resolveOrigin(origin string, allowedOrigins []string) string {
	// Same-origin requests carry no Origin header
	if origin == "" {
		return "*"
	}

	if len(allowedOrigins) == 0 {
		return "*"
	}

	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if allowed == origin {
			return origin
		}
	}

	return ""
}
