package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultCSP = "default-src 'none'; frame-ancestors 'none'"
	// Swagger UI page needs CDN assets + inline bootstrap script/style.
	swaggerCSP = "default-src 'self'; base-uri 'none'; frame-ancestors 'none'; object-src 'none'; connect-src 'self'; img-src 'self' data: https:; font-src 'self' https://unpkg.com data:; style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com"
)

// SecurityHeaders sets the browser hardening headers. Responses under
// /api/users also get Cache-Control: no-store unless a handler overrides it.
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("X-XSS-Protection", "0")
		if hsts {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}

		path := c.Request.URL.Path
		switch {
		case strings.HasPrefix(path, "/api/docs"):
			h.Set("Content-Security-Policy", swaggerCSP)
		case strings.HasPrefix(path, "/api/users"):
			h.Set("Content-Security-Policy", defaultCSP)
			h.Set("Cache-Control", "no-store")
		default:
			h.Set("Content-Security-Policy", defaultCSP)
		}
		c.Next()
	}
}
