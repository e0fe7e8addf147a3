package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityMiddleware sets response headers suited to a JSON-only API
type SecurityMiddleware struct {
	hsts bool
}

// NewSecurityMiddleware creates the middleware. HSTS is only sent outside development.
func NewSecurityMiddleware(isDevelopment bool) *SecurityMiddleware {
	return &SecurityMiddleware{hsts: !isDevelopment}
}

// GinSecurityHeaders adds the security headers to every response
func (sm *SecurityMiddleware) GinSecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	c.Header("Referrer-Policy", "no-referrer")
	// results change on every run
	c.Header("Cache-Control", "no-store")
	if sm.hsts {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
	c.Next()
}
