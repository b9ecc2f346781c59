package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures HTTP security headers emitted by SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS   bool          // set true only when traffic is HTTPS end-to-end
	HSTSMaxAge   time.Duration // defaults to 180 days
	NoStore      bool          // add Cache-Control: no-store
	EnablePolicy bool          // include Permissions-Policy, etc.
}

// exposedHeaders are response headers browser clients need to read: the
// correlation ID, the created/canceled resource location, the API version
// report and the idempotent-replay marker.
var exposedHeaders = []string{
	requestIDHeader,
	"Location",
	HeaderAPISupportedVersions,
	"Idempotency-Replayed",
}

// SecurityHeaders returns a Gin middleware that adds security headers to each
// response.
//
// Always: X-Content-Type-Options, X-Frame-Options, Referrer-Policy, and the
// exposedHeaders merged into Access-Control-Expose-Headers. Optionally:
// Permissions-Policy (EnablePolicy), no-store cache headers (NoStore) and
// Strict-Transport-Security (EnableHSTS on HTTPS requests).
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		h.Set("Access-Control-Expose-Headers", mergeHeaderList(h.Get("Access-Control-Expose-Headers"), exposedHeaders))

		c.Next()
	}
}

// mergeHeaderList appends names missing from the comma-separated list cur,
// compared case-insensitively, preserving existing order.
func mergeHeaderList(cur string, names []string) string {
	var parts []string
	seen := map[string]bool{}
	for _, p := range strings.Split(cur, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
			seen[strings.ToLower(p)] = true
		}
	}
	for _, n := range names {
		if !seen[strings.ToLower(n)] {
			parts = append(parts, n)
			seen[strings.ToLower(n)] = true
		}
	}
	return strings.Join(parts, ", ")
}

// isHTTPS reports whether the incoming request used HTTPS either directly
// (r.TLS != nil) or via a reverse proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
