// This file implements API version negotiation. Clients select a version
// with the api-version header (or the api-version query parameter); an absent
// value selects the default. Every response reports the supported versions so
// clients can discover them.

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderAPIVersion is the request header (and query key) selecting a version.
	HeaderAPIVersion = "api-version"
	// HeaderAPISupportedVersions is the response header listing versions.
	HeaderAPISupportedVersions = "api-supported-versions"

	ctxKeyAPIVersion = "api.version"
)

// APIVersion accepts requests for one of supported and rejects others with
// 400 unsupported_api_version. The first entry of supported is the default.
// "1" and "1.0" name the same version.
func APIVersion(supported ...string) gin.HandlerFunc {
	versions := make([]string, 0, len(supported))
	known := make(map[string]string, len(supported))
	for _, v := range supported {
		if v = normalizeVersion(v); v != "" {
			versions = append(versions, v)
			known[v] = v
		}
	}
	if len(versions) == 0 {
		versions = []string{"1.0"}
		known["1.0"] = "1.0"
	}
	report := strings.Join(versions, ", ")
	def := versions[0]

	return func(c *gin.Context) {
		c.Header(HeaderAPISupportedVersions, report)

		requested := c.GetHeader(HeaderAPIVersion)
		if requested == "" {
			requested = c.Query(HeaderAPIVersion)
		}
		if requested == "" {
			c.Set(ctxKeyAPIVersion, def)
			c.Next()
			return
		}

		v, ok := known[normalizeVersion(requested)]
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unsupported_api_version",
				"message":    "unsupported api-version " + requested + "; supported: " + report,
			})
			return
		}
		c.Set(ctxKeyAPIVersion, v)
		c.Next()
	}
}

// RequestedAPIVersion returns the version selected by APIVersion, or "".
func RequestedAPIVersion(c *gin.Context) string {
	v, _ := c.Get(ctxKeyAPIVersion)
	s, _ := v.(string)
	return s
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.Contains(v, ".") {
		v += ".0"
	}
	return v
}
