package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securedResponse(t *testing.T, opt SecurityOptions, prep func(*gin.Context), req *http.Request) http.Header {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if prep != nil {
		r.Use(func(c *gin.Context) { prep(c); c.Next() })
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/collisions/alerts/:operatorid", func(c *gin.Context) { c.String(http.StatusOK, "[]") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func alertsRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/collisions/alerts/001", nil)
}

func TestSecurityHeaders_Defaults(t *testing.T) {
	h := securedResponse(t, SecurityOptions{}, nil, alertsRequest())

	for k, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := h.Get(k); got != want {
			t.Fatalf("%s = %q, want %q", k, got, want)
		}
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Pragma", "Strict-Transport-Security"} {
		if got := h.Get(k); got != "" {
			t.Fatalf("%s should be unset, got %q", k, got)
		}
	}
	want := "X-Request-ID, Location, api-supported-versions, Idempotency-Replayed"
	if got := h.Get("Access-Control-Expose-Headers"); got != want {
		t.Fatalf("expose headers = %q, want %q", got, want)
	}
}

func TestSecurityHeaders_ExposeListMergesWithCORS(t *testing.T) {
	// cors sets its own expose list before this middleware runs
	h := securedResponse(t, SecurityOptions{}, func(c *gin.Context) {
		c.Header("Access-Control-Expose-Headers", "Content-Length, location")
	}, alertsRequest())

	got := h.Get("Access-Control-Expose-Headers")
	if !strings.HasPrefix(got, "Content-Length, location, X-Request-ID") {
		t.Fatalf("existing entries should stay first: %q", got)
	}
	if strings.Count(strings.ToLower(got), "location") != 1 {
		t.Fatalf("Location duplicated: %q", got)
	}
}

func TestSecurityHeaders_NoStoreAndPolicy(t *testing.T) {
	h := securedResponse(t, SecurityOptions{NoStore: true, EnablePolicy: true}, nil, alertsRequest())

	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("alert listings must not be cached: %#v", h)
	}
	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %#v", h)
	}
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	viaTLS := alertsRequest()
	viaTLS.TLS = &tls.ConnectionState{}
	viaProxy := alertsRequest()
	viaProxy.Header.Set("X-Forwarded-Proto", "HTTPS")

	cases := []struct {
		name string
		opt  SecurityOptions
		req  *http.Request
		want string
	}{
		{"plain http", SecurityOptions{EnableHSTS: true}, alertsRequest(), ""},
		{"disabled", SecurityOptions{HSTSMaxAge: time.Hour}, viaTLS, ""},
		{"tls with max age", SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour}, viaTLS, "max-age=86400; includeSubDomains; preload"},
		{"proxy with default max age", SecurityOptions{EnableHSTS: true}, viaProxy, "max-age=15552000; includeSubDomains; preload"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := securedResponse(t, tc.opt, nil, tc.req)
			if got := h.Get("Strict-Transport-Security"); got != tc.want {
				t.Fatalf("HSTS = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMergeHeaderList(t *testing.T) {
	cases := []struct {
		cur   string
		names []string
		want  string
	}{
		{"", []string{"Location", "X-Request-ID"}, "Location, X-Request-ID"},
		{"location", []string{"Location", "X-Request-ID"}, "location, X-Request-ID"},
		{" Content-Length ,, Location", []string{"api-supported-versions"}, "Content-Length, Location, api-supported-versions"},
		{"Location", nil, "Location"},
	}
	for _, tc := range cases {
		if got := mergeHeaderList(tc.cur, tc.names); got != tc.want {
			t.Errorf("mergeHeaderList(%q, %v) = %q, want %q", tc.cur, tc.names, got, tc.want)
		}
	}
}
