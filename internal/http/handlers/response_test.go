package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// envelopeRouter stamps a request id and installs logger as the request
// logger, the way RequestID and Logger do in the real stack.
func envelopeRouter(logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-env")
		if logger != nil {
			c.Set("logger", logger)
		}
		c.Next()
	})
	return r
}

func TestFail_EnvelopeAndServerErrorLogging(t *testing.T) {
	cases := []struct {
		status int
		code   string
		msg    string
		logged bool
	}{
		{http.StatusUnprocessableEntity, ErrCodeDuplicateMessage, "already present", false},
		{http.StatusNotFound, ErrCodeNotFound, "route not found", false},
		{http.StatusInternalServerError, ErrCodeInternal, "store unavailable", true},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)
			r := envelopeRouter(&logger)
			r.POST("/collision/:operatorid", func(c *gin.Context) {
				Fail(c, tc.status, tc.code, tc.msg)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/collision/001", nil))

			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json: %v (%q)", err, w.Body.String())
			}
			if resp != (ErrorResponse{RequestID: "rid-env", Code: tc.code, Message: tc.msg}) {
				t.Fatalf("envelope = %+v", resp)
			}
			if logged := buf.Len() > 0; logged != tc.logged {
				t.Fatalf("logged = %v, want %v (%s)", logged, tc.logged, buf.String())
			}
			if tc.logged {
				var line map[string]any
				if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
					t.Fatalf("log json: %v", err)
				}
				if line["level"] != "error" || line["code"] != tc.code || line["status"] != float64(tc.status) {
					t.Fatalf("log line = %v", line)
				}
			}
		})
	}
}

func TestSuccessWriters(t *testing.T) {
	r := envelopeRouter(nil)
	r.POST("/collision/:operatorid", func(c *gin.Context) {
		ok(c, http.StatusCreated, CollisionIDResponse{ID: "c-1"})
	})
	r.GET("/collision/:id", func(c *gin.Context) { noContent(c) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/collision/001", nil))
	if w.Code != http.StatusCreated || w.Body.String() != `{"id":"c-1"}` {
		t.Fatalf("ok -> %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/collision/unknown", nil))
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("noContent -> %d %q", w.Code, w.Body.String())
	}
}

func TestAborted_StatusOnly(t *testing.T) {
	r := envelopeRouter(nil)
	r.GET("/collisions/:operatorid", func(c *gin.Context) { aborted(c) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/collisions/001", nil))
	if w.Code != 499 || w.Body.Len() != 0 {
		t.Fatalf("aborted -> %d %q", w.Code, w.Body.String())
	}
}

func TestClientGone(t *testing.T) {
	gin.SetMode(gin.TestMode)
	live := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gone := live.WithContext(ctx)

	cases := []struct {
		name string
		req  *http.Request
		err  error
		want bool
	}{
		{"store error", live, errors.New("connection refused"), false},
		{"wrapped cancel", live, errors.Join(errors.New("find"), context.Canceled), true},
		{"request context canceled", gone, errors.New("driver: bad connection"), true},
		{"deadline is not a client abort", live, context.DeadlineExceeded, false},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = tc.req
		if got := clientGone(c, tc.err); got != tc.want {
			t.Fatalf("%s: clientGone = %v, want %v", tc.name, got, tc.want)
		}
	}
}
