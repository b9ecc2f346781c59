// Package httpapi mounts the collision API and its middleware on a Gin engine.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-collision-alerts/docs"
	"github.com/tbourn/go-collision-alerts/internal/config"
	"github.com/tbourn/go-collision-alerts/internal/http/handlers"
	"github.com/tbourn/go-collision-alerts/internal/http/middleware"
	"github.com/tbourn/go-collision-alerts/internal/repo"
	"github.com/tbourn/go-collision-alerts/internal/services"
)

var (
	corsMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsHeaders = []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		middleware.HeaderIdempotencyKey, middleware.HeaderAPIVersion,
	}
	corsExpose = []string{
		"X-Request-ID", "Content-Length", "Location",
		middleware.HeaderAPISupportedVersions,
	}
)

// RegisterRoutes mounts middleware, operational endpoints (/health, /metrics,
// /swagger) and the collision API under cfg.APIBasePath. idem may be nil,
// which disables Idempotency-Key replay.
//
// RequestID runs before Logger so every access line carries the id, and
// Recovery runs inside Logger so a panic still produces one. The idempotency
// check precedes the rate limiter so replays do not spend tokens.
func RegisterRoutes(r *gin.Engine, store repo.CollisionStore, idem *repo.IdempotencyStore, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		limitBody(1<<20),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
		middleware.Metrics("/metrics", "/health"),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var idemStore handlers.IdempotencyStore
	var lookup middleware.IdempotencyLookup
	if idem != nil {
		idemStore = idem
		lookup = func(ctx context.Context, operatorID, key string, now time.Time) (bool, error) {
			_, err := idem.Get(ctx, operatorID, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		}
	}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, lookup))
	r.Use(middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByOperatorOrIP()).Handler())

	r.Use(corsHandlers(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	svc := services.NewCollisionService(store)
	svc.AlertThreshold = cfg.AlertMinProbability
	h := handlers.New(svc, idemStore, cfg.APIBasePath)

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.APIVersion(cfg.APIVersions...))
	api.GET("/collisions/:operatorid", h.ListCollisions)
	api.GET("/collisions/alerts/:operatorid", h.ListAlerts)
	api.GET("/collision/:id", h.GetCollision)
	api.POST("/collision/:operatorid", h.PostCollision)
	api.PATCH("/collision/:operatorid", h.PatchCollision)
}

// corsHandlers allows any origin when origins is empty, echoing "*" even on
// requests without an Origin header. Otherwise only listed origins are
// echoed back, with Vary: Origin. Credentials are never allowed.
func corsHandlers(origins []string) []gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    corsExpose,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cc),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	cc.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cc),
	}
}

// limitBody caps request bodies at maxBytes; reads past the cap fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
