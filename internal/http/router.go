// Package httpapi wires the Gin transport of the notify API: the ingestion
// endpoints upstream producers write to, outbox inspection for operators,
// and health, readiness, metrics and (optionally) Swagger.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: request-scoped logger, scrubbed access log
//  4. Recovery: capture panics after the logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before the rate limiter so replays bypass it)
//  8. Rate limiter (per caller or IP)
//  9. CORS and security headers
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/climetry/go-notify-backend/docs"
	"github.com/climetry/go-notify-backend/internal/config"
	"github.com/climetry/go-notify-backend/internal/domain"
	"github.com/climetry/go-notify-backend/internal/http/handlers"
	"github.com/climetry/go-notify-backend/internal/http/middleware"
	"github.com/climetry/go-notify-backend/internal/repo"
	"github.com/climetry/go-notify-backend/internal/services"
)

// maxBodyBytes caps request bodies; ingestion payloads are small documents.
const maxBodyBytes = 1 << 20

// ingestScopes maps ingestion routes (relative to the API base path) to the
// collection their idempotency keys live in.
var ingestScopes = map[string]string{
	"/friend-requests":   domain.CollectionFriendRequests,
	"/event-invitations": domain.CollectionEventInvitations,
	"/activity-updates":  domain.CollectionActivityUpdates,
	"/notifications":     domain.CollectionNotifications,
	"/activities":        domain.CollectionActivities,
}

// RegisterRoutes attaches all middleware and endpoints to r.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	apiBase := cfg.APIBasePath
	if apiBase == "/" {
		apiBase = ""
	}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key", "X-FCM-Token"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
			Scope: func(c *gin.Context) string {
				if c.Request.Method != http.MethodPost {
					return ""
				}
				return ingestScopes[strings.TrimPrefix(c.FullPath(), apiBase)]
			},
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			_, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			switch {
			case errors.Is(err, repo.ErrNotFound):
				return false, nil
			case err != nil:
				return false, err
			}
			return true, nil
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).
		Exempt("/health", "/ready", "/metrics")
	r.Use(rl.Handler())

	useCORS(r, cfg.CORS.AllowedOrigins)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
		Expose:       []string{middleware.HeaderIdempotencyReplayed},
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/ready", readiness(db))

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(
		services.NewIngestService(db, cfg.IdempotencyTTL),
		services.NewOutboxService(db),
	)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.PUT("/users/:id", h.PutUser)

		api.POST("/friend-requests", h.CreateFriendRequest)
		api.POST("/event-invitations", h.CreateEventInvitation)
		api.POST("/activity-updates", h.CreateActivityUpdate)
		api.POST("/notifications", h.CreateNotification)
		api.POST("/activities", h.CreateActivity)
		api.DELETE("/activities/:id", h.DeleteActivity)

		// Outbox records carry device tokens: compressed, never cached.
		outbox := api.Group("/outbox",
			gzip.Gzip(gzip.DefaultCompression),
			middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true}),
		)
		outbox.GET("", h.ListOutbox)
		outbox.GET("/stats", h.OutboxStats)
		outbox.GET("/:id", h.GetOutbox)
	}
}

// useCORS installs gin-contrib/cors. Without an allowlist every origin is
// allowed and ACAO is forced to "*" even for requests without Origin;
// otherwise allowed origins are echoed.
func useCORS(r *gin.Engine, origins []string) {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", middleware.HeaderIdempotencyReplayed},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		base.AllowAllOrigins = true
		r.Use(cors.New(base))
		return
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	base.AllowOrigins = origins
	r.Use(cors.New(base))
}

// readiness reports 503 while the database cannot be reached. The watchers
// and the dispatcher are useless without it.
func readiness(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("readiness check failed")
			handlers.Fail(c, http.StatusServiceUnavailable, handlers.ErrCodeUnavailable, "database unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// limitBody caps the request body at maxBytes; reads past it fail.
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
