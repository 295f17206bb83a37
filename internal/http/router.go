// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns:
// tracing, correlation IDs, structured logging, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Middleware ordering is deliberate: RequestID before logging so logs carry
// the correlation ID, recovery after logging so panics are captured with
// context, idempotency validation before rate limiting so replays bypass the
// limiter.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/up2d8/up2d8-backend/internal/config"
	"github.com/up2d8/up2d8-backend/internal/http/handlers"
	"github.com/up2d8/up2d8-backend/internal/http/middleware"
	"github.com/up2d8/up2d8-backend/internal/repo"
	"github.com/up2d8/up2d8-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and wires services to the database and the generative client.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, gen services.Generator, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// Trace all HTTP requests.
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// Correlate requests and logs.
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())

	// Global body size limit (1 MiB).
	r.Use(limitBody(1 << 20))

	// Prometheus metrics and /metrics endpoint.
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Idempotency validation before rate limiting so replays bypass it.
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, sessionID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, sessionID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// Token-bucket rate limiter per client IP.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// CORS posture: allow all when no origins are configured.
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
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
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and the request is HTTPS).
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks.
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness.
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← db/generator.
	userSvc := services.NewUserService(db)
	convSvc := services.NewConversationService(db, gen)
	fbSvc := services.NewFeedbackService(db)
	analyticsSvc := services.NewAnalyticsService(db)
	articleSvc := services.NewArticleService(db)
	h := handlers.New(userSvc, convSvc, fbSvc, analyticsSvc, articleSvc, db, cfg.IdempotencyTTL)

	// Public API.
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Users
		api.POST("/users", h.Subscribe)
		api.PUT("/users/:user_id", h.UpdateUser)
		api.GET("/users/:user_id/sessions", h.ListSessions)

		// Sessions and messages
		api.POST("/sessions", h.CreateSession)
		api.POST("/sessions/:session_id/messages", h.AppendMessage)
		api.GET("/sessions/:session_id/messages", h.ListMessages)

		// Feedback and analytics
		api.POST("/feedback", h.SubmitFeedback)
		api.POST("/analytics", h.RecordAnalytics)

		// Articles
		api.GET("/articles", h.ListArticles)
		api.GET("/articles/:article_id", h.GetArticle)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; oversized bodies error on read downstream.
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
