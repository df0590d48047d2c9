package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/config"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/transport/http/handlers"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/transport/http/middleware"
)

// SessionService authenticates session cookies and ends sessions.
type SessionService interface {
	middleware.SessionAuthenticator
	handlers.SessionTerminator
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Sessions    SessionService
	Access      middleware.AccessChecker
	Policy      handlers.PolicyService
	ProbeGuard  *middleware.ProbeGuard
	HTTPMetrics *middleware.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Database    HealthChecker
	Cache       HealthChecker
}

// HealthChecker exposes readiness behaviour for a backing service.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.AppConfig{}
	}
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.HTTPMetrics.Handler())

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("postgres", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.Ping))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(metricsHandler(deps.Gatherer)))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.NewErrorResponse(c, "not found"))
	})

	if deps.Sessions == nil {
		return r
	}

	sessions := middleware.NewSessionMiddleware(deps.Sessions, cfg.Auth.SessionCookie, deps.Logger)

	api := r.Group("/api/v1")
	api.Use(deps.ProbeGuard.Handler())
	{
		sessionHandler := handlers.NewSessionHandler(deps.Sessions, sessions.CookieName(), cfg.Auth.CookieSecure)
		api.GET("/session", sessions.RequireSession(), sessionHandler.Current)
		api.DELETE("/session", sessionHandler.Logout)

		if deps.Policy != nil && deps.Access != nil {
			admin := api.Group("")
			admin.Use(sessions.RequireSession(), middleware.RequireAdmin(), middleware.Authorize(deps.Access, deps.Logger))
			handlers.NewPolicyHandler(deps.Policy).RegisterRoutes(admin)
		}
	}

	return r
}

func metricsHandler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
