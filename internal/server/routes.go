// Package server configures the optional HTTP status server and its routes.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fleveque/company-summarizer/internal/config"
	"github.com/fleveque/company-summarizer/internal/handler"
	"github.com/fleveque/company-summarizer/internal/metrics"
	"github.com/fleveque/company-summarizer/internal/middleware"
)

// Deps holds what the handlers read from. The status server never changes
// the run; it only observes it.
type Deps struct {
	Progress handler.SnapshotSource
	Metrics  *metrics.Metrics
}

// RegisterRoutes sets up all HTTP routes on the Gin engine.
// In Go, we pass dependencies explicitly. There is no DI container.
// Each handler gets exactly the dependencies it needs.
func RegisterRoutes(r *gin.Engine, cfg config.StatusConfig, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	progressHandler := handler.NewProgressHandler(deps.Progress, logger)

	// Public endpoints (no auth)
	r.GET("/healthz", healthHandler.Healthz)
	if deps.Metrics != nil {
		// gin.WrapH adapts a plain net/http handler to a gin handler.
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	// CORS middleware applies to the entire API group.
	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.AllowedOrigins))

	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RequestsPerSecond, cfg.Burst))
	{
		authed.GET("/progress", progressHandler.Progress)
		authed.GET("/progress/companies/:name", progressHandler.Company)
	}
}
