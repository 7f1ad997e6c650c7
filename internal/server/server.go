package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/company-summarizer/internal/config"
)

// Server wraps the HTTP server and its dependencies.
// In Go, you typically compose a struct with all the pieces your server needs,
// then wire them together in the constructor (New function).
type Server struct {
	cfg    config.StatusConfig
	router *gin.Engine
	logger *zap.Logger
	http   *http.Server
}

// New creates and configures a new Server. debug turns on gin's route logging.
func New(cfg config.StatusConfig, deps Deps, logger *zap.Logger, debug bool) *Server {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Recovery middleware catches panics and returns 500 instead of crashing.
	router.Use(gin.Recovery())

	RegisterRoutes(router, cfg, deps, logger)

	return &Server{
		cfg:    cfg,
		router: router,
		logger: logger,
		http: &http.Server{
			Addr:         cfg.Address,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start begins listening for HTTP requests. This blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("starting status server", zap.String("address", s.cfg.Address))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests to complete.
// context.Context is Go's way of handling cancellation and timeouts; you'll see it everywhere.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down status server")
	return s.http.Shutdown(ctx)
}

// Router returns the underlying Gin engine (useful for testing).
func (s *Server) Router() *gin.Engine {
	return s.router
}
