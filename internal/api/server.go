// Package api provides the HTTP API server for Stackyard. It exposes the
// reconciliation engine's operations as JSON endpoints for the platform's
// web layer and automation: current configuration, raw saves, reconcile,
// history, and stack status. No HTML, sessions, or CSRF live here.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"evalgo.org/stackyard/internal/config"
	"evalgo.org/stackyard/internal/reconcile"
	"evalgo.org/stackyard/internal/runtime"
	"evalgo.org/stackyard/internal/storage"
	"evalgo.org/stackyard/internal/validation"
)

// Server represents the Stackyard API server.
type Server struct {
	echo       *echo.Echo
	storage    *storage.Storage
	pipeline   *reconcile.Pipeline
	controller *runtime.Controller
	validator  *validation.Validator
	config     *config.Config
}

// debugLog logs a message only if debug mode is enabled in config
func (s *Server) debugLog(format string, args ...interface{}) {
	if s.config.Server.Debug {
		log.Printf(format, args...)
	}
}

// New creates a new API server instance. The controller may be nil when no
// Docker runtime is reachable; stack status endpoints then report 503.
func New(cfg *config.Config, store *storage.Storage, pipeline *reconcile.Pipeline, controller *runtime.Controller) *Server {
	e := echo.New()

	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Server.Debug

	e.HTTPErrorHandler = HTTPErrorHandler

	server := &Server{
		echo:       e,
		storage:    store,
		pipeline:   pipeline,
		controller: controller,
		validator:  validation.New(),
		config:     cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[${time_rfc3339}] ${status} ${method} ${uri} (${latency_human})\n",
	}))

	s.echo.Use(middleware.Recover())

	s.echo.Use(SecurityHeaders)

	if len(s.config.Security.AllowedOrigins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.config.Security.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "X-API-Key"},
		}))
	}

	s.echo.Use(middleware.RequestID())

	if s.config.Security.RateLimit > 0 {
		s.echo.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
			rate.Limit(s.config.Security.RateLimit),
		)))
	}

	s.echo.Use(ValidateContentType)
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	v1 := s.echo.Group("/api/v1", RequireAPIKey(s.config.Security.APIKeys))

	configs := v1.Group("/configs")
	configs.GET("/:target", s.getConfig)
	configs.PUT("/:target", s.saveRawConfig)
	configs.GET("/:target/history", s.getHistory)
	configs.GET("/:target/runs", s.getRuns)
	configs.POST("/:target/reconcile", s.reconcileConfig)
	configs.POST("/:target/materialize", s.materializeConfig)

	v1.POST("/validate/compose", s.validateCompose)

	stacks := v1.Group("/stacks")
	stacks.GET("/:stack/status", s.getStackStatus)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	fmt.Printf("Starting Stackyard API server\n")
	fmt.Printf("   Address: http://%s\n", addr)
	fmt.Printf("   Database: %s\n", s.config.CouchDB.Database)
	fmt.Printf("   Debug: %v\n", s.config.Server.Debug)

	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout

	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP makes the server usable with httptest. Used by tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// healthCheck reports process liveness and database reachability at the
// shallowest useful level.
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"database": s.config.CouchDB.Database,
	})
}
