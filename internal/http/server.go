// Package http provides the HTTP API for pillard.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pillard/internal/services"
)

const userIDHeader = "X-User-ID"

// Server provides HTTP endpoints for pillard.
type Server struct {
	echo     *echo.Echo
	registry services.Registry
	logger   *zap.Logger
	config   *Config
	limiter  *userLimiter
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// GenerateRPS and GenerateBurst rate-limit the generate endpoints
	// per user.
	GenerateRPS   float64
	GenerateBurst int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:          "localhost",
		Port:          9180,
		GenerateRPS:   1,
		GenerateBurst: 3,
	}
}

// NewServer creates a new HTTP server.
func NewServer(registry services.Registry, logger *zap.Logger, cfg *Config) (*Server, error) {
	if registry == nil {
		return nil, fmt.Errorf("service registry cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})
	e.Use(observeRequests)

	s := &Server{
		echo:     e,
		registry: registry,
		logger:   logger,
		config:   cfg,
		limiter:  newUserLimiter(cfg.GenerateRPS, cfg.GenerateBurst),
	}
	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1", s.requireUser)

	v1.POST("/samples", s.handleIngestSamples)

	// Generate endpoints are expensive; each full run recomputes every
	// engine, so they sit behind the per-user limiter.
	gen := v1.Group("", s.rateLimitGenerate)
	gen.POST("/analysis/run", s.handleRunAll)
	gen.POST("/correlations/generate", s.handleGenerateCorrelations)
	gen.POST("/insights/generate", s.handleGenerateInsights)
	gen.POST("/recommendations/generate", s.handleGenerateRecommendations)
	gen.POST("/predictions/generate", s.handleGeneratePredictions)
	gen.POST("/briefings/daily/generate", s.handleGenerateDailyBriefing)
	gen.POST("/reviews/weekly/generate", s.handleGenerateWeeklyReview)

	v1.GET("/correlations", s.handleListCorrelations)
	v1.GET("/insights", s.handleListInsights)
	v1.POST("/insights/:id/read", s.handleMarkInsightRead)
	v1.GET("/recommendations", s.handleListRecommendations)
	v1.PATCH("/recommendations/:id/status", s.handleUpdateRecommendationStatus)
	v1.GET("/predictions", s.handleListPredictions)
	v1.GET("/briefings/daily", s.handleGetDailyBriefing)
	v1.GET("/reviews/weekly", s.handleGetWeeklyReview)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
