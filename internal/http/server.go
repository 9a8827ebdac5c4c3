// Package http provides the HTTP API for adaptd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/adaptd/internal/adaptation"
	"github.com/fyrsmithlabs/adaptd/internal/feedback"
	"github.com/fyrsmithlabs/adaptd/internal/loop"
	"github.com/fyrsmithlabs/adaptd/internal/memory"
)

// Collector is the feedback ingestion surface the API exposes.
type Collector interface {
	Process(ctx context.Context, raw feedback.Raw) (*feedback.Item, error)
}

// Controller is the learning-loop surface the API exposes.
type Controller interface {
	RunCycle(ctx context.Context) (*loop.CycleResult, error)
	State() loop.State
}

// AdaptationReader fetches persisted adaptations for audit.
type AdaptationReader interface {
	GetAdaptation(ctx context.Context, id string) (*adaptation.Adaptation, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server provides HTTP endpoints for adaptd.
type Server struct {
	echo       *echo.Echo
	collector  Collector
	controller Controller
	store      AdaptationReader
	logger     *zap.Logger
	config     *Config
}

// NewServer creates the API server.
func NewServer(collector Collector, controller Controller, store AdaptationReader, logger *zap.Logger, cfg *Config) (*Server, error) {
	if collector == nil {
		return nil, fmt.Errorf("collector cannot be nil")
	}
	if controller == nil {
		return nil, fmt.Errorf("controller cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8086}
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
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:       e,
		collector:  collector,
		controller: controller,
		store:      store,
		logger:     logger,
		config:     cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/feedback", s.handleFeedback)
	v1.POST("/cycle", s.handleCycle)
	v1.GET("/state", s.handleState)
	v1.GET("/adaptations/:id", s.handleAdaptation)
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("http server starting", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying echo instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StateResponse is the body of GET /api/v1/state.
type StateResponse struct {
	Cycle               int                     `json:"cycle"`
	PerformanceHistory  []loop.PerformancePoint `json:"performance_history"`
	CurrentLearningRate float64                 `json:"current_learning_rate"`
	ExplorationMode     bool                    `json:"exploration_mode"`
	ActiveAdaptations   []string                `json:"active_adaptations"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleFeedback ingests one raw feedback object.
func (s *Server) handleFeedback(c echo.Context) error {
	var raw feedback.Raw
	if err := c.Bind(&raw); err != nil {
		s.logger.Warn("invalid feedback request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	item, err := s.collector.Process(c.Request().Context(), raw)
	if err != nil {
		if errors.Is(err, feedback.ErrMissingSource) ||
			errors.Is(err, feedback.ErrMissingContent) ||
			errors.Is(err, feedback.ErrMissingTimestamp) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("feedback processing failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process feedback")
	}

	return c.JSON(http.StatusCreated, item)
}

// handleCycle triggers one learning cycle synchronously. A cycle
// already in progress yields 409 rather than queuing.
func (s *Server) handleCycle(c echo.Context) error {
	result, err := s.controller.RunCycle(c.Request().Context())
	if err != nil {
		if errors.Is(err, loop.ErrCycleInProgress) {
			return echo.NewHTTPError(http.StatusConflict, "cycle already in progress")
		}
		s.logger.Error("learning cycle failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "learning cycle failed")
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleState(c echo.Context) error {
	st := s.controller.State()
	return c.JSON(http.StatusOK, StateResponse{
		Cycle:               st.Cycle,
		PerformanceHistory:  st.PerformanceHistory,
		CurrentLearningRate: st.CurrentLearningRate,
		ExplorationMode:     st.ExplorationMode,
		ActiveAdaptations:   st.ActiveIDs(),
	})
}

// handleAdaptation fetches one adaptation for audit, rejected ones
// included.
func (s *Server) handleAdaptation(c echo.Context) error {
	id := c.Param("id")
	a, err := s.store.GetAdaptation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, memory.ErrAdaptationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "adaptation not found")
		}
		s.logger.Error("adaptation fetch failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch adaptation")
	}
	return c.JSON(http.StatusOK, a)
}
