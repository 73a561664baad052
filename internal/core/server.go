// Package core provides the HTTP chassis for fairweather: a chi router with
// the cross-cutting middleware chain (recovery, deadlines, request IDs,
// logging, CORS, metrics, client identification), the JSON response and
// error envelope, request validation and the health endpoint. Domain handlers
// mount themselves through V1RouteRegistrars.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fairweather/internal/config"
)

// MetricsCollector records API request telemetry.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// Server holds the router and its injected dependencies.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Validator    *Validator
	Metrics      MetricsCollector
	Dependencies []Dependency

	// V1RouteRegistrars mount domain handlers under /v1. Populated by main
	// so core never imports handler packages.
	V1RouteRegistrars []func(chi.Router)

	// Closers run in order on Shutdown (connection pools, cache clients).
	Closers []func() error

	router *chi.Mux
}

// NewServer validates the required dependencies and prepares an empty
// router. Call MountRoutes after registering handlers.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases every registered resource. All closers run even when
// one fails; the errors are joined.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	var errs []error
	for _, closeFn := range s.Closers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := closeFn(); err != nil {
			s.Logger.Error("error closing resource", "error", err)
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("closing resources: %w", err)
	}

	s.Logger.Info("server shutdown complete")
	return nil
}
