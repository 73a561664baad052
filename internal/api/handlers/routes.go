package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fairweather/internal/core"
	"fairweather/internal/forecasts"
	"fairweather/internal/routing"
	"fairweather/internal/types"
)

// RouteAnalyzer evaluates the weather along a road route.
type RouteAnalyzer interface {
	Analyze(ctx context.Context, req routing.Request) (*routing.Analysis, error)
}

// RouteRequest is the body of POST /v1/routes/analyze. Departure defaults to
// the current time.
type RouteRequest struct {
	Origin      types.Location `json:"origin"`
	Destination types.Location `json:"destination"`
	Mode        string         `json:"mode" validate:"required,transport_mode"`
	Departure   *time.Time     `json:"departure,omitempty"`
}

// RouteHandler serves route weather analysis.
type RouteHandler struct {
	analyzer  RouteAnalyzer
	guard     *forecasts.RequestGuard
	validator *core.Validator
	clock     types.Clock
	logger    *slog.Logger
}

func NewRouteHandler(
	analyzer RouteAnalyzer,
	guard *forecasts.RequestGuard,
	val *core.Validator,
	clock types.Clock,
	logger *slog.Logger,
) *RouteHandler {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RouteHandler{
		analyzer:  analyzer,
		guard:     guard,
		validator: val,
		clock:     clock,
		logger:    logger,
	}
}

// RegisterRoutes mounts the route endpoints under /v1/routes.
func (h *RouteHandler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze", h.HandleAnalyze)
}

// HandleAnalyze handles POST /v1/routes/analyze.
func (h *RouteHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	mode, _ := types.ParseMode(req.Mode)
	departure := h.clock.Now()
	if req.Departure != nil {
		departure = *req.Departure
	}

	analysis, err := guarded(r, h.guard, "route", func(ctx context.Context) (*routing.Analysis, error) {
		return h.analyzer.Analyze(ctx, routing.Request{
			Origin:      req.Origin,
			Destination: req.Destination,
			Mode:        mode,
			Departure:   departure,
		})
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: analysis})
}
