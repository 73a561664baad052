package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fairweather/internal/activities"
	"fairweather/internal/core"
	"fairweather/internal/forecasts"
	"fairweather/internal/types"
)

// ForecastSource returns the hourly forecast for a location.
type ForecastSource interface {
	Hourly(ctx context.Context, loc types.Location) (*types.HourlySeries, error)
}

// AssessmentHandler evaluates the caller's activities at one location.
type AssessmentHandler struct {
	forecast ForecastSource
	catalog  CatalogService
	advisor  *activities.Advisor
	guard    *forecasts.RequestGuard
	logger   *slog.Logger
}

func NewAssessmentHandler(
	forecast ForecastSource,
	catalog CatalogService,
	advisor *activities.Advisor,
	guard *forecasts.RequestGuard,
	logger *slog.Logger,
) *AssessmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssessmentHandler{
		forecast: forecast,
		catalog:  catalog,
		advisor:  advisor,
		guard:    guard,
		logger:   logger,
	}
}

// RegisterRoutes mounts the assessment endpoint under /v1/assessments.
func (h *AssessmentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleAssess)
}

// HandleAssess handles GET /v1/assessments.
//
// Query: lat, lon (required); mode=now|scheduled (default now); at (RFC3339,
// required when scheduled); activity (optional, restricts to one ID).
// A newer assessment from the same caller supersedes this one.
func (h *AssessmentHandler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc, err := parseLocation(q)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	mode := types.ScheduleNow
	if raw := q.Get("mode"); raw != "" {
		mode = types.ScheduleMode(raw)
		if !mode.IsValid() {
			core.Error(w, r, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidMode,
				"mode must be now or scheduled", nil, map[string]any{"mode": raw}))
			return
		}
	}
	at, hasAt, err := parseTime(q, "at")
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if mode == types.ScheduleScheduled && !hasAt {
		core.Error(w, r, types.NewAppErrorWithDetails(types.ErrCodeValidationMissingField,
			"at is required in scheduled mode", nil, map[string]any{"field": "at"}))
		return
	}

	acts, err := h.activities(r, q.Get("activity"))
	if err != nil {
		core.Error(w, r, err)
		return
	}

	report, err := guarded(r, h.guard, "assessment", func(ctx context.Context) (activities.Report, error) {
		series, err := h.forecast.Hourly(ctx, loc)
		if err != nil {
			return activities.Report{}, err
		}
		return h.advisor.Assess(series, acts, mode, at), nil
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: report,
		Meta: map[string]any{"location": loc, "generatedAt": time.Now().UTC()},
	})
}

func (h *AssessmentHandler) activities(r *http.Request, id string) ([]types.Activity, error) {
	owner := types.GetClientID(r.Context())
	if id != "" {
		a, err := h.catalog.Get(r.Context(), owner, id)
		if err != nil {
			return nil, err
		}
		return []types.Activity{*a}, nil
	}
	if owner == "" {
		return h.catalog.Presets(), nil
	}
	return h.catalog.List(r.Context(), owner)
}
