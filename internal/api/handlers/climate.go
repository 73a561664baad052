package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fairweather/internal/climate"
	"fairweather/internal/core"
	"fairweather/internal/forecasts"
	"fairweather/internal/types"
)

// ClimateSummarizer builds the weekly climate summary of a location.
type ClimateSummarizer interface {
	Summarize(ctx context.Context, loc types.Location, week int) (*climate.Summary, error)
}

// ClimateHandler serves historical trends.
type ClimateHandler struct {
	climate ClimateSummarizer
	guard   *forecasts.RequestGuard
	logger  *slog.Logger
}

func NewClimateHandler(svc ClimateSummarizer, guard *forecasts.RequestGuard, logger *slog.Logger) *ClimateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClimateHandler{climate: svc, guard: guard, logger: logger}
}

// RegisterRoutes mounts the climate endpoint under /v1/climate.
func (h *ClimateHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleSummary)
}

// HandleSummary handles GET /v1/climate?lat&lon[&week].
func (h *ClimateHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc, err := parseLocation(q)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	week := 0
	if raw := q.Get("week"); raw != "" {
		week, err = strconv.Atoi(raw)
		if err != nil || week < 1 || week > 53 {
			core.Error(w, r, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidTime,
				"week must be between 1 and 53", nil, map[string]any{"week": raw}))
			return
		}
	}

	summary, err := guarded(r, h.guard, "climate", func(ctx context.Context) (*climate.Summary, error) {
		return h.climate.Summarize(ctx, loc, week)
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: summary})
}
