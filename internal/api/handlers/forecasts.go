package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fairweather/internal/core"
	"fairweather/internal/forecasts"
	"fairweather/internal/types"
)

// ForecastHandler serves the forecast digest of a location.
type ForecastHandler struct {
	forecast ForecastSource
	guard    *forecasts.RequestGuard
	clock    types.Clock
	logger   *slog.Logger
}

func NewForecastHandler(forecast ForecastSource, guard *forecasts.RequestGuard, clock types.Clock, logger *slog.Logger) *ForecastHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastHandler{forecast: forecast, guard: guard, clock: clock, logger: logger}
}

// RegisterRoutes mounts the forecast endpoint under /v1/forecasts.
func (h *ForecastHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleSummary)
}

// HandleSummary handles GET /v1/forecasts?lat&lon.
func (h *ForecastHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	loc, err := parseLocation(r.URL.Query())
	if err != nil {
		core.Error(w, r, err)
		return
	}

	now := h.clock.Now()
	summary, err := guarded(r, h.guard, "forecast", func(ctx context.Context) (*forecasts.Summary, error) {
		series, err := h.forecast.Hourly(ctx, loc)
		if err != nil {
			return nil, err
		}
		return forecasts.Summarize(series, now)
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: summary,
		Meta: map[string]any{"location": loc, "generatedAt": now.UTC()},
	})
}
