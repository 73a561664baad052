// Package handlers maps the fairweather HTTP API onto the domain services:
// the activity catalog, assessments against the hourly forecast, pure rule
// evaluations, route analysis, climate summaries, forecast digests and
// favorite locations.
package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fairweather/internal/core"
	"fairweather/internal/forecasts"
	"fairweather/internal/types"
)

// parseLocation reads the required lat and lon query parameters.
func parseLocation(q url.Values) (types.Location, error) {
	lat, err := parseCoordinate(q, "lat", -90, 90, types.ErrCodeValidationInvalidLat)
	if err != nil {
		return types.Location{}, err
	}
	lon, err := parseCoordinate(q, "lon", -180, 180, types.ErrCodeValidationInvalidLon)
	if err != nil {
		return types.Location{}, err
	}
	return types.Location{Lat: lat, Lon: lon}, nil
}

func parseCoordinate(q url.Values, name string, lo, hi float64, code types.ErrorCode) (float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, types.NewAppErrorWithDetails(types.ErrCodeValidationMissingField,
			name+" query parameter is required", nil, map[string]any{"field": name})
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, types.NewAppError(code, name+" must be a valid number", nil)
	}
	if v < lo || v > hi {
		return 0, types.NewAppErrorWithDetails(code, name+" is out of range", nil,
			map[string]any{"min": lo, "max": hi})
	}
	return v, nil
}

// parseTime reads an optional RFC3339 query parameter.
func parseTime(q url.Values, name string) (time.Time, bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidTime,
			name+" must be an RFC3339 timestamp", nil, map[string]any{"field": name})
	}
	return t, true, nil
}

// guarded runs fn under latest-request-wins for key. A request superseded
// while running, or finishing after a newer one began, reports
// conflict_request_superseded instead of its own result.
func guarded[T any](r *http.Request, guard *forecasts.RequestGuard, resource string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	ctx, ticket := guard.Begin(r.Context(), core.SupersessionKey(r, resource))
	defer ticket.Done()

	v, err := fn(ctx)
	if err != nil {
		if !ticket.IsLatest() {
			return zero, supersededError(resource)
		}
		return zero, err
	}
	if !ticket.Commit(func() {}) {
		return zero, supersededError(resource)
	}
	return v, nil
}

func supersededError(resource string) error {
	return types.NewAppErrorWithDetails(types.ErrCodeConflictSuperseded,
		"a newer request replaced this one", nil, map[string]any{"resource": resource})
}
