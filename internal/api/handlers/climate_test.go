package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"fairweather/internal/climate"
	"fairweather/internal/forecasts"
	"fairweather/internal/types"
)

type mockClimate struct {
	loc    types.Location
	week   int
	calls  int
	result *climate.Summary
	err    error
}

func (m *mockClimate) Summarize(_ context.Context, loc types.Location, week int) (*climate.Summary, error) {
	m.calls++
	m.loc, m.week = loc, week
	return m.result, m.err
}

func makeClimateRouter(svc ClimateSummarizer) http.Handler {
	h := NewClimateHandler(svc, forecasts.NewRequestGuard(), testLogger())
	return mountRouter("/v1/climate", func(r chi.Router) { h.RegisterRoutes(r) })
}

func TestHandleClimate_CurrentWeek(t *testing.T) {
	svc := &mockClimate{result: &climate.Summary{Week: 11}}
	rec := doRequest(makeClimateRouter(svc), http.MethodGet, "/v1/climate?lat=40.4&lon=-3.7", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.week != 0 {
		t.Errorf("expected week 0 (current), got %d", svc.week)
	}
	if svc.loc != (types.Location{Lat: 40.4, Lon: -3.7}) {
		t.Errorf("unexpected location %+v", svc.loc)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "private, max-age=3600" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

func TestHandleClimate_ExplicitWeek(t *testing.T) {
	svc := &mockClimate{result: &climate.Summary{Week: 32}}
	rec := doRequest(makeClimateRouter(svc), http.MethodGet, "/v1/climate?lat=40&lon=-3&week=32", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.week != 32 {
		t.Errorf("expected week 32, got %d", svc.week)
	}
}

func TestHandleClimate_InvalidWeek(t *testing.T) {
	for _, week := range []string{"0", "54", "x"} {
		t.Run(week, func(t *testing.T) {
			svc := &mockClimate{}
			rec := doRequest(makeClimateRouter(svc), http.MethodGet, "/v1/climate?lat=40&lon=-3&week="+week, "", nil)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
			if code := errorCode(t, rec); code != string(types.ErrCodeValidationInvalidTime) {
				t.Errorf("expected %s, got %s", types.ErrCodeValidationInvalidTime, code)
			}
			if svc.calls != 0 {
				t.Error("service must not be called for an invalid week")
			}
		})
	}
}

func TestHandleClimate_ArchiveUnavailable(t *testing.T) {
	svc := &mockClimate{err: types.NewAppError(types.ErrCodeUpstreamArchive, "archive unavailable", nil)}
	rec := doRequest(makeClimateRouter(svc), http.MethodGet, "/v1/climate?lat=40&lon=-3", "", nil)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", rec.Code)
	}
}
