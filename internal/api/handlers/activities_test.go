package handlers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"fairweather/internal/activities"
	"fairweather/internal/types"
)

func makeActivityRouter(cat *mockCatalog) http.Handler {
	h := NewActivityHandler(cat, testValidator(), testLogger())
	return mountRouter("/v1/activities", func(r chi.Router) { h.RegisterRoutes(r) })
}

func TestHandleListActivities_AnonymousGetsPresets(t *testing.T) {
	cat := &mockCatalog{
		presets: activities.DefaultPresets(),
		listed:  []types.Activity{{ID: "should-not-appear"}},
	}
	rec := doRequest(makeActivityRouter(cat), http.MethodGet, "/v1/activities", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got []types.Activity
	decodeData(t, rec, &got)
	if len(got) != 3 || got[0].ID != "moto" {
		t.Errorf("expected the three presets, got %+v", got)
	}
}

func TestHandleListActivities_WithClient(t *testing.T) {
	cat := &mockCatalog{listed: []types.Activity{{ID: "moto"}, {ID: "custom_1"}}}
	rec := doRequest(makeActivityRouter(cat), http.MethodGet, "/v1/activities", "device-1", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got []types.Activity
	decodeData(t, rec, &got)
	if len(got) != 2 || got[1].ID != "custom_1" {
		t.Errorf("unexpected list: %+v", got)
	}
}

func TestHandleListActivities_RepositoryError(t *testing.T) {
	cat := &mockCatalog{listErr: types.NewAppError(types.ErrCodeInternalDB, "boom", nil)}
	rec := doRequest(makeActivityRouter(cat), http.MethodGet, "/v1/activities", "device-1", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
}

func TestHandleListActivities_MalformedClientID(t *testing.T) {
	rec := doRequest(makeActivityRouter(&mockCatalog{}), http.MethodGet, "/v1/activities", "not valid!", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(types.ErrCodeValidationInvalidValue) {
		t.Errorf("expected %s, got %s", types.ErrCodeValidationInvalidValue, code)
	}
}

func TestHandleGetActivity(t *testing.T) {
	cat := &mockCatalog{getResult: &types.Activity{ID: "custom_1", Label: "Padel"}}
	rec := doRequest(makeActivityRouter(cat), http.MethodGet, "/v1/activities/custom_1", "device-1", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if cat.getOwner != "device-1" {
		t.Errorf("expected owner device-1, got %q", cat.getOwner)
	}
}

func TestHandleGetActivity_NotFound(t *testing.T) {
	cat := &mockCatalog{getErr: types.NewAppError(types.ErrCodeNotFoundActivity, "activity not found", nil)}
	rec := doRequest(makeActivityRouter(cat), http.MethodGet, "/v1/activities/nope", "device-1", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(types.ErrCodeNotFoundActivity) {
		t.Errorf("expected not_found_activity, got %s", code)
	}
}

func TestHandleCreateActivity(t *testing.T) {
	cat := &mockCatalog{createResult: &types.Activity{ID: "custom_1", Label: "Padel"}}
	body := map[string]any{
		"label":           "Padel",
		"icon":            "tennis",
		"durationMinutes": 60,
		"rules":           map[string]any{"mode": "standard", "tempMin": 10},
	}
	rec := doRequest(makeActivityRouter(cat), http.MethodPost, "/v1/activities", "device-1", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if cat.createOwner != "device-1" {
		t.Errorf("expected owner device-1, got %q", cat.createOwner)
	}
	if cat.createInput.Rules.TempMin == nil || *cat.createInput.Rules.TempMin != 10 {
		t.Errorf("expected tempMin 10 to reach the catalog, got %+v", cat.createInput.Rules)
	}
}

func TestHandleCreateActivity_RequiresClientID(t *testing.T) {
	body := map[string]any{"label": "Padel", "durationMinutes": 60}
	rec := doRequest(makeActivityRouter(&mockCatalog{}), http.MethodPost, "/v1/activities", "", body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(types.ErrCodeValidationMissingField) {
		t.Errorf("expected missing field, got %s", code)
	}
}

func TestHandleCreateActivity_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body any
		code types.ErrorCode
	}{
		{"missing label", map[string]any{"durationMinutes": 60}, types.ErrCodeValidationMissingField},
		{"zero duration", map[string]any{"label": "X", "durationMinutes": 0}, types.ErrCodeValidationInvalidValue},
		{"too long", map[string]any{"label": "X", "durationMinutes": 2000}, types.ErrCodeValidationInvalidValue},
		{"unknown field", map[string]any{"label": "X", "durationMinutes": 5, "colour": "red"}, "validation_invalid_json"},
		{"not json", "{", "validation_invalid_json"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cat := &mockCatalog{}
			rec := doRequest(makeActivityRouter(cat), http.MethodPost, "/v1/activities", "device-1", tc.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
			if code := errorCode(t, rec); code != string(tc.code) {
				t.Errorf("expected %s, got %s", tc.code, code)
			}
			if cat.createOwner != "" {
				t.Error("catalog must not be called for an invalid body")
			}
		})
	}
}

func TestHandleCreateActivity_InvalidRules(t *testing.T) {
	cat := &mockCatalog{createErr: types.NewAppError(types.ErrCodeValidationInvalidRuleSpec, "rule spec is invalid", nil)}
	body := map[string]any{"label": "Ski", "durationMinutes": 60, "rules": map[string]any{"mode": "standard", "tempMin": 5, "tempMax": -5}}
	rec := doRequest(makeActivityRouter(cat), http.MethodPost, "/v1/activities", "device-1", body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(types.ErrCodeValidationInvalidRuleSpec) {
		t.Errorf("expected invalid rule spec, got %s", code)
	}
}

func TestHandleUpdateActivity(t *testing.T) {
	cat := &mockCatalog{updateResult: &types.Activity{ID: "custom_1", Label: "Padel doubles"}}
	body := map[string]any{"label": "Padel doubles", "durationMinutes": 90, "rules": map[string]any{"mode": "walk"}}
	rec := doRequest(makeActivityRouter(cat), http.MethodPut, "/v1/activities/custom_1", "device-1", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if cat.updateID != "custom_1" {
		t.Errorf("expected id custom_1, got %q", cat.updateID)
	}
}

func TestHandleUpdateActivity_Preset(t *testing.T) {
	cat := &mockCatalog{updateErr: types.NewAppError(types.ErrCodeConflictPreset, "predefined activities cannot be modified", nil)}
	body := map[string]any{"label": "Jog", "durationMinutes": 30}
	rec := doRequest(makeActivityRouter(cat), http.MethodPut, "/v1/activities/running", "device-1", body)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rec.Code)
	}
}

func TestHandleDeleteActivity(t *testing.T) {
	cat := &mockCatalog{}
	rec := doRequest(makeActivityRouter(cat), http.MethodDelete, "/v1/activities/custom_1", "device-1", nil)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if cat.deleteOwner != "device-1" || cat.deleteID != "custom_1" {
		t.Errorf("unexpected delete call: owner=%q id=%q", cat.deleteOwner, cat.deleteID)
	}
}

func TestHandleDeleteActivity_RequiresClientID(t *testing.T) {
	cat := &mockCatalog{}
	rec := doRequest(makeActivityRouter(cat), http.MethodDelete, "/v1/activities/custom_1", "", nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if cat.deleteID != "" {
		t.Error("catalog must not be called without an owner")
	}
}

func TestHandleStarred_Anonymous(t *testing.T) {
	cat := &mockCatalog{starred: []string{"moto", "running", "laundry"}}
	rec := doRequest(makeActivityRouter(cat), http.MethodGet, "/v1/activities/starred", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got StarredResponse
	decodeData(t, rec, &got)
	if len(got.IDs) != 3 || got.Max != activities.MaxStarred {
		t.Errorf("unexpected starred response: %+v", got)
	}
	if cat.starOwner != "" {
		t.Errorf("expected an anonymous lookup, got owner %q", cat.starOwner)
	}
}

func TestHandleStar(t *testing.T) {
	cat := &mockCatalog{starred: []string{"moto", "custom_1"}}
	rec := doRequest(makeActivityRouter(cat), http.MethodPut, "/v1/activities/custom_1/star", "device-1", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if cat.starOwner != "device-1" || cat.starID != "custom_1" || cat.unstarred {
		t.Errorf("unexpected star call: owner=%q id=%q", cat.starOwner, cat.starID)
	}
}

func TestHandleStar_LimitReached(t *testing.T) {
	cat := &mockCatalog{starErr: types.NewAppError(types.ErrCodeConflictStarLimit, "limit", nil)}
	rec := doRequest(makeActivityRouter(cat), http.MethodPut, "/v1/activities/custom_1/star", "device-1", nil)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(types.ErrCodeConflictStarLimit) {
		t.Errorf("expected %s, got %s", types.ErrCodeConflictStarLimit, code)
	}
}

func TestHandleStar_RequiresClientID(t *testing.T) {
	cat := &mockCatalog{}
	rec := doRequest(makeActivityRouter(cat), http.MethodPut, "/v1/activities/moto/star", "", nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if cat.starID != "" {
		t.Error("catalog must not be called without a client ID")
	}
}

func TestHandleUnstar(t *testing.T) {
	cat := &mockCatalog{starred: []string{"running"}}
	rec := doRequest(makeActivityRouter(cat), http.MethodDelete, "/v1/activities/moto/star", "device-1", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !cat.unstarred || cat.starID != "moto" {
		t.Errorf("expected moto to be unstarred, got id=%q", cat.starID)
	}
}
