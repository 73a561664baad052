package core

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"fairweather/internal/types"
)

func TestClientIDMiddleware(t *testing.T) {
	var seen string
	var reached bool
	h := ClientIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		seen = types.GetClientID(r.Context())
	}))

	cases := []struct {
		name, header string
		wantReached  bool
		wantID       string
	}{
		{"absent", "", true, ""},
		{"valid", "device_42-a", true, "device_42-a"},
		{"trimmed", "  abc  ", true, "abc"},
		{"bad characters", "alice@example.com", false, ""},
		{"too long", "x123456789012345678901234567890123456789012345678901234567890abcd", false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reached, seen = false, ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(ClientIDHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if reached != tc.wantReached {
				t.Fatalf("reached = %v, want %v", reached, tc.wantReached)
			}
			if !tc.wantReached {
				if rec.Code != http.StatusBadRequest {
					t.Errorf("expected 400, got %d", rec.Code)
				}
				return
			}
			if seen != tc.wantID {
				t.Errorf("client id = %q, want %q", seen, tc.wantID)
			}
		})
	}
}

func TestRequireClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := RequireClientID(req); err == nil {
		t.Error("expected error without client id")
	} else if appErr, _ := types.AsAppError(err); appErr.Code != types.ErrCodeValidationMissingField {
		t.Errorf("unexpected code %s", appErr.Code)
	}

	req = req.WithContext(types.WithClientID(req.Context(), "alice"))
	id, err := RequireClientID(req)
	if err != nil || id != "alice" {
		t.Errorf("expected alice, got %q, %v", id, err)
	}
}

func TestSupersessionKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	if got := SupersessionKey(req, "assessment"); got != "ip:10.0.0.7|assessment" {
		t.Errorf("unexpected anonymous key %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := SupersessionKey(req, "climate"); got != "ip:203.0.113.9|climate" {
		t.Errorf("unexpected forwarded key %q", got)
	}

	req = req.WithContext(types.WithClientID(req.Context(), "alice"))
	if got := SupersessionKey(req, "climate"); got != "alice|climate" {
		t.Errorf("unexpected client key %q", got)
	}
}
