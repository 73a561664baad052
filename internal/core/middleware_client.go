package core

import (
	"net"
	"net/http"
	"regexp"
	"strings"

	"fairweather/internal/types"
)

// ClientIDHeader identifies the calling device or user. It scopes custom
// activities and favorites and keys request supersession.
const ClientIDHeader = "X-Client-ID"

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ClientIDMiddleware stores a well-formed X-Client-ID in the context and
// rejects a malformed one. A missing header leaves the context unset;
// handlers that need an owner call RequireClientID.
func ClientIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(ClientIDHeader))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !clientIDPattern.MatchString(id) {
			Error(w, r, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidValue,
				"X-Client-ID must be 1-64 letters, digits, '-' or '_'", nil,
				map[string]any{"header": ClientIDHeader}))
			return
		}
		next.ServeHTTP(w, r.WithContext(types.WithClientID(r.Context(), id)))
	})
}

// RequireClientID returns the caller's client ID or a validation error.
func RequireClientID(r *http.Request) (string, error) {
	id := types.GetClientID(r.Context())
	if id == "" {
		return "", types.NewAppErrorWithDetails(types.ErrCodeValidationMissingField,
			"X-Client-ID header is required", nil, map[string]any{"header": ClientIDHeader})
	}
	return id, nil
}

// SupersessionKey scopes latest-request-wins to one caller and resource.
// Anonymous callers fall back to their network address.
func SupersessionKey(r *http.Request, resource string) string {
	id := types.GetClientID(r.Context())
	if id == "" {
		id = "ip:" + extractClientIP(r)
	}
	return id + "|" + resource
}

// extractClientIP prefers the first X-Forwarded-For entry, then RemoteAddr
// without its port.
func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.SplitN(xff, ",", 2)
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
