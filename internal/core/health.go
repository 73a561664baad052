package core

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const defaultHealthTimeout = 1500 * time.Millisecond

// Overall states reported by /health.
const (
	healthOK       = "ok"
	healthDegraded = "degraded"
	healthDown     = "down"
)

// Dependency is a backing store pinged by /health. Postgres holds the
// activity catalog and favorites, so losing it takes the API down. The Redis
// forecast cache is Optional: forecasts fall back to a direct upstream fetch
// while it is unreachable.
type Dependency struct {
	Name     string
	Ping     func(ctx context.Context) error
	Optional bool
}

type dependencyStatus struct {
	Up        bool   `json:"up"`
	Optional  bool   `json:"optional,omitempty"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

type healthResponse struct {
	Status       string                      `json:"status"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]dependencyStatus `json:"dependencies,omitempty"`
}

// HandleHealth pings every dependency in parallel within the configured
// health timeout. It answers 200 "ok" when all are up, 200 "degraded" when
// only optional ones are down and 503 "down" otherwise. A dependency that has
// not answered by the deadline is reported down.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.healthTimeout())
	defer cancel()

	resp := healthResponse{Status: healthOK, Version: s.version()}
	deps := s.Dependencies
	if len(deps) == 0 {
		JSON(w, r, http.StatusOK, resp)
		return
	}

	type pingResult struct {
		idx     int
		err     error
		latency time.Duration
	}
	results := make(chan pingResult, len(deps))
	for i, dep := range deps {
		go func() {
			start := time.Now()
			err := ping(ctx, dep)
			results <- pingResult{idx: i, err: err, latency: time.Since(start)}
		}()
	}

	statuses := make([]*dependencyStatus, len(deps))
collect:
	for range deps {
		select {
		case res := <-results:
			st := &dependencyStatus{Up: res.err == nil, LatencyMS: res.latency.Milliseconds()}
			if res.err != nil {
				st.Error = res.err.Error()
			}
			statuses[res.idx] = st
		case <-ctx.Done():
			break collect
		}
	}

	resp.Dependencies = make(map[string]dependencyStatus, len(deps))
	for i, dep := range deps {
		st := statuses[i]
		if st == nil {
			st = &dependencyStatus{LatencyMS: s.healthTimeout().Milliseconds(), Error: "no answer before the health deadline"}
		}
		st.Optional = dep.Optional
		resp.Dependencies[dep.Name] = *st

		switch {
		case st.Up:
		case dep.Optional:
			if resp.Status == healthOK {
				resp.Status = healthDegraded
			}
		default:
			resp.Status = healthDown
		}
	}

	code := http.StatusOK
	if resp.Status == healthDown {
		code = http.StatusServiceUnavailable
		s.Logger.Warn("health check failed", "dependencies", resp.Dependencies)
	}
	JSON(w, r, code, resp)
}

func ping(ctx context.Context, dep Dependency) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("ping panicked: %v", rec)
		}
	}()
	return dep.Ping(ctx)
}

func (s *Server) healthTimeout() time.Duration {
	if s.Config == nil || s.Config.Server.HealthTimeout <= 0 {
		return defaultHealthTimeout
	}
	return s.Config.Server.HealthTimeout
}

func (s *Server) version() string {
	if s.Config == nil {
		return ""
	}
	return s.Config.Build.Version
}
