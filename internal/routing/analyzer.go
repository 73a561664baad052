// Package routing evaluates the weather along a road route: at departure from
// the origin, halfway at the midpoint and on arrival at the destination.
package routing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"fairweather/internal/rules"
	"fairweather/internal/types"
)

const (
	// A destination snapped further than this is unreachable by road
	// (an island, open sea).
	maxSnapKm = 50.0

	walkSpeedKmh = 5.0
	bikeSpeedKmh = 20.0

	// Used when the router reports a zero-length route.
	fallbackDurationMin = 30
	fallbackDistanceKm  = 10.0
)

// Segment names.
const (
	SegmentDeparture = "departure"
	SegmentMidway    = "midway"
	SegmentArrival   = "arrival"
)

// RouteFinder returns the road route between two points.
type RouteFinder interface {
	Route(ctx context.Context, origin, dest types.Location) (*types.Route, error)
}

// Request asks for a route analysis.
type Request struct {
	Origin      types.Location `json:"origin"`
	Destination types.Location `json:"destination"`
	Mode        types.Mode     `json:"mode"`
	Departure   time.Time      `json:"departure"`
}

// Segment is the verdict at one point of the route.
type Segment struct {
	Name        string                 `json:"name"`
	Location    types.Location         `json:"location"`
	Time        time.Time              `json:"time"`
	Temperature *float64               `json:"temperature,omitempty"`
	Condition   string                 `json:"condition,omitempty"`
	Result      types.EvaluationResult `json:"result"`
}

// Analysis is the weather along a route.
type Analysis struct {
	Mode            types.Mode `json:"mode"`
	DistanceKm      float64    `json:"distanceKm"`
	DurationMinutes int        `json:"durationMinutes"`
	DurationLabel   string     `json:"durationLabel"`
	Departure       time.Time  `json:"departure"`
	Arrival         time.Time  `json:"arrival"`
	Segments        []Segment  `json:"segments"`
}

// Analyzer combines routing and forecasts.
type Analyzer struct {
	router   RouteFinder
	forecast types.ForecastProvider
	logger   *slog.Logger
}

func NewAnalyzer(router RouteFinder, forecast types.ForecastProvider, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{router: router, forecast: forecast, logger: logger}
}

// Analyze routes req.Origin to req.Destination and evaluates each segment with
// the transport rules of req.Mode. Any upstream failure fails the analysis;
// an hour missing from a forecast yields a gray segment.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	mode, ok := types.ParseMode(string(req.Mode))
	if !ok || !mode.IsTransport() {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidMode,
			"mode must be one of moto, car, walk, bike", nil, map[string]any{"mode": req.Mode})
	}
	if req.Departure.IsZero() {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidTime, "departure is required", nil)
	}

	route, err := a.router.Route(ctx, req.Origin, req.Destination)
	if err != nil {
		return nil, err
	}
	if off := HaversineKm(req.Destination, route.Destination); off > maxSnapKm {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationNoLandRoute,
			fmt.Sprintf("no land route; nearest reachable point is %.0f km away", off), nil,
			map[string]any{"distance_km": math.Round(off)})
	}

	distKm := route.DistanceMeters / 1000
	minutes := TravelMinutes(mode, distKm, route.DurationSeconds)
	if minutes == 0 {
		minutes = fallbackDurationMin
	}
	if distKm == 0 {
		distKm = fallbackDistanceKm
	}

	departure := req.Departure
	arrival := departure.Add(time.Duration(minutes) * time.Minute)
	midway := departure.Add(time.Duration(minutes) * time.Minute / 2)
	mid := types.Midpoint(req.Origin, req.Destination)

	points := []struct {
		name string
		loc  types.Location
		at   time.Time
	}{
		{SegmentDeparture, req.Origin, departure},
		{SegmentMidway, mid, midway},
		{SegmentArrival, req.Destination, arrival},
	}

	series := make([]*types.HourlySeries, len(points))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range points {
		g.Go(func() error {
			s, err := a.forecast.Hourly(gctx, p.loc)
			if err != nil {
				return err
			}
			series[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.logger.WarnContext(ctx, "route forecast fetch failed", "error", err)
		return nil, err
	}

	out := &Analysis{
		Mode:            mode,
		DistanceKm:      math.Round(distKm*10) / 10,
		DurationMinutes: minutes,
		DurationLabel:   DurationLabel(minutes),
		Departure:       departure,
		Arrival:         arrival,
		Segments:        make([]Segment, 0, len(points)),
	}
	for i, p := range points {
		out.Segments = append(out.Segments, evaluateSegment(p.name, p.loc, p.at, series[i], mode))
	}
	return out, nil
}

func evaluateSegment(name string, loc types.Location, at time.Time, s *types.HourlySeries, mode types.Mode) Segment {
	idx := rules.NearestIndex(s, at)
	seg := Segment{
		Name:     name,
		Location: loc,
		Time:     at,
		Result:   rules.EvaluateTransport(s, idx, mode),
	}
	if snap, ok := rules.SnapshotAt(s, idx); ok {
		temp := snap.Temperature
		seg.Temperature = &temp
		seg.Condition = rules.Describe(snap.Code)
	}
	return seg
}

// TravelMinutes is the trip length for mode. Walking and cycling use fixed
// speeds over the road distance; motor vehicles use the router's estimate.
func TravelMinutes(mode types.Mode, distKm, routerSeconds float64) int {
	switch mode {
	case types.ModeWalk:
		return int(math.Floor(distKm/walkSpeedKmh*60 + 0.5))
	case types.ModeBike:
		return int(math.Floor(distKm/bikeSpeedKmh*60 + 0.5))
	}
	return int(math.Floor(routerSeconds/60 + 0.5))
}

// DurationLabel renders minutes as "2h 5m" or "45m".
func DurationLabel(minutes int) string {
	if h := minutes / 60; h > 0 {
		return fmt.Sprintf("%dh %dm", h, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}
