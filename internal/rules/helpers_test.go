package rules

import (
	"time"

	"fairweather/internal/types"
)

var seriesStart = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

// hour is one row of a test series.
type hour struct {
	temp, wind, precip, snowfall, depth, prob, humidity float64
	code                                                int
}

// fair is a mild, dry, still hour that every evaluator scores green.
func fair() hour {
	return hour{temp: 15, wind: 5, humidity: 50, code: 1}
}

func (h hour) with(mut func(*hour)) hour {
	mut(&h)
	return h
}

func buildSeries(hours ...hour) *types.HourlySeries {
	s := &types.HourlySeries{}
	for i, h := range hours {
		s.Time = append(s.Time, seriesStart.Add(time.Duration(i)*time.Hour))
		s.Temperature = append(s.Temperature, h.temp)
		s.WindSpeed = append(s.WindSpeed, h.wind)
		s.Precipitation = append(s.Precipitation, h.precip)
		s.Snowfall = append(s.Snowfall, h.snowfall)
		s.SnowDepth = append(s.SnowDepth, h.depth)
		s.PrecipitationProbability = append(s.PrecipitationProbability, h.prob)
		s.RelativeHumidity = append(s.RelativeHumidity, h.humidity)
		s.WeatherCode = append(s.WeatherCode, h.code)
	}
	return s
}

func repeat(h hour, n int) []hour {
	out := make([]hour, n)
	for i := range out {
		out[i] = h
	}
	return out
}

// single builds a three-hour series whose last hour is h, so the wet-ground
// lookback reads the two dry hours before it.
func single(h hour) (*types.HourlySeries, int) {
	return buildSeries(fair(), fair(), h), 2
}

func snapshotOf(h hour) types.Snapshot {
	s, i := single(h)
	snap, _ := SnapshotAt(s, i)
	return snap
}

var running = types.RuleSpec{
	Mode:    types.ModeStandard,
	TempMin: types.Float(6),
	TempMax: types.Float(25),
	RainMax: types.Float(0.5),
	WindMax: types.Float(25),
}

func statuses(r types.EvaluationResult) []types.Status {
	out := make([]types.Status, len(r.Factors))
	for i, f := range r.Factors {
		out[i] = f.Status
	}
	return out
}
