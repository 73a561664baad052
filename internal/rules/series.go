package rules

import (
	"math"
	"time"

	"fairweather/internal/types"
)

// IndexAtOrAfter returns the first index whose timestamp falls on the same
// calendar hour as target, compared in the series' own zone. When no hour
// matches it returns 0, so callers must check coverage themselves if a
// series may start after target.
func IndexAtOrAfter(s *types.HourlySeries, target time.Time) int {
	for i, ts := range seriesTimes(s) {
		t := target.In(ts.Location())
		if ts.Year() == t.Year() && ts.Month() == t.Month() && ts.Day() == t.Day() && ts.Hour() == t.Hour() {
			return i
		}
	}
	return 0
}

// Covers reports whether target falls inside the hours of the series.
func Covers(s *types.HourlySeries, target time.Time) bool {
	ts := seriesTimes(s)
	if len(ts) == 0 {
		return false
	}
	return !target.Before(ts[0]) && target.Before(ts[len(ts)-1].Add(time.Hour))
}

// FirstIndexFrom returns the first index at or after t, or -1.
func FirstIndexFrom(s *types.HourlySeries, t time.Time) int {
	for i, ts := range seriesTimes(s) {
		if !ts.Before(t) {
			return i
		}
	}
	return -1
}

// NearestIndex returns the index closest to t, or -1 for an empty series.
// Ties resolve to the earlier hour.
func NearestIndex(s *types.HourlySeries, t time.Time) int {
	best := -1
	var bestDiff time.Duration
	for i, ts := range seriesTimes(s) {
		d := ts.Sub(t)
		if d < 0 {
			d = -d
		}
		if best == -1 || d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}

// SnapshotAt derives the view of hour i. It returns false when i is outside
// the series.
func SnapshotAt(s *types.HourlySeries, i int) (types.Snapshot, bool) {
	if i < 0 || i >= s.Len() {
		return types.Snapshot{}, false
	}

	precip := s.Precipitation[i]
	prob := at(s.PrecipitationProbability, i, 100)
	snap := types.Snapshot{
		Time:           s.Time[i],
		Temperature:    roundHalfUp(s.Temperature[i]),
		Wind:           roundHalfUp(s.WindSpeed[i]),
		PrecipMM:       precip,
		SnowfallCM:     at(s.Snowfall, i, 0),
		SnowDepthM:     at(s.SnowDepth, i, 0),
		ProbabilityPct: prob,
		Humidity:       at(s.RelativeHumidity, i, 0),
		RawCode:        s.WeatherCode[i],
		Code:           Sanitize(s.WeatherCode[i], precip, prob),
	}
	snap.IsSnow = snap.SnowfallCM > 0 || (snap.Temperature < snowTempCeiling && precip > 0)
	if i >= wetGroundLookback {
		var recent float64
		for _, p := range s.Precipitation[i-wetGroundLookback : i] {
			recent += p
		}
		snap.GroundWet = recent > wetGroundMM
	}
	return snap, true
}

// at reads an optional array, treating a missing array as def.
func at(values []float64, i int, def float64) float64 {
	if len(values) == 0 {
		return def
	}
	return values[i]
}

func seriesTimes(s *types.HourlySeries) types.Timestamps {
	if s == nil {
		return nil
	}
	return s.Time
}

// roundHalfUp rounds .5 toward positive infinity, so -2.5 becomes -2.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
