package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Wall-clock layouts emitted by the forecast provider. Hourly timestamps omit
// seconds and zone; daily archive rows are plain dates.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// Timestamps is an ascending sequence of instants. It decodes the provider's
// zone-less wall-clock strings as UTC; call Localize to reinterpret them in
// the location's own offset.
type Timestamps []time.Time

func (ts *Timestamps) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Timestamps, len(raw))
	for i, s := range raw {
		t, err := parseTimestamp(s)
		if err != nil {
			return fmt.Errorf("time[%d]: %w", i, err)
		}
		out[i] = t
	}
	*ts = out
	return nil
}

func (ts Timestamps) MarshalJSON() ([]byte, error) {
	raw := make([]string, len(ts))
	for i, t := range ts {
		raw[i] = t.Format(time.RFC3339)
	}
	return json.Marshal(raw)
}

// Localize keeps each wall clock reading but moves it into loc.
func (ts Timestamps) Localize(loc *time.Location) {
	for i, t := range ts {
		ts[i] = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
	}
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// HourlySeries holds parallel hourly arrays as delivered by the forecast
// provider. Index i refers to the same hour in every array. Snowfall,
// SnowDepth, PrecipitationProbability and RelativeHumidity are optional.
// Sunrise and Sunset hold one entry per forecast day and may be absent.
type HourlySeries struct {
	Time                     Timestamps `json:"time"`
	Temperature              []float64  `json:"temperature_2m"`
	WindSpeed                []float64  `json:"wind_speed_10m"`
	Precipitation            []float64  `json:"precipitation"`
	Snowfall                 []float64  `json:"snowfall,omitempty"`
	SnowDepth                []float64  `json:"snow_depth,omitempty"`
	PrecipitationProbability []float64  `json:"precipitation_probability,omitempty"`
	WeatherCode              []int      `json:"weather_code"`
	RelativeHumidity         []float64  `json:"relative_humidity_2m,omitempty"`

	Sunrise Timestamps `json:"sunrise,omitempty"`
	Sunset  Timestamps `json:"sunset,omitempty"`
}

// Len returns the number of hours in the series. A nil series has length 0.
func (s *HourlySeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Time)
}

// Validate checks that every present array matches the length of Time.
func (s *HourlySeries) Validate() error {
	if s == nil || len(s.Time) == 0 {
		return NewAppError(ErrCodeValidationInvalidSeries, "series has no hours", nil)
	}
	n := len(s.Time)
	required := map[string]int{
		"temperature_2m": len(s.Temperature),
		"wind_speed_10m": len(s.WindSpeed),
		"precipitation":  len(s.Precipitation),
		"weather_code":   len(s.WeatherCode),
	}
	for name, l := range required {
		if l != n {
			return NewAppErrorWithDetails(ErrCodeValidationInvalidSeries,
				"series arrays must have equal length", nil,
				map[string]any{"field": name, "length": l, "expected": n})
		}
	}
	optional := map[string]int{
		"snowfall":                  len(s.Snowfall),
		"snow_depth":                len(s.SnowDepth),
		"precipitation_probability": len(s.PrecipitationProbability),
		"relative_humidity_2m":      len(s.RelativeHumidity),
	}
	for name, l := range optional {
		if l != 0 && l != n {
			return NewAppErrorWithDetails(ErrCodeValidationInvalidSeries,
				"series arrays must have equal length", nil,
				map[string]any{"field": name, "length": l, "expected": n})
		}
	}
	for i := 1; i < n; i++ {
		if !s.Time[i].After(s.Time[i-1]) {
			return NewAppErrorWithDetails(ErrCodeValidationInvalidSeries,
				"series time must be ascending", nil, map[string]any{"index": i})
		}
	}
	return nil
}

// DailySeries holds daily historical aggregates from the archive provider.
// A nil element is a day the archive has no observation for.
type DailySeries struct {
	Time             Timestamps `json:"time"`
	TemperatureMean  []*float64 `json:"temperature_2m_mean"`
	TemperatureMax   []*float64 `json:"temperature_2m_max"`
	TemperatureMin   []*float64 `json:"temperature_2m_min"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
}

// Floats returns pointers to vs, for building daily series in code.
func Floats(vs ...float64) []*float64 {
	out := make([]*float64, len(vs))
	for i := range vs {
		out[i] = &vs[i]
	}
	return out
}

// Location is a WGS84 coordinate.
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

func (l Location) String() string {
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// Midpoint returns the arithmetic midpoint of two coordinates.
func Midpoint(a, b Location) Location {
	return Location{Lat: (a.Lat + b.Lat) / 2, Lon: (a.Lon + b.Lon) / 2}
}
