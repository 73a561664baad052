package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairweather/internal/types"
)

const forecastBody = `{
  "latitude": 40.42, "longitude": -3.7,
  "timezone": "Europe/Madrid", "utc_offset_seconds": 3600,
  "hourly": {
    "time": ["2025-03-14T00:00", "2025-03-14T01:00"],
    "temperature_2m": [8.4, 7.9],
    "precipitation_probability": [10, 55],
    "weather_code": [3, 61],
    "wind_speed_10m": [6.1, 9.3],
    "precipitation": [0, 0.4],
    "snowfall": [0, 0],
    "snow_depth": [0, 0],
    "relative_humidity_2m": [71, 80]
  },
  "daily": {
    "time": ["2025-03-14"],
    "sunrise": ["2025-03-14T07:31"],
    "sunset": ["2025-03-14T19:22"]
  }
}`

func TestOpenMeteoHourly(t *testing.T) {
	var query map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(forecastBody))
	}))
	defer server.Close()

	c := NewOpenMeteoClient(nil, server.URL+"/", 2, WithSleepFunc(noSleep))
	s, err := c.Hourly(context.Background(), types.Location{Lat: 40.4168, Lon: -3.7038})
	require.NoError(t, err)

	assert.Equal(t, "40.4168", query["latitude"])
	assert.Equal(t, "-3.7038", query["longitude"])
	assert.Equal(t, "auto", query["timezone"])
	assert.Equal(t, "2", query["forecast_days"])
	assert.Contains(t, query["hourly"], "snow_depth")
	assert.Equal(t, "sunrise,sunset", query["daily"])

	require.Equal(t, 2, s.Len())
	_, offset := s.Time[1].Zone()
	assert.Equal(t, 3600, offset)
	assert.Equal(t, 1, s.Time[1].Hour())
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), s.Time[1].UTC())
	assert.Equal(t, []int{3, 61}, s.WeatherCode)
	assert.Equal(t, []float64{71, 80}, s.RelativeHumidity)
	require.Len(t, s.Sunrise, 1)
	assert.Equal(t, 7, s.Sunrise[0].Hour())
	assert.Equal(t, time.Date(2025, 3, 14, 18, 22, 0, 0, time.UTC), s.Sunset[0].UTC())
}

func TestOpenMeteoHourlyRejectsRaggedSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly":{"time":["2025-03-14T00:00"],"temperature_2m":[],"wind_speed_10m":[1],"precipitation":[0],"weather_code":[0]}}`))
	}))
	defer server.Close()

	_, err := NewOpenMeteoClient(nil, server.URL, 3).Hourly(context.Background(), types.Location{})
	assert.Equal(t, types.ErrCodeUpstreamForecast, types.CodeOf(err))
}

func TestArchiveDaily(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/archive", r.URL.Path)
		assert.Equal(t, "1950-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2025-03-13", r.URL.Query().Get("end_date"))
		w.Write([]byte(`{"utc_offset_seconds":0,"daily":{
			"time":["1950-01-01","1950-01-02"],
			"temperature_2m_mean":[5.1,4.2],
			"temperature_2m_max":[9,8],
			"temperature_2m_min":[1,0.5],
			"precipitation_sum":[0,null]}}`))
	}))
	defer server.Close()

	c := NewArchiveClient(nil, server.URL, WithSleepFunc(noSleep))
	d, err := c.Daily(context.Background(), types.Location{Lat: 40.4, Lon: -3.7}, ArchiveEpoch, time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, d.Time, 2)
	assert.Equal(t, 0.5, *d.TemperatureMin[1])
	assert.Nil(t, d.PrecipitationSum[1], "missing days decode as nil")
}

func TestArchiveDailyRejectsInvertedRange(t *testing.T) {
	c := NewArchiveClient(nil, "http://unused")
	_, err := c.Daily(context.Background(), types.Location{}, time.Now(), time.Now().AddDate(0, 0, -1))
	assert.Equal(t, types.ErrCodeValidationInvalidTime, types.CodeOf(err))
}

func TestArchiveDailyServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewArchiveClient(nil, server.URL, WithSleepFunc(noSleep))
	_, err := c.Daily(context.Background(), types.Location{}, ArchiveEpoch, ArchiveEpoch)
	assert.Equal(t, types.ErrCodeUpstreamArchive, types.CodeOf(err))
}
