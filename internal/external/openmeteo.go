package external

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fairweather/internal/types"
)

const (
	DefaultForecastBaseURL = "https://api.open-meteo.com"
	DefaultArchiveBaseURL  = "https://archive-api.open-meteo.com"
)

// Archive coverage starts here.
var ArchiveEpoch = time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)

var hourlyVariables = strings.Join([]string{
	"temperature_2m",
	"precipitation_probability",
	"weather_code",
	"wind_speed_10m",
	"precipitation",
	"snowfall",
	"snow_depth",
	"relative_humidity_2m",
}, ",")

var dailyVariables = strings.Join([]string{
	"temperature_2m_mean",
	"precipitation_sum",
	"temperature_2m_max",
	"temperature_2m_min",
}, ",")

// openMeteoEnvelope is the part of an Open-Meteo response shared by the
// forecast and archive endpoints.
type openMeteoEnvelope struct {
	Timezone         string `json:"timezone"`
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`
}

func (e openMeteoEnvelope) location() *time.Location {
	name := e.Timezone
	if name == "" {
		name = "UTC"
	}
	return time.FixedZone(name, e.UTCOffsetSeconds)
}

type forecastResponse struct {
	openMeteoEnvelope
	Hourly types.HourlySeries `json:"hourly"`
	Daily  struct {
		Sunrise types.Timestamps `json:"sunrise"`
		Sunset  types.Timestamps `json:"sunset"`
	} `json:"daily"`
}

type archiveResponse struct {
	openMeteoEnvelope
	Daily types.DailySeries `json:"daily"`
}

// OpenMeteoClient fetches hourly forecasts. Timestamps are returned in the
// location's own UTC offset.
type OpenMeteoClient struct {
	base    *BaseClient
	baseURL string
	days    int
}

// NewOpenMeteoClient creates a forecast client. days is the forecast horizon.
func NewOpenMeteoClient(httpClient *http.Client, baseURL string, days int, opts ...BaseClientOption) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultForecastBaseURL
	}
	if days <= 0 {
		days = 3
	}
	return &OpenMeteoClient{
		base:    NewBaseClient(httpClient, "open-meteo-forecast", types.ErrCodeUpstreamForecast, DefaultRetryPolicy(), opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		days:    days,
	}
}

// Hourly implements types.ForecastProvider.
func (c *OpenMeteoClient) Hourly(ctx context.Context, loc types.Location) (*types.HourlySeries, error) {
	q := coordinates(loc)
	q.Set("hourly", hourlyVariables)
	q.Set("daily", "sunrise,sunset")
	q.Set("forecast_days", strconv.Itoa(c.days))
	q.Set("timezone", "auto")

	var out forecastResponse
	if err := c.base.GetJSON(ctx, c.baseURL+"/v1/forecast?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	if err := out.Hourly.Validate(); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamForecast, "forecast response is malformed", err)
	}
	zone := out.location()
	out.Hourly.Time.Localize(zone)
	out.Daily.Sunrise.Localize(zone)
	out.Daily.Sunset.Localize(zone)
	out.Hourly.Sunrise, out.Hourly.Sunset = out.Daily.Sunrise, out.Daily.Sunset
	return &out.Hourly, nil
}

// ArchiveClient fetches daily historical observations.
type ArchiveClient struct {
	base    *BaseClient
	baseURL string
}

// NewArchiveClient creates an archive client.
func NewArchiveClient(httpClient *http.Client, baseURL string, opts ...BaseClientOption) *ArchiveClient {
	if baseURL == "" {
		baseURL = DefaultArchiveBaseURL
	}
	return &ArchiveClient{
		base:    NewBaseClient(httpClient, "open-meteo-archive", types.ErrCodeUpstreamArchive, DefaultRetryPolicy(), opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Daily implements types.ArchiveProvider. from and to are inclusive dates.
func (c *ArchiveClient) Daily(ctx context.Context, loc types.Location, from, to time.Time) (*types.DailySeries, error) {
	if to.Before(from) {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidTime, "archive range ends before it starts", nil)
	}
	q := coordinates(loc)
	q.Set("start_date", from.Format(time.DateOnly))
	q.Set("end_date", to.Format(time.DateOnly))
	q.Set("daily", dailyVariables)
	q.Set("timezone", "auto")

	var out archiveResponse
	if err := c.base.GetJSON(ctx, c.baseURL+"/v1/archive?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	d := &out.Daily
	n := len(d.Time)
	if len(d.TemperatureMean) != n || len(d.TemperatureMax) != n || len(d.TemperatureMin) != n || len(d.PrecipitationSum) != n {
		return nil, types.NewAppError(types.ErrCodeUpstreamArchive, "archive response is malformed",
			fmt.Errorf("daily arrays differ in length from %d days", n))
	}
	d.Time.Localize(out.location())
	return d, nil
}

func coordinates(loc types.Location) url.Values {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', 4, 64))
	return q
}

var (
	_ types.ForecastProvider = (*OpenMeteoClient)(nil)
	_ types.ArchiveProvider  = (*ArchiveClient)(nil)
)
