package activities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairweather/internal/types"
)

var madrid = time.FixedZone("CET", 3600)

// forecast builds an hourly series starting at local midnight on 2025-03-14
// where every hour is mild and dry except those listed as cold (-10 °C).
func forecast(n int, cold ...int) *types.HourlySeries {
	start := time.Date(2025, 3, 14, 0, 0, 0, 0, madrid)
	s := &types.HourlySeries{}
	isCold := map[int]bool{}
	for _, c := range cold {
		isCold[c] = true
	}
	for i := 0; i < n; i++ {
		temp := 15.0
		if isCold[i] {
			temp = -10
		}
		s.Time = append(s.Time, start.Add(time.Duration(i)*time.Hour))
		s.Temperature = append(s.Temperature, temp)
		s.WindSpeed = append(s.WindSpeed, 5)
		s.Precipitation = append(s.Precipitation, 0)
		s.PrecipitationProbability = append(s.PrecipitationProbability, 0)
		s.RelativeHumidity = append(s.RelativeHumidity, 50)
		s.WeatherCode = append(s.WeatherCode, 0)
	}
	return s
}

func coldRange(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestAdvisorNowUsesClockAndFindsNextGreen(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 20, 0, 0, madrid)
	a := NewAdvisor(types.FixedClock{T: now}, nil)
	s := forecast(72, coldRange(9, 12)...)

	report := a.Assess(s, DefaultPresets(), types.ScheduleNow, time.Time{})

	assert.True(t, report.Covered)
	require.NotNil(t, report.Conditions)
	assert.Equal(t, 9, report.Conditions.Time.Hour())
	assert.Equal(t, -10.0, report.Conditions.Temperature)
	assert.Equal(t, "Clear", report.Conditions.Condition)

	require.Len(t, report.Assessments, 3)
	for _, as := range report.Assessments {
		assert.Equal(t, types.StatusRed, as.Result.Status, as.Activity.ID)
		require.NotNil(t, as.Alternative, as.Activity.ID)
		assert.Equal(t, AlternativeNext48h, as.Alternative.Kind)
		assert.True(t, as.Alternative.Found)
		assert.Equal(t, 13, as.Alternative.Time.Hour())
		assert.Equal(t, "Today 13:00", as.Alternative.Label)
	}
}

func TestAdvisorScheduledSearchesAroundTarget(t *testing.T) {
	now := time.Date(2025, 3, 14, 8, 0, 0, 0, madrid)
	a := NewAdvisor(types.FixedClock{T: now}, nil)
	s := forecast(72, coldRange(28, 33)...)
	at := time.Date(2025, 3, 15, 6, 0, 0, 0, madrid)

	report := a.Assess(s, DefaultPresets()[1:2], types.ScheduleScheduled, at)

	require.Len(t, report.Assessments, 1)
	as := report.Assessments[0]
	assert.Equal(t, types.StatusRed, as.Result.Status)
	require.NotNil(t, as.Alternative)
	assert.Equal(t, AlternativeAround24, as.Alternative.Kind)
	assert.Equal(t, "Tomorrow 03:00", as.Alternative.Label, "hour 27 is 3h before, hour 34 is 4h after")
}

func TestAdvisorGreenHasNoAlternative(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, madrid)
	a := NewAdvisor(types.FixedClock{T: now}, nil)

	report := a.Assess(forecast(48), DefaultPresets(), types.ScheduleNow, time.Time{})
	for _, as := range report.Assessments {
		assert.Equal(t, types.StatusGreen, as.Result.Status)
		assert.Nil(t, as.Alternative)
	}
}

func TestAdvisorReportsNoGoodTime(t *testing.T) {
	now := time.Date(2025, 3, 14, 0, 0, 0, 0, madrid)
	a := NewAdvisor(types.FixedClock{T: now}, nil)

	report := a.Assess(forecast(24, coldRange(0, 23)...), DefaultPresets()[1:2], types.ScheduleNow, time.Time{})
	alt := report.Assessments[0].Alternative
	require.NotNil(t, alt)
	assert.False(t, alt.Found)
	assert.Nil(t, alt.Time)
	assert.Equal(t, "No good time found", alt.Label)
}

func TestAdvisorFlagsUncoveredTarget(t *testing.T) {
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, madrid)
	a := NewAdvisor(types.FixedClock{T: now}, nil)

	report := a.Assess(forecast(24, 0), DefaultPresets()[1:2], types.ScheduleNow, time.Time{})
	assert.False(t, report.Covered)
	assert.Equal(t, 0, report.Conditions.Time.Hour(), "falls back to the first hour")
	assert.Equal(t, types.StatusRed, report.Assessments[0].Result.Status)
}

func TestAdvisorEmptySeriesIsGray(t *testing.T) {
	a := NewAdvisor(types.FixedClock{T: time.Now()}, nil)

	report := a.Assess(&types.HourlySeries{}, DefaultPresets(), types.ScheduleNow, time.Time{})
	assert.Nil(t, report.Conditions)
	for _, as := range report.Assessments {
		assert.Equal(t, types.StatusGray, as.Result.Status)
		assert.Nil(t, as.Alternative)
	}
}

func TestRelativeLabel(t *testing.T) {
	now := time.Date(2025, 3, 31, 22, 0, 0, 0, madrid)

	assert.Equal(t, "Today 23:00", RelativeLabel(time.Date(2025, 3, 31, 23, 0, 0, 0, madrid), now))
	assert.Equal(t, "Tomorrow 07:00", RelativeLabel(time.Date(2025, 4, 1, 7, 0, 0, 0, madrid), now))
	assert.Equal(t, "Wed 2 07:00", RelativeLabel(time.Date(2025, 4, 2, 7, 0, 0, 0, madrid), now))
}
