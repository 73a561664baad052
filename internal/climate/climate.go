// Package climate summarizes decades of daily observations for one calendar
// week: a per-year profile and the trend of the recent years against the
// whole record.
package climate

import (
	"context"
	"math"
	"sort"
	"time"

	"fairweather/internal/types"
)

// RecentYears is the width of the recent window compared with the full record.
const RecentYears = 15

// Years with more precipitation than this in the week count as rainy.
const rainyWeekMM = 1.0

// Likelihood buckets the share of rainy years.
type Likelihood string

const (
	LikelihoodNone     Likelihood = "none"
	LikelihoodLow      Likelihood = "low"
	LikelihoodMedium   Likelihood = "medium"
	LikelihoodHigh     Likelihood = "high"
	LikelihoodVeryHigh Likelihood = "very_high"
)

// YearStat aggregates one year's days of the selected week. Values are
// rounded to one decimal.
type YearStat struct {
	Year      int     `json:"year"`
	AvgTemp   float64 `json:"avgTemp"`
	TotalRain float64 `json:"totalRain"`
	MeanMax   float64 `json:"meanMax"`
	MeanMin   float64 `json:"meanMin"`
}

// Trends compares the recent years with the full record.
type Trends struct {
	AvgMax          float64    `json:"avgMax"`
	AvgMin          float64    `json:"avgMin"`
	TempDelta       float64    `json:"tempDelta"`
	RainDelta       float64    `json:"rainDelta"`
	RainProbability int        `json:"rainProbability"`
	RainLikelihood  Likelihood `json:"rainLikelihood"`
}

// Summary is the climate view of one location and week.
type Summary struct {
	Location  types.Location `json:"location"`
	Week      int            `json:"week"`
	WeekStart time.Time      `json:"weekStart"`
	WeekEnd   time.Time      `json:"weekEnd"`
	Years     []YearStat     `json:"years"`
	Trends    *Trends        `json:"trends,omitempty"`
}

// WeeklyStats groups the days that fall in ISO week `week` by calendar year.
// Missing observations are skipped; a year without any mean temperature is
// left out.
func WeeklyStats(d *types.DailySeries, week int) []YearStat {
	if d == nil {
		return nil
	}
	type acc struct{ temps, rains, maxs, mins []float64 }
	years := map[int]*acc{}
	for i, t := range d.Time {
		if _, w := t.ISOWeek(); w != week {
			continue
		}
		a, ok := years[t.Year()]
		if !ok {
			a = &acc{}
			years[t.Year()] = a
		}
		a.temps = appendPresent(a.temps, d.TemperatureMean, i)
		a.rains = appendPresent(a.rains, d.PrecipitationSum, i)
		a.maxs = appendPresent(a.maxs, d.TemperatureMax, i)
		a.mins = appendPresent(a.mins, d.TemperatureMin, i)
	}

	out := make([]YearStat, 0, len(years))
	for y, a := range years {
		if len(a.temps) == 0 {
			continue
		}
		out = append(out, YearStat{
			Year:      y,
			AvgTemp:   round1(mean(a.temps)),
			TotalRain: round1(sum(a.rains)),
			MeanMax:   round1(mean(a.maxs)),
			MeanMin:   round1(mean(a.mins)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// ComputeTrends derives the trend figures from per-year stats. Years from
// currentYear-RecentYears onwards form the recent window. It returns nil for
// no data.
func ComputeTrends(stats []YearStat, currentYear int) *Trends {
	if len(stats) == 0 {
		return nil
	}
	cutoff := currentYear - RecentYears
	n := float64(len(stats))
	var totalTemp, totalRain, sumMax, sumMin, recentTemp, recentRain float64
	var recentCount, rainyYears int
	for _, s := range stats {
		totalTemp += s.AvgTemp
		totalRain += s.TotalRain
		sumMax += s.MeanMax
		sumMin += s.MeanMin
		if s.TotalRain > rainyWeekMM {
			rainyYears++
		}
		if s.Year >= cutoff {
			recentTemp += s.AvgTemp
			recentRain += s.TotalRain
			recentCount++
		}
	}
	var recentAvgTemp, recentAvgRain float64
	if recentCount > 0 {
		recentAvgTemp = recentTemp / float64(recentCount)
		recentAvgRain = recentRain / float64(recentCount)
	}
	prob := float64(rainyYears) / n * 100
	return &Trends{
		AvgMax:          round1(sumMax / n),
		AvgMin:          round1(sumMin / n),
		TempDelta:       round1(recentAvgTemp - totalTemp/n),
		RainDelta:       round1(recentAvgRain - totalRain/n),
		RainProbability: int(math.Floor(prob + 0.5)),
		RainLikelihood:  likelihood(prob),
	}
}

func likelihood(pct float64) Likelihood {
	switch {
	case pct >= 80:
		return LikelihoodVeryHigh
	case pct >= 60:
		return LikelihoodHigh
	case pct >= 30:
		return LikelihoodMedium
	case pct > 0:
		return LikelihoodLow
	}
	return LikelihoodNone
}

// WeekBounds returns the Monday and Sunday of ISO week `week` of `year`.
func WeekBounds(year, week int) (time.Time, time.Time) {
	// January 4th is always in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset+(week-1)*7)
	return monday, monday.AddDate(0, 0, 6)
}

// HistorySource returns the daily archive for a location.
type HistorySource interface {
	History(ctx context.Context, loc types.Location) (*types.DailySeries, error)
}

// Service builds climate summaries.
type Service struct {
	source HistorySource
	clock  types.Clock
}

func NewService(source HistorySource, clock types.Clock) *Service {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Service{source: source, clock: clock}
}

// Summarize builds the summary of loc for ISO week `week`; zero selects the
// current week.
func (s *Service) Summarize(ctx context.Context, loc types.Location, week int) (*Summary, error) {
	now := s.clock.Now()
	if week == 0 {
		_, week = now.ISOWeek()
	}
	if week < 1 || week > 53 {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidTime,
			"week must be between 1 and 53", nil, map[string]any{"week": week})
	}
	daily, err := s.source.History(ctx, loc)
	if err != nil {
		return nil, err
	}
	stats := WeeklyStats(daily, week)
	start, end := WeekBounds(now.Year(), week)
	return &Summary{
		Location:  loc,
		Week:      week,
		WeekStart: start,
		WeekEnd:   end,
		Years:     stats,
		Trends:    ComputeTrends(stats, now.Year()),
	}, nil
}

func appendPresent(dst []float64, src []*float64, i int) []float64 {
	if i < len(src) && src[i] != nil {
		return append(dst, *src[i])
	}
	return dst
}

func sum(vs []float64) float64 {
	var t float64
	for _, v := range vs {
		t += v
	}
	return t
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	return sum(vs) / float64(len(vs))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
