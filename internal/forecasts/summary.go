package forecasts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"fairweather/internal/rules"
	"fairweather/internal/types"
)

const (
	rainingNowMM       = 0.15
	significantRainMM  = 0.25
	significantRainPct = 30.0
	frostTemp          = -5.0
	polarTemp          = -10.0
	traceMM            = 0.1
	laundryHours       = 12
	laundryDryMM       = 0.2
	summaryHours       = 24
)

// OutlookKind classifies the precipitation outlook.
type OutlookKind string

const (
	OutlookDry       OutlookKind = "dry"
	OutlookFrost     OutlookKind = "frost"
	OutlookContinues OutlookKind = "continues"
	OutlookStops     OutlookKind = "stops"
	OutlookIncoming  OutlookKind = "incoming"
)

// Outlook says when the current precipitation stops or the next one starts.
type Outlook struct {
	Kind OutlookKind `json:"kind"`
	Text string      `json:"text"`
	At   *time.Time  `json:"at,omitempty"`
	Snow bool        `json:"snow"`
}

// Conditions describe the current hour.
type Conditions struct {
	Time           time.Time `json:"time"`
	Temperature    float64   `json:"temperature"`
	Code           int       `json:"code"`
	Description    string    `json:"description"`
	PrecipMM       float64   `json:"precipMm"`
	SnowfallCM     float64   `json:"snowfallCm"`
	SnowDepthM     float64   `json:"snowDepthM"`
	WindKmh        float64   `json:"windKmh"`
	Humidity       float64   `json:"humidity"`
	ProbabilityPct float64   `json:"probabilityPct"`
}

// HourSummary is one row of the upcoming-hours list. Code is sanitized.
type HourSummary struct {
	Time           time.Time `json:"time"`
	Temperature    float64   `json:"temperature"`
	Code           int       `json:"code"`
	ProbabilityPct float64   `json:"probabilityPct"`
	PrecipMM       float64   `json:"precipMm"`
	SnowfallCM     float64   `json:"snowfallCm"`
	SnowDepthM     float64   `json:"snowDepthM"`
}

// Astro holds the day's sun times and the moon phase.
type Astro struct {
	Sunrise   *time.Time `json:"sunrise,omitempty"`
	Sunset    *time.Time `json:"sunset,omitempty"`
	MoonPhase MoonPhase  `json:"moonPhase"`
}

// Summary is the digest of a forecast as of one instant.
type Summary struct {
	Current Conditions `json:"current"`
	// Covered is false when now falls outside the series and the summary
	// starts at its first hour instead.
	Covered     bool          `json:"covered"`
	RainingNow  bool          `json:"rainingNow"`
	SnowingNow  bool          `json:"snowingNow"`
	Outlook     Outlook       `json:"outlook"`
	LaundrySafe bool          `json:"laundrySafe"`
	Hourly      []HourSummary `json:"hourly"`
	Astro       Astro         `json:"astro"`
}

// Summarize digests s as of now: current conditions, the precipitation
// outlook, whether the next 12 hours stay dry enough for laundry, the next 24
// hours and the sun and moon.
func Summarize(s *types.HourlySeries, now time.Time) (*Summary, error) {
	if s.Len() == 0 {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidSeries, "series has no hours", nil)
	}
	start := rules.IndexAtOrAfter(s, now)
	zone := s.Time[start].Location()
	now = now.In(zone)

	precip := s.Precipitation[start]
	prob := valueAt(s.PrecipitationProbability, start, 100)
	code := rules.Sanitize(s.WeatherCode[start], precip, prob)
	sum := &Summary{
		Current: Conditions{
			Time:           s.Time[start],
			Temperature:    math.Round(s.Temperature[start]),
			Code:           code,
			Description:    rules.Describe(code),
			PrecipMM:       precip,
			SnowfallCM:     valueAt(s.Snowfall, start, 0),
			SnowDepthM:     valueAt(s.SnowDepth, start, 0),
			WindKmh:        s.WindSpeed[start],
			Humidity:       valueAt(s.RelativeHumidity, start, 0),
			ProbabilityPct: prob,
		},
		Covered:     rules.Covers(s, now),
		RainingNow:  precip >= rainingNowMM,
		SnowingNow:  valueAt(s.Snowfall, start, 0) > 0,
		LaundrySafe: laundrySafe(s, start),
		Astro: Astro{
			Sunrise:   sameDayOrFirst(s.Sunrise, now),
			Sunset:    sameDayOrFirst(s.Sunset, now),
			MoonPhase: MoonPhaseAt(now),
		},
	}
	sum.Outlook = outlook(s, start, now, sum.RainingNow, sum.SnowingNow)

	end := min(s.Len(), start+summaryHours)
	sum.Hourly = make([]HourSummary, 0, end-start)
	for i := start; i < end; i++ {
		mm := s.Precipitation[i]
		p := valueAt(s.PrecipitationProbability, i, 100)
		sum.Hourly = append(sum.Hourly, HourSummary{
			Time:           s.Time[i],
			Temperature:    math.Round(s.Temperature[i]),
			Code:           rules.Sanitize(s.WeatherCode[i], mm, p),
			ProbabilityPct: p,
			PrecipMM:       mm,
			SnowfallCM:     valueAt(s.Snowfall, i, 0),
			SnowDepthM:     valueAt(s.SnowDepth, i, 0),
		})
	}
	return sum, nil
}

func outlook(s *types.HourlySeries, start int, now time.Time, raining, snowing bool) Outlook {
	if !raining && !snowing && s.Temperature[start] <= frostTemp {
		return Outlook{Kind: OutlookFrost, Text: "Freezing air"}
	}
	if raining || snowing {
		noun := "Rain"
		if snowing {
			noun = "Snow"
		}
		for i := start; i < s.Len(); i++ {
			if s.Precipitation[i] < rainingNowMM {
				t := s.Time[i]
				return Outlook{Kind: OutlookStops, Text: noun + " stops at " + t.Format("15:04"), At: &t, Snow: snowing}
			}
		}
		return Outlook{Kind: OutlookContinues, Text: noun + " continues", Snow: snowing}
	}
	for i := start; i < s.Len(); i++ {
		mm := s.Precipitation[i]
		p := valueAt(s.PrecipitationProbability, i, 100)
		if mm < significantRainMM || p < significantRainPct {
			continue
		}
		t := s.Time[i]
		snow := valueAt(s.Snowfall, i, 0) > 0
		text := fmt.Sprintf("%s %s %s", RainText(p, mm, snow, s.Temperature[i]), dayPrefix(t, now), t.Format("15:04"))
		return Outlook{Kind: OutlookIncoming, Text: text, At: &t, Snow: snow}
	}
	return Outlook{Kind: OutlookDry, Text: "No precipitation"}
}

// dayPrefix phrases t relative to now's calendar day.
func dayPrefix(t, now time.Time) string {
	switch days := calendarDays(now, t); days {
	case 0:
		return "at"
	case 1:
		return "tomorrow at"
	default:
		return t.Weekday().String() + " at"
	}
}

func calendarDays(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = to.In(from.Location())
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// RainText names a precipitation amount and its likelihood, e.g. "Likely
// light rain". Dry hours at or below -5 °C are described by the cold instead.
func RainText(probPct, mm float64, snow bool, temp float64) string {
	if temp <= frostTemp && mm < traceMM {
		if temp <= polarTemp {
			return "Polar cold"
		}
		return "Freezing air"
	}
	noun := "rain"
	if snow {
		noun = "snow"
	}
	if mm < traceMM {
		return "No significant " + noun
	}

	var text string
	switch {
	case snow && mm < 0.5:
		text = "Light snowfall"
	case snow && mm < 2:
		text = "Moderate snowfall"
	case snow:
		text = "Heavy snowfall"
	case mm < 0.5:
		text = "Drizzle"
	case mm < 2:
		text = "Light rain"
	case mm < 7:
		text = "Moderate rain"
	default:
		text = "Heavy rain"
	}

	switch {
	case probPct < 30:
		return "Possible " + strings.ToLower(text)
	case probPct < 70:
		return "Likely " + strings.ToLower(text)
	case mm < 0.5 && snow:
		return "Scattered flakes"
	case mm < 0.5:
		return "Persistent drizzle"
	}
	return text + " expected"
}

func laundrySafe(s *types.HourlySeries, start int) bool {
	end := min(s.Len(), start+laundryHours)
	for _, mm := range s.Precipitation[start:end] {
		if mm >= laundryDryMM {
			return false
		}
	}
	return true
}

func sameDayOrFirst(ts types.Timestamps, now time.Time) *time.Time {
	if len(ts) == 0 {
		return nil
	}
	for _, t := range ts {
		if calendarDays(now, t) == 0 {
			return &t
		}
	}
	t := ts[0]
	return &t
}

func valueAt(values []float64, i int, def float64) float64 {
	if len(values) == 0 {
		return def
	}
	return values[i]
}

// MoonPhase names the lunar phase.
type MoonPhase string

const (
	MoonNew            MoonPhase = "new"
	MoonWaxingCrescent MoonPhase = "waxing_crescent"
	MoonFirstQuarter   MoonPhase = "first_quarter"
	MoonWaxingGibbous  MoonPhase = "waxing_gibbous"
	MoonFull           MoonPhase = "full"
	MoonWaningGibbous  MoonPhase = "waning_gibbous"
	MoonLastQuarter    MoonPhase = "last_quarter"
	MoonWaningCrescent MoonPhase = "waning_crescent"
)

const synodicMonth = 29.5305882

// MoonPhaseAt approximates the phase on t's calendar date.
func MoonPhaseAt(t time.Time) MoonPhase {
	year, month, day := t.Year(), int(t.Month()), t.Day()
	if month < 3 {
		year--
		month += 12
	}
	month++
	elapsed := 365.25*float64(year) + 30.6*float64(month) + float64(day) - 694039.09
	cycles := elapsed / synodicMonth
	phase := cycles - math.Floor(cycles)

	switch {
	case phase < 0.05:
		return MoonNew
	case phase < 0.20:
		return MoonWaxingCrescent
	case phase < 0.30:
		return MoonFirstQuarter
	case phase < 0.45:
		return MoonWaxingGibbous
	case phase < 0.55:
		return MoonFull
	case phase < 0.70:
		return MoonWaningGibbous
	case phase < 0.80:
		return MoonLastQuarter
	case phase < 0.95:
		return MoonWaningCrescent
	}
	return MoonNew
}
