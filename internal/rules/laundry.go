package rules

import (
	"fmt"

	"fairweather/internal/types"
)

// laundryEvaluator judges whether washing hung outside at the target hour
// will dry. Rain is summed over the following twelve hours.
type laundryEvaluator struct{}

func (laundryEvaluator) Evaluate(in Input) Findings {
	var f Findings
	s := in.Snapshot

	temp := factor("Temp", degrees(s.Temperature), types.CategoryTemperature)
	if s.Temperature <= laundryFreezeTemp {
		f.critical(&temp, "Freezing")
	}

	total, wetHours := rainWindow(in.Series, in.Index, laundryWindowHours)
	rainCat := types.CategoryPrecipitation
	if s.IsSnow {
		rainCat = types.CategorySnow
	}
	rain := factor("Rain", "0mm", rainCat)
	switch {
	case total > laundryRainTotalMM:
		rain.Value = fmt.Sprintf("%.1fmm", total)
		f.critical(&rain, "Rain expected")
	case wetHours > 0:
		f.warn(&rain, "Drizzle risk")
	}

	humidity := factor("Humidity", fmt.Sprintf("%.0f%%", roundHalfUp(s.Humidity)), types.CategoryHumidity)
	if s.Humidity > laundryHumidityWarn {
		f.warn(&humidity, "High humidity")
	}

	wind := factor("Wind", kmh(s.Wind), types.CategoryWind)
	switch {
	case s.Wind > laundryWindDanger:
		f.critical(&wind, "Clothes will fly")
	case s.Wind > laundryWindWarn:
		f.warn(&wind, "Excessive wind")
	case s.Wind < laundryStagnantWind && s.Humidity > laundryStagnantHumid:
		wind.Value = "Stagnant"
		f.warn(&wind, "Stagnant humid air")
	case s.Wind < laundryCalmWind:
		wind.Value = "Calm"
	}

	f.Factors = [4]types.Factor{temp, rain, humidity, wind}
	return f
}

// rainWindow sums precipitation over hours [from, from+hours) clipped to the
// series, counting the hours that saw any.
func rainWindow(s *types.HourlySeries, from, hours int) (total float64, wetHours int) {
	end := min(from+hours, s.Len())
	for i := from; i < end; i++ {
		if p := s.Precipitation[i]; p > 0 {
			total += p
			wetHours++
		}
	}
	return total, wetHours
}
