package rules

import (
	"fmt"
	"strings"

	"fairweather/internal/types"
)

// standardEvaluator scores outdoor activities against the comfort band,
// precipitation and wind tolerances of the rule spec.
type standardEvaluator struct{}

func (standardEvaluator) Evaluate(in Input) Findings {
	var f Findings
	s := in.Snapshot
	b := in.Bounds

	temp := factor("Temp", degrees(s.Temperature), types.CategoryTemperature)
	switch {
	case s.Temperature < stdSafetyMinTemp:
		f.critical(&temp, fmt.Sprintf("Dangerous cold (%s)", degrees(s.Temperature)))
	case s.Temperature <= b.TempMin-stdTempBuffer:
		f.critical(&temp, fmt.Sprintf("Too cold (%s)", degrees(s.Temperature)))
	case s.Temperature < b.TempMin:
		f.warn(&temp, fmt.Sprintf("Intense cold (%s)", degrees(s.Temperature)))
	case s.Temperature > b.TempMax+stdTempBuffer:
		f.critical(&temp, fmt.Sprintf("Extreme heat (%s)", degrees(s.Temperature)))
	case s.Temperature > b.TempMax:
		f.warn(&temp, fmt.Sprintf("Excess heat (%s)", degrees(s.Temperature)))
	}

	amount, name, unit, cat := s.PrecipMM, "Rain", "mm", types.CategoryPrecipitation
	if s.IsSnow {
		amount, name, unit, cat = s.SnowfallCM, "Snow", "cm", types.CategorySnow
	}
	precip := factor(name, num(amount)+unit, cat)
	switch {
	case amount > b.RainMax:
		f.critical(&precip, "Heavy "+strings.ToLower(name))
	case amount > 0 || (amount == 0 && s.ProbabilityPct > stdRainProbWarnPct):
		f.warn(&precip, name+" risk")
	}

	wind := factor("Wind", kmh(s.Wind), types.CategoryWind)
	switch {
	case s.Wind > b.WindMax:
		f.critical(&wind, "Strong wind")
	case s.Wind > b.WindMax*stdWindWarnRatio:
		f.warn(&wind, "Moderate wind")
	}

	ground := factor("Ground", "Dry", types.CategoryGround)
	switch {
	case s.SnowDepthM > 0:
		ground.Value = "Snow " + centimetres(s.SnowDepthM)
		ground.Category = types.CategorySnow
		if s.SnowDepthM > stdSnowDepthBlockM && !s.IsSnow {
			f.critical(&ground, "Accumulated snow")
		} else {
			f.warn(&ground, "Snowed ground")
		}
	case s.GroundWet:
		ground.Value = "Wet"
		if in.CheckWetFloor {
			f.warn(&ground, "Wet ground")
		}
	}

	f.Factors = [4]types.Factor{temp, precip, wind, ground}
	return f
}
