package rules

import "fairweather/internal/types"

// motoEvaluator applies fixed two-wheeler thresholds; the rule spec bounds
// are ignored. With snowfallOnly set, only measured snowfall counts as
// snowing. With raw set, temperature and wind are compared unrounded. Route
// segments set both.
type motoEvaluator struct {
	snowfallOnly bool
	raw          bool
}

func (e motoEvaluator) Evaluate(in Input) Findings {
	var f Findings
	s := in.Snapshot
	snowing := s.IsSnow
	if e.snowfallOnly {
		snowing = s.SnowfallCM > 0
	}
	t, w := in.readings(e.raw)

	temp := factor("Temp", degrees(s.Temperature), types.CategoryTemperature)
	switch {
	case t < motoIceTemp:
		f.critical(&temp, "Ice risk")
	case t < motoColdTemp:
		f.warn(&temp, "Intense cold")
	}

	wind := factor("Wind", kmh(s.Wind), types.CategoryWind)
	switch {
	case w > motoWindDanger:
		f.critical(&wind, "Dangerous wind")
	case w > motoWindWarn:
		f.warn(&wind, "Annoying wind")
	}

	road := factor("Road", "Dry", types.CategoryRoad)
	switch {
	case s.SnowDepthM > 0:
		road.Name, road.Value, road.Category = "Snow", centimetres(s.SnowDepthM), types.CategorySnow
		f.critical(&road, "Snow on road")
	case s.PrecipMM > motoActiveRainMM || snowing:
		if snowing {
			road.Name, road.Value, road.Category = "Snowing", num(s.SnowfallCM)+"cm", types.CategorySnow
		} else {
			road.Name, road.Value, road.Category = "Raining", num(s.PrecipMM)+"mm", types.CategoryPrecipitation
		}
		f.critical(&road, "Active precipitation")
	case s.GroundWet:
		road.Value = "Wet"
		f.warn(&road, "Wet asphalt")
	}

	vis := factor("Visibility", "Good", types.CategoryVisibility)
	switch {
	case IsFog(s.Code):
		vis.Value = "Fog"
		f.warn(&vis, "Reduced visibility")
	case s.PrecipMM > motoVisibilityRain || snowing:
		// The road factor already explains the precipitation.
		vis.Value = "Fair"
		vis.Status = types.StatusYellow
	}

	f.Factors = [4]types.Factor{temp, wind, road, vis}
	return f
}
