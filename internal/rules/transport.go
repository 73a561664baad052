package rules

import "fairweather/internal/types"

// carEvaluator scores a drive. Cars are sheltered from cold and light rain,
// so only ice, storms, snow and heavy rain matter.
type carEvaluator struct {
	raw bool
}

func (e carEvaluator) Evaluate(in Input) Findings {
	var f Findings
	s := in.Snapshot
	snowing := s.SnowfallCM > 0
	t, w := in.readings(e.raw)

	temp := factor("Temp", degrees(s.Temperature), types.CategoryTemperature)
	switch {
	case t < carSevereIceTemp:
		f.critical(&temp, "Severe ice")
	case t < carIceTemp:
		f.warn(&temp, "Possible ice")
	}

	wind := factor("Wind", kmh(s.Wind), types.CategoryWind)
	switch {
	case w > carWindDanger:
		f.critical(&wind, "Hurricane wind")
	case w > carWindWarn:
		f.warn(&wind, "Strong wind")
	}

	road := factor("Rain", "Dry", types.CategoryRoad)
	switch {
	case s.SnowDepthM > 0:
		road.Name, road.Value, road.Category = "Snow", centimetres(s.SnowDepthM), types.CategorySnow
		f.critical(&road, "Snowy road")
	case snowing:
		road.Name, road.Value, road.Category = "Snow", num(s.SnowfallCM)+"cm", types.CategorySnow
		f.critical(&road, "Snowing")
	case s.PrecipMM > carTorrentialMM:
		road.Value = num(s.PrecipMM) + "mm"
		f.critical(&road, "Torrential rain")
	case s.PrecipMM > carRainWarnMM:
		road.Value = num(s.PrecipMM) + "mm"
		f.warn(&road, "Rain on route")
	case s.PrecipMM > 0:
		road.Value = "Drizzle"
	}

	vis := factor("Visibility", "Good", types.CategoryVisibility)
	switch {
	case IsFog(s.Code):
		vis.Value = "Fog"
		f.warn(&vis, "Dense fog")
	case s.PrecipMM > carZeroVisibilityMM:
		vis.Value = "Poor"
		f.critical(&vis, "Zero visibility")
	}

	f.Factors = [4]types.Factor{temp, wind, road, vis}
	return f
}

// walkEvaluator scores a walk. Pedestrians are exposed to everything, so
// even drizzle is a warning.
type walkEvaluator struct {
	raw bool
}

func (e walkEvaluator) Evaluate(in Input) Findings {
	var f Findings
	s := in.Snapshot
	snowing := s.SnowfallCM > 0
	t, w := in.readings(e.raw)

	temp := factor("Temp", degrees(s.Temperature), types.CategoryTemperature)
	switch {
	case t < walkDangerColdTemp:
		f.critical(&temp, "Dangerous cold")
	case t < walkColdTemp:
		f.warn(&temp, "Intense cold")
	case t > walkExtremeHeat:
		f.critical(&temp, "Extreme heat")
	case t > walkHeat:
		f.warn(&temp, "Heat")
	}

	precip := factor("Rain", num(s.PrecipMM)+"mm", types.CategoryPrecipitation)
	if snowing {
		precip = factor("Snow", num(s.SnowfallCM)+"cm", types.CategorySnow)
	}
	switch {
	case snowing:
		f.critical(&precip, "Snowfall")
	case s.PrecipMM > walkHeavyRainMM:
		f.critical(&precip, "Heavy rain")
	case s.PrecipMM > walkRainMM:
		f.warn(&precip, "Rain")
	case s.PrecipMM > 0:
		f.warn(&precip, "Drizzle")
	}

	wind := factor("Wind", kmh(s.Wind), types.CategoryWind)
	switch {
	case w > walkWindDanger:
		f.critical(&wind, "Strong wind")
	case w > walkWindWarn:
		f.warn(&wind, "Annoying wind")
	}

	ground := factor("Ground", "Dry", types.CategoryGround)
	if s.GroundWet {
		ground.Value = "Wet"
		f.warn(&ground, "Wet ground")
	}

	f.Factors = [4]types.Factor{temp, precip, wind, ground}
	return f
}
