package rules

// Snapshot derivation.
const (
	snowTempCeiling   = 2.0 // precipitation below this temperature counts as snow
	wetGroundLookback = 2   // hours summed for the wet-ground flag
	wetGroundMM       = 0.5
)

// Standard evaluator. The comfort band itself comes from the rule spec.
const (
	stdSafetyMinTemp   = -5.0 // red regardless of the rule spec
	stdTempBuffer      = 5.0  // yellow band width on either side of the comfort band
	stdRainProbWarnPct = 40.0 // dry hour with a higher probability is still a warning
	stdWindWarnRatio   = 0.7  // fraction of windMax at which wind turns yellow
	stdSnowDepthBlockM = 0.05 // settled snow deeper than this blocks use
)

// Motorcycle evaluator, also used for bicycles.
const (
	motoIceTemp        = 2.0
	motoColdTemp       = 6.0
	motoWindDanger     = 50.0
	motoWindWarn       = 30.0
	motoActiveRainMM   = 0.2
	motoVisibilityRain = 2.0
)

// Laundry evaluator.
const (
	laundryFreezeTemp    = 0.0
	laundryWindowHours   = 12
	laundryRainTotalMM   = 0.5
	laundryHumidityWarn  = 85.0
	laundryWindDanger    = 50.0
	laundryWindWarn      = 40.0
	laundryStagnantWind  = 10.0
	laundryStagnantHumid = 70.0
	laundryCalmWind      = 5.0
)

// Car evaluator.
const (
	carSevereIceTemp    = -5.0
	carIceTemp          = 0.0
	carWindDanger       = 90.0
	carWindWarn         = 60.0
	carTorrentialMM     = 5.0
	carRainWarnMM       = 0.5
	carZeroVisibilityMM = 10.0
)

// Walk evaluator.
const (
	walkDangerColdTemp = -5.0
	walkColdTemp       = 5.0
	walkExtremeHeat    = 35.0
	walkHeat           = 30.0
	walkHeavyRainMM    = 2.0
	walkRainMM         = 0.5
	walkWindDanger     = 50.0
	walkWindWarn       = 30.0
)
