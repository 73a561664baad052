package rules

// WMO weather interpretation codes used by the forecast provider.
const (
	CodeClear          = 0
	CodeCloudy         = 3
	CodeFog            = 45
	CodeRimeFog        = 48
	CodeRainModerate   = 63
	CodeRainHeavy      = 65
	CodeShowerLight    = 80
	CodeShowerModerate = 81
	CodeShowerHeavy    = 82
	CodeThunderstorm   = 95
)

// Sanitizer cut-offs.
const (
	noiseProbabilityPct = 30.0
	tracePrecipMM       = 0.15
	lightPrecipMM       = 1.5
)

// Sanitize reconciles a coarse condition code with the hour's actual
// accumulation and probability. Improbable wet codes become cloudy, wet codes
// without measurable accumulation become cloudy, and heavy codes with little
// accumulation are stepped down one intensity.
func Sanitize(code int, precipMM, probabilityPct float64) int {
	if probabilityPct < noiseProbabilityPct && (isDrizzleOrRain(code) || isShower(code)) {
		return CodeCloudy
	}

	if precipMM < tracePrecipMM {
		if code > CodeRimeFog && !IsThunderstorm(code) && !IsSnowCode(code) {
			return CodeCloudy
		}
		return code
	}

	if precipMM < lightPrecipMM {
		switch code {
		case CodeRainHeavy:
			return CodeRainModerate
		case CodeShowerHeavy:
			return CodeShowerModerate
		case CodeShowerModerate:
			return CodeShowerLight
		}
	}

	return code
}

func isDrizzleOrRain(code int) bool { return code >= 51 && code <= 67 }
func isShower(code int) bool        { return code >= 80 && code <= 82 }

// IsSnowCode reports snowfall and snow-shower codes.
func IsSnowCode(code int) bool {
	return (code >= 71 && code <= 77) || code == 85 || code == 86
}

func IsThunderstorm(code int) bool { return code >= CodeThunderstorm }

// IsFog reports the two fog codes.
func IsFog(code int) bool { return code == CodeFog || code == CodeRimeFog }

// Describe returns a short English label for a condition code.
func Describe(code int) string {
	switch {
	case code == CodeClear:
		return "Clear"
	case code >= 1 && code <= 3:
		return "Cloudy"
	case code >= 45 && code <= 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code == 61:
		return "Light rain"
	case code == CodeRainModerate:
		return "Moderate rain"
	case code == CodeRainHeavy:
		return "Heavy rain"
	case code == 66 || code == 67:
		return "Freezing rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code == CodeShowerLight:
		return "Light showers"
	case code == CodeShowerModerate:
		return "Showers"
	case code == CodeShowerHeavy:
		return "Heavy showers"
	case code == 85 || code == 86:
		return "Snow"
	case IsThunderstorm(code):
		return "Thunderstorm"
	}
	return "Unknown"
}
