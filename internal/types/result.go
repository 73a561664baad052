package types

import "time"

// Status is the traffic-light verdict of a factor or an evaluation.
type Status string

const (
	StatusGreen  Status = "green"
	StatusYellow Status = "yellow"
	StatusRed    Status = "red"
	StatusGray   Status = "gray"
)

// Category tags a factor so clients can pick an icon without parsing names.
type Category string

const (
	CategoryTemperature   Category = "temperature"
	CategoryPrecipitation Category = "precipitation"
	CategorySnow          Category = "snow"
	CategoryWind          Category = "wind"
	CategoryGround        Category = "ground"
	CategoryRoad          Category = "road"
	CategoryVisibility    Category = "visibility"
	CategoryHumidity      Category = "humidity"
	CategoryData          Category = "data"
)

// Factor is one of the four sub-criteria of a verdict.
type Factor struct {
	Name     string   `json:"name"`
	Value    string   `json:"value"`
	Status   Status   `json:"status"`
	Category Category `json:"category"`
}

// EvaluationResult is the verdict for one activity at one hour. Factors always
// has exactly four entries.
type EvaluationResult struct {
	Status   Status   `json:"status"`
	Message  string   `json:"message"`
	Analysis string   `json:"analysis"`
	Factors  []Factor `json:"factors"`
}

// Snapshot is the derived view of a single hour. Temperature and Wind are
// rounded to whole units; Code is already sanitized.
type Snapshot struct {
	Time           time.Time `json:"time"`
	Temperature    float64   `json:"temperature"`
	Wind           float64   `json:"wind"`
	PrecipMM       float64   `json:"precipitation"`
	SnowfallCM     float64   `json:"snowfall"`
	SnowDepthM     float64   `json:"snowDepth"`
	ProbabilityPct float64   `json:"precipitationProbability"`
	Humidity       float64   `json:"humidity"`
	Code           int       `json:"weatherCode"`
	RawCode        int       `json:"rawWeatherCode"`
	IsSnow         bool      `json:"isSnow"`
	GroundWet      bool      `json:"groundWet"`
}
