package types

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Mode selects the evaluator applied to a snapshot.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeMoto     Mode = "moto"
	ModeLaundry  Mode = "laundry"
	ModeCar      Mode = "car"
	ModeWalk     Mode = "walk"
	ModeBike     Mode = "bike"
)

var modeAliases = map[string]Mode{
	"":           ModeStandard,
	"standard":   ModeStandard,
	"moto":       ModeMoto,
	"motorcycle": ModeMoto,
	"laundry":    ModeLaundry,
	"car":        ModeCar,
	"walk":       ModeWalk,
	"bike":       ModeBike,
	"bicycle":    ModeBike,
}

// ParseMode resolves a mode name, accepting the long aliases "motorcycle" and
// "bicycle". An empty name is the standard mode.
func ParseMode(s string) (Mode, bool) {
	m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]
	return m, ok
}

// IsValid reports whether m names a known evaluator.
func (m Mode) IsValid() bool {
	switch m {
	case ModeStandard, ModeMoto, ModeLaundry, ModeCar, ModeWalk, ModeBike:
		return true
	}
	return false
}

// IsTransport reports whether m is one of the route-analysis modes.
func (m Mode) IsTransport() bool {
	switch m {
	case ModeMoto, ModeCar, ModeWalk, ModeBike:
		return true
	}
	return false
}

// UnmarshalJSON normalizes aliases. Unknown names are kept as-is so that a
// stored rule spec with a bad mode still decodes and evaluates to gray.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, ok := ParseMode(s); ok {
		*m = parsed
		return nil
	}
	*m = Mode(s)
	return nil
}

// ScheduleMode selects the best-time search strategy.
type ScheduleMode string

const (
	ScheduleNow       ScheduleMode = "now"
	ScheduleScheduled ScheduleMode = "scheduled"
)

func (s ScheduleMode) IsValid() bool {
	return s == ScheduleNow || s == ScheduleScheduled
}

// Standard-mode defaults applied when a rule spec leaves a bound unset.
const (
	DefaultTempMin = 6.0
	DefaultTempMax = 30.0
	DefaultRainMax = 0.5
	DefaultWindMax = 30.0
)

// RuleSpec is the user-editable tolerance of one activity. Numeric bounds are
// only read by the standard evaluator; nil means "use the default".
type RuleSpec struct {
	Mode          Mode     `json:"mode"`
	TempMin       *float64 `json:"tempMin,omitempty"`
	TempMax       *float64 `json:"tempMax,omitempty"`
	RainMax       *float64 `json:"rainMax,omitempty" validate:"omitempty,gte=0"`
	WindMax       *float64 `json:"windMax,omitempty" validate:"omitempty,gt=0"`
	CheckWetFloor bool     `json:"checkWetFloor,omitempty"`
}

// Bounds are the resolved standard-mode limits of a RuleSpec.
type Bounds struct {
	TempMin float64
	TempMax float64
	RainMax float64
	WindMax float64
}

// Bounds resolves unset limits to their defaults.
func (r RuleSpec) Bounds() Bounds {
	return Bounds{
		TempMin: valueOr(r.TempMin, DefaultTempMin),
		TempMax: valueOr(r.TempMax, DefaultTempMax),
		RainMax: valueOr(r.RainMax, DefaultRainMax),
		WindMax: valueOr(r.WindMax, DefaultWindMax),
	}
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Float returns a pointer to v, for building rule specs in code.
func Float(v float64) *float64 {
	return &v
}

var ruleValidator = newRuleValidator()

func newRuleValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(ruleSpecStructLevel, RuleSpec{})
	return v
}

func ruleSpecStructLevel(sl validator.StructLevel) {
	r := sl.Current().Interface().(RuleSpec)
	mode, ok := ParseMode(string(r.Mode))
	if !ok {
		sl.ReportError(r.Mode, "Mode", "mode", "mode", string(r.Mode))
	}
	if mode == ModeStandard {
		b := r.Bounds()
		if b.TempMin >= b.TempMax {
			sl.ReportError(r.TempMin, "TempMin", "tempMin", "ltfield", "TempMax")
		}
	}
}

// Validate rejects unknown modes, negative limits and an inverted comfort
// band. An empty mode is the standard mode.
func (r RuleSpec) Validate() error {
	err := ruleValidator.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return NewAppErrorWithDetails(ErrCodeValidationInvalidRuleSpec,
			"rule spec is invalid", err, map[string]any{"fields": fields})
	}
	return NewAppError(ErrCodeValidationInvalidRuleSpec, "rule spec is invalid", err)
}
