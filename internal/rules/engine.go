// Package rules turns one hour of an hourly forecast into a traffic-light
// verdict for an activity, and searches nearby hours for a better one.
//
// Everything here is pure: callers pass the series and rule spec in, and
// nothing is cached or shared between calls.
package rules

import (
	"fairweather/internal/types"
)

// Input is everything an evaluator may read for one hour.
type Input struct {
	Snapshot      types.Snapshot
	Series        *types.HourlySeries
	Index         int
	Bounds        types.Bounds
	CheckWetFloor bool

	// Unrounded readings of the hour. Route segments compare these while
	// labels keep the rounded Snapshot values.
	RawTemperature float64
	RawWind        float64
}

// readings returns the temperature and wind an evaluator compares.
func (in Input) readings(raw bool) (temp, wind float64) {
	if raw {
		return in.RawTemperature, in.RawWind
	}
	return in.Snapshot.Temperature, in.Snapshot.Wind
}

// Evaluator scores a single hour. Implementations always fill all four factors.
type Evaluator interface {
	Evaluate(in Input) Findings
}

// activityEvaluators serve activity assessments.
var activityEvaluators = map[types.Mode]Evaluator{
	types.ModeStandard: standardEvaluator{},
	types.ModeMoto:     motoEvaluator{},
	types.ModeLaundry:  laundryEvaluator{},
	types.ModeCar:      carEvaluator{},
	types.ModeWalk:     walkEvaluator{},
	types.ModeBike:     motoEvaluator{snowfallOnly: true},
}

// transportEvaluators serve route segments. Motorcycles and bicycles share
// the two-wheeler table; standard and laundry have no route meaning and fall
// back to it as well.
var transportEvaluators = map[types.Mode]Evaluator{
	types.ModeCar:      carEvaluator{raw: true},
	types.ModeWalk:     walkEvaluator{raw: true},
	types.ModeMoto:     motoEvaluator{snowfallOnly: true, raw: true},
	types.ModeBike:     motoEvaluator{snowfallOnly: true, raw: true},
	types.ModeStandard: motoEvaluator{snowfallOnly: true, raw: true},
	types.ModeLaundry:  motoEvaluator{snowfallOnly: true, raw: true},
}

// EvaluatorFor returns the activity evaluator of mode m.
func EvaluatorFor(m types.Mode) (Evaluator, bool) {
	if parsed, ok := types.ParseMode(string(m)); ok {
		m = parsed
	}
	e, ok := activityEvaluators[m]
	return e, ok
}

// Evaluate scores hour index of series against spec. It never fails: an
// uncovered hour yields a gray "no data" verdict, and an unknown mode or a
// malformed series yields a gray "internal error" verdict.
func Evaluate(series *types.HourlySeries, index int, spec types.RuleSpec) types.EvaluationResult {
	e, ok := EvaluatorFor(spec.Mode)
	return run(series, index, spec, e, ok)
}

// EvaluateTransport scores a route segment at hour index with the transport
// table for mode.
func EvaluateTransport(series *types.HourlySeries, index int, mode types.Mode) types.EvaluationResult {
	e, ok := transportEvaluators[mode]
	return run(series, index, types.RuleSpec{Mode: mode}, e, ok)
}

func run(series *types.HourlySeries, index int, spec types.RuleSpec, e Evaluator, known bool) (result types.EvaluationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = internalError()
		}
	}()

	snap, ok := SnapshotAt(series, index)
	if !ok {
		return NoData()
	}
	if !known {
		return internalError()
	}

	return Report(e.Evaluate(Input{
		Snapshot:      snap,
		Series:        series,
		Index:         index,
		Bounds:        spec.Bounds(),
		CheckWetFloor: spec.CheckWetFloor,

		RawTemperature: series.Temperature[index],
		RawWind:        series.WindSpeed[index],
	}))
}

// IsInternalError reports whether r is the gray verdict for an evaluation fault.
func IsInternalError(r types.EvaluationResult) bool {
	return r.Status == types.StatusGray && r.Message == MessageInternalError
}
