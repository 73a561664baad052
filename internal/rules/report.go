package rules

import (
	"fmt"
	"strconv"
	"strings"

	"fairweather/internal/types"
)

const factorCount = 4

// Findings is what an evaluator reports before aggregation.
type Findings struct {
	Criticals []string
	Warnings  []string
	Factors   [factorCount]types.Factor
}

func (f *Findings) critical(fac *types.Factor, reason string) {
	fac.Status = types.StatusRed
	f.Criticals = append(f.Criticals, reason)
}

func (f *Findings) warn(fac *types.Factor, reason string) {
	fac.Status = types.StatusYellow
	f.Warnings = append(f.Warnings, reason)
}

// Report folds findings into a verdict. Any critical makes it red, otherwise
// any warning makes it yellow. Factor statuses are reported as computed.
func Report(f Findings) types.EvaluationResult {
	factors := f.Factors[:]
	switch {
	case len(f.Criticals) > 0:
		return types.EvaluationResult{
			Status:   types.StatusRed,
			Message:  fmt.Sprintf("%d of %d conditions out of range", len(f.Criticals), factorCount),
			Analysis: joinReasons(f.Criticals),
			Factors:  factors,
		}
	case len(f.Warnings) > 0:
		return types.EvaluationResult{
			Status:   types.StatusYellow,
			Message:  fmt.Sprintf("%d of %d warnings", len(f.Warnings), factorCount),
			Analysis: joinReasons(f.Warnings),
			Factors:  factors,
		}
	default:
		return types.EvaluationResult{
			Status:   types.StatusGreen,
			Message:  "ideal conditions",
			Analysis: fmt.Sprintf("All %d parameters are within the optimal range.", factorCount),
			Factors:  factors,
		}
	}
}

func joinReasons(reasons []string) string {
	return strings.Join(reasons, ". ") + "."
}

// Gray results.
const (
	MessageNoData        = "no data"
	MessageInternalError = "internal error"
)

func grayResult(message, analysis string) types.EvaluationResult {
	factors := make([]types.Factor, factorCount)
	for i := range factors {
		factors[i] = types.Factor{Name: "Data", Value: "--", Status: types.StatusGray, Category: types.CategoryData}
	}
	return types.EvaluationResult{
		Status:   types.StatusGray,
		Message:  message,
		Analysis: analysis,
		Factors:  factors,
	}
}

// NoData is the verdict for an hour the series does not cover.
func NoData() types.EvaluationResult {
	return grayResult(MessageNoData, "Information not available.")
}

func internalError() types.EvaluationResult {
	return grayResult(MessageInternalError, "Internal evaluation failure.")
}

// factor starts a green factor.
func factor(name, value string, cat types.Category) types.Factor {
	return types.Factor{Name: name, Value: value, Status: types.StatusGreen, Category: cat}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func degrees(v float64) string {
	return num(v) + "°"
}

func kmh(v float64) string {
	return num(v) + " km/h"
}

// centimetres renders a depth in metres as whole centimetres.
func centimetres(m float64) string {
	return num(roundHalfUp(m*100)) + "cm"
}
