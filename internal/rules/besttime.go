package rules

import "fairweather/internal/types"

// Search windows, in hours.
const (
	nowLookahead    = 48
	scheduledRadius = 24
)

// FindBestTime looks for a green hour other than target.
//
// In now mode it scans the next 48 hours and returns the first green one.
// In scheduled mode it scans 24 hours either side of target, never before
// current, and returns the green hour closest to target, preferring the
// earlier one on a tie. Pass current = -1 when the series lies entirely in
// the past.
//
// The activity's duration is not checked: a single green hour qualifies even
// if the activity outlasts it.
func FindBestTime(series *types.HourlySeries, spec types.RuleSpec, target int, mode types.ScheduleMode, current int) (int, bool) {
	last := series.Len() - 1
	if last < 0 {
		return -1, false
	}

	switch mode {
	case types.ScheduleNow:
		for i := target + 1; i <= min(last, target+nowLookahead); i++ {
			if isGreen(series, i, spec) {
				return i, true
			}
		}
		return -1, false

	case types.ScheduleScheduled:
		best, bestDist := -1, 0
		for i := max(current, target-scheduledRadius, 0); i <= min(last, target+scheduledRadius); i++ {
			if i == target || !isGreen(series, i, spec) {
				continue
			}
			if d := abs(i - target); best == -1 || d < bestDist {
				best, bestDist = i, d
			}
		}
		return best, best != -1
	}

	return -1, false
}

func isGreen(series *types.HourlySeries, i int, spec types.RuleSpec) bool {
	return Evaluate(series, i, spec).Status == types.StatusGreen
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
