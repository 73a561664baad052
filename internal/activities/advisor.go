package activities

import (
	"log/slog"
	"time"

	"fairweather/internal/rules"
	"fairweather/internal/types"
)

// AlternativeKind describes how an alternative hour was searched for.
type AlternativeKind string

const (
	AlternativeNext48h  AlternativeKind = "best_next_48h"
	AlternativeAround24 AlternativeKind = "alternative_24h"
)

// Alternative is the suggested green hour for a non-green verdict. Found is
// false when the search window had no green hour.
type Alternative struct {
	Kind  AlternativeKind `json:"kind"`
	Found bool            `json:"found"`
	Time  *time.Time      `json:"time,omitempty"`
	Label string          `json:"label"`
}

// Assessment is the verdict of one activity at the target hour.
type Assessment struct {
	Activity    types.Activity         `json:"activity"`
	Result      types.EvaluationResult `json:"result"`
	Alternative *Alternative           `json:"alternative,omitempty"`
}

// Conditions summarizes the target hour for display next to the verdicts.
type Conditions struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Wind        float64   `json:"wind"`
	Code        int       `json:"weatherCode"`
	Condition   string    `json:"condition"`
}

// Report is a full assessment of every activity at one target hour.
type Report struct {
	Mode        types.ScheduleMode `json:"mode"`
	Target      time.Time          `json:"target"`
	Covered     bool               `json:"covered"`
	Conditions  *Conditions        `json:"conditions,omitempty"`
	Assessments []Assessment       `json:"assessments"`
}

// Advisor assesses activities against a forecast series.
type Advisor struct {
	clock  types.Clock
	logger *slog.Logger
}

// NewAdvisor creates an Advisor. A nil logger discards output.
func NewAdvisor(clock types.Clock, logger *slog.Logger) *Advisor {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Advisor{clock: clock, logger: logger}
}

// Assess evaluates every activity at the target hour. In now mode the target
// is the current time and at is ignored; in scheduled mode the target is at.
// Non-green verdicts carry the best alternative hour.
func (a *Advisor) Assess(series *types.HourlySeries, acts []types.Activity, mode types.ScheduleMode, at time.Time) Report {
	now := a.clock.Now()
	target := now
	if mode == types.ScheduleScheduled {
		target = at
	}

	idx := rules.IndexAtOrAfter(series, target)
	covered := rules.Covers(series, target)
	if !covered {
		a.logger.Warn("target hour outside forecast, falling back to first hour",
			"target", target, "hours", series.Len())
	}

	current := -1
	if mode == types.ScheduleScheduled {
		current = rules.FirstIndexFrom(series, now)
	}

	report := Report{
		Mode:        mode,
		Target:      target,
		Covered:     covered,
		Assessments: make([]Assessment, 0, len(acts)),
	}
	if snap, ok := rules.SnapshotAt(series, idx); ok {
		report.Conditions = &Conditions{
			Time:        snap.Time,
			Temperature: snap.Temperature,
			Wind:        snap.Wind,
			Code:        snap.Code,
			Condition:   rules.Describe(snap.Code),
		}
	}

	for _, act := range acts {
		res := rules.Evaluate(series, idx, act.Rules)
		if rules.IsInternalError(res) {
			a.logger.Error("activity evaluation failed", "activity_id", act.ID, "mode", act.Rules.Mode)
		}
		as := Assessment{Activity: act, Result: res}
		if res.Status != types.StatusGreen && res.Status != types.StatusGray {
			as.Alternative = a.alternative(series, act.Rules, idx, mode, current, now)
		}
		report.Assessments = append(report.Assessments, as)
	}
	return report
}

func (a *Advisor) alternative(series *types.HourlySeries, spec types.RuleSpec, idx int, mode types.ScheduleMode, current int, now time.Time) *Alternative {
	alt := &Alternative{Kind: AlternativeNext48h}
	if mode == types.ScheduleScheduled {
		alt.Kind = AlternativeAround24
	}
	best, ok := rules.FindBestTime(series, spec, idx, mode, current)
	if !ok {
		alt.Label = "No good time found"
		return alt
	}
	t := series.Time[best]
	alt.Found = true
	alt.Time = &t
	alt.Label = RelativeLabel(t, now)
	return alt
}

// RelativeLabel renders t as "Today 15:00", "Tomorrow 09:00" or "Sat 14 18:00",
// judged in t's own zone.
func RelativeLabel(t, now time.Time) string {
	now = now.In(t.Location())
	clock := t.Format("15:04")
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	switch {
	case ty == ny && tm == nm && td == nd:
		return "Today " + clock
	case isNextDay(now, t):
		return "Tomorrow " + clock
	}
	return t.Format("Mon 2 ") + clock
}

func isNextDay(now, t time.Time) bool {
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	y, m, d := next.Date()
	ty, tm, td := t.Date()
	return y == ty && m == tm && d == td
}
