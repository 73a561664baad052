package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fairweather/internal/core"
	"fairweather/internal/rules"
	"fairweather/internal/types"
)

// EvaluationRequest runs the engine on a caller-supplied series. The hour is
// Index when set, otherwise the hour of At, otherwise the current hour.
type EvaluationRequest struct {
	Series   *types.HourlySeries `json:"series" validate:"required"`
	Rules    types.RuleSpec      `json:"rules"`
	Index    *int                `json:"index,omitempty"`
	At       *time.Time          `json:"at,omitempty"`
	BestTime *BestTimeRequest    `json:"bestTime,omitempty"`
}

// BestTimeRequest asks for an alternative green hour.
type BestTimeRequest struct {
	Mode types.ScheduleMode `json:"mode" validate:"required,schedule_mode"`
}

// BestTime is the outcome of the alternative search.
type BestTime struct {
	Found bool       `json:"found"`
	Index int        `json:"index"`
	Time  *time.Time `json:"time,omitempty"`
}

// EvaluationResponse is the verdict for one hour.
type EvaluationResponse struct {
	Index    int                    `json:"index"`
	Covered  bool                   `json:"covered"`
	Result   types.EvaluationResult `json:"result"`
	Snapshot *types.Snapshot        `json:"snapshot,omitempty"`
	BestTime *BestTime              `json:"bestTime,omitempty"`
}

// EvaluationHandler exposes the rule engine without any fetching.
type EvaluationHandler struct {
	validator *core.Validator
	clock     types.Clock
	logger    *slog.Logger
}

func NewEvaluationHandler(val *core.Validator, clock types.Clock, logger *slog.Logger) *EvaluationHandler {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationHandler{validator: val, clock: clock, logger: logger}
}

// RegisterRoutes mounts the evaluation endpoint under /v1/evaluations.
func (h *EvaluationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleEvaluate)
}

// HandleEvaluate handles POST /v1/evaluations.
func (h *EvaluationHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluationRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := req.Series.Validate(); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := req.Rules.Validate(); err != nil {
		core.Error(w, r, err)
		return
	}

	now := h.clock.Now()
	resp := EvaluationResponse{}
	switch {
	case req.Index != nil:
		resp.Index = *req.Index
		resp.Covered = *req.Index >= 0 && *req.Index < req.Series.Len()
	case req.At != nil:
		resp.Index = rules.IndexAtOrAfter(req.Series, *req.At)
		resp.Covered = rules.Covers(req.Series, *req.At)
	default:
		resp.Index = rules.IndexAtOrAfter(req.Series, now)
		resp.Covered = rules.Covers(req.Series, now)
	}

	resp.Result = rules.Evaluate(req.Series, resp.Index, req.Rules)
	if rules.IsInternalError(resp.Result) {
		h.logger.ErrorContext(r.Context(), "evaluation failed", "mode", req.Rules.Mode, "index", resp.Index)
	}
	if snap, ok := rules.SnapshotAt(req.Series, resp.Index); ok {
		resp.Snapshot = &snap
	}

	if req.BestTime != nil {
		current := -1
		if req.BestTime.Mode == types.ScheduleScheduled {
			current = rules.FirstIndexFrom(req.Series, now)
		}
		bt := &BestTime{Index: -1}
		if i, ok := rules.FindBestTime(req.Series, req.Rules, resp.Index, req.BestTime.Mode, current); ok {
			t := req.Series.Time[i]
			bt.Found, bt.Index, bt.Time = true, i, &t
		}
		resp.BestTime = bt
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: resp})
}
