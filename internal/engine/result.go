package engine

import (
	"time"

	"github.com/praxis-ai/praxis/internal/plan"
	"github.com/praxis-ai/praxis/internal/state"
	"github.com/praxis-ai/praxis/internal/types"
)

// RunResult is the caller-visible outcome of a plan run: the terminal
// status, the full step history, and for each failed or blocked step the
// original error and the safety/confidence reason, so callers can
// distinguish "blocked for safety" from "operation threw".
type RunResult struct {
	PlanID        types.ID                     `json:"plan_id"`
	Status        plan.PlanStatus              `json:"status"`
	Steps         map[string]state.StepRecord  `json:"steps"`
	StateVars     map[string]any               `json:"state_vars"`
	History       []state.HistoryEntry         `json:"history"`
	TotalDuration time.Duration                `json:"total_duration"`
}

// Succeeded reports whether the run reached the succeeded terminal status.
func (r *RunResult) Succeeded() bool {
	return r.Status == plan.PlanStatusSucceeded
}

// FailedSteps returns ids of steps that ended failed or blocked, in
// history order.
func (r *RunResult) FailedSteps() []string {
	var ids []string
	seen := make(map[string]bool)
	for _, entry := range r.History {
		if seen[entry.StepID] {
			continue
		}
		if entry.Status == plan.StepStatusFailed || entry.Status == plan.StepStatusBlocked {
			seen[entry.StepID] = true
			ids = append(ids, entry.StepID)
		}
	}
	return ids
}

func buildRunResult(st *state.ExecutionState, duration time.Duration) *RunResult {
	steps := make(map[string]state.StepRecord, len(st.Steps))
	for id, rec := range st.Steps {
		steps[id] = *rec
	}
	vars := make(map[string]any, len(st.StateVars))
	for k, v := range st.StateVars {
		vars[k] = v
	}
	history := make([]state.HistoryEntry, len(st.History))
	copy(history, st.History)

	return &RunResult{
		PlanID:        st.PlanID,
		Status:        st.Status,
		Steps:         steps,
		StateVars:     vars,
		History:       history,
		TotalDuration: duration,
	}
}
