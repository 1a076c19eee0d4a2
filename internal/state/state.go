// Package state owns the durable representation of a plan run. Each run is
// persisted as a single JSON document keyed by plan id, flushed after every
// state-changing transition so a crash between steps loses at most the
// in-flight step's partial effect.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/praxis-ai/praxis/internal/plan"
	"github.com/praxis-ai/praxis/internal/types"
)

// StepRecord is the persisted state of a single step.
type StepRecord struct {
	Status        plan.StepStatus `json:"status"`
	ResultSummary string          `json:"result_summary,omitempty"`
	Error         string          `json:"error,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Attempts      int             `json:"attempts,omitempty"`
}

// HistoryEntry is one append-only record of a step transition.
type HistoryEntry struct {
	ID        types.ID        `json:"id"`
	StepID    string          `json:"step_id"`
	Status    plan.StepStatus `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Summary   string          `json:"summary,omitempty"`
}

// ExecutionState is the mutable record of a plan run's progress: per-step
// statuses, named state variables, the append-only history log, and the
// pending frontier needed to resume after a crash. The engine owns the
// in-memory authoritative copy during a run; this package owns the durable
// one.
type ExecutionState struct {
	PlanID    types.ID               `json:"plan_id"`
	Status    plan.PlanStatus        `json:"status"`
	Steps     map[string]*StepRecord `json:"steps"`
	StateVars map[string]any         `json:"state_vars"`
	History   []HistoryEntry         `json:"history"`
	Frontier  []string               `json:"frontier"`
	StartedAt time.Time              `json:"started_at"`
	UpdatedAt time.Time              `json:"updated_at"`

	// Checksum is a sha256 over the document with this field blanked,
	// verified on load to detect corruption.
	Checksum string `json:"checksum,omitempty"`
}

// NewExecutionState initializes a run record for a validated plan with all
// steps pending and the frontier at the plan's entry step.
func NewExecutionState(p *plan.Plan) *ExecutionState {
	steps := make(map[string]*StepRecord, len(p.Steps))
	for i := range p.Steps {
		steps[p.Steps[i].ID] = &StepRecord{Status: plan.StepStatusPending}
	}

	var frontier []string
	if entry := p.EntryID(); entry != "" {
		frontier = []string{entry}
	}

	now := time.Now().UTC()
	return &ExecutionState{
		PlanID:    p.ID,
		Status:    plan.PlanStatusPending,
		Steps:     steps,
		StateVars: make(map[string]any),
		Frontier:  frontier,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// StepStatus returns the recorded status of a step, or pending if the step
// is unknown.
func (s *ExecutionState) StepStatus(stepID string) plan.StepStatus {
	if rec, ok := s.Steps[stepID]; ok {
		return rec.Status
	}
	return plan.StepStatusPending
}

// SetStepStatus updates a step record and appends a history entry.
func (s *ExecutionState) SetStepStatus(stepID string, status plan.StepStatus, summary string) {
	rec, ok := s.Steps[stepID]
	if !ok {
		rec = &StepRecord{}
		s.Steps[stepID] = rec
	}
	rec.Status = status
	if summary != "" {
		rec.ResultSummary = summary
	}
	s.appendHistory(stepID, status, summary)
}

// SetStepError records a terminal failure for a step.
func (s *ExecutionState) SetStepError(stepID string, status plan.StepStatus, reason string, err error) {
	rec, ok := s.Steps[stepID]
	if !ok {
		rec = &StepRecord{}
		s.Steps[stepID] = rec
	}
	rec.Status = status
	rec.Reason = reason
	if err != nil {
		rec.Error = err.Error()
	}
	s.appendHistory(stepID, status, reason)
}

func (s *ExecutionState) appendHistory(stepID string, status plan.StepStatus, summary string) {
	s.History = append(s.History, HistoryEntry{
		ID:        types.NewID(),
		StepID:    stepID,
		Status:    status,
		Timestamp: time.Now().UTC(),
		Summary:   summary,
	})
	s.UpdatedAt = time.Now().UTC()
}

// computeChecksum returns the sha256 hex digest of the document with the
// Checksum field blanked.
func (s *ExecutionState) computeChecksum() (string, error) {
	clone := *s
	clone.Checksum = ""
	data, err := json.Marshal(&clone)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Seal stamps the checksum prior to persisting.
func (s *ExecutionState) Seal() error {
	sum, err := s.computeChecksum()
	if err != nil {
		return err
	}
	s.Checksum = sum
	return nil
}

// VerifyIntegrity recomputes the checksum and compares it against the
// persisted one. Documents written before sealing (empty checksum) fail
// verification: the run must not silently resume from a guessed state.
func (s *ExecutionState) VerifyIntegrity() error {
	if s.Checksum == "" {
		return types.NewError(types.STATE_CORRUPTED, "state document has no checksum")
	}
	sum, err := s.computeChecksum()
	if err != nil {
		return types.WrapError(types.STATE_CORRUPTED, "failed to recompute checksum", err)
	}
	if sum != s.Checksum {
		return types.NewError(types.STATE_CORRUPTED, "state document checksum mismatch")
	}
	return nil
}
