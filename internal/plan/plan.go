package plan

import (
	"time"

	"github.com/praxis-ai/praxis/internal/types"
)

// PlanStatus represents the current status of a plan run.
type PlanStatus string

const (
	// PlanStatusPending indicates the plan is validated but not yet started.
	PlanStatusPending PlanStatus = "pending"

	// PlanStatusRunning indicates the plan is currently executing.
	PlanStatusRunning PlanStatus = "running"

	// PlanStatusSucceeded indicates the plan completed with no uncompensated failures.
	PlanStatusSucceeded PlanStatus = "succeeded"

	// PlanStatusFailed indicates the plan terminated with an uncompensated
	// failed or blocked step.
	PlanStatusFailed PlanStatus = "failed"

	// PlanStatusCancelled indicates the run was cancelled at a step boundary.
	PlanStatusCancelled PlanStatus = "cancelled"
)

// String returns the string representation of the plan status.
func (s PlanStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status represents a terminal state.
func (s PlanStatus) IsTerminal() bool {
	switch s {
	case PlanStatusSucceeded, PlanStatusFailed, PlanStatusCancelled:
		return true
	default:
		return false
	}
}

// StepStatus represents the execution status of a single step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusSucceeded StepStatus = "succeeded"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
	StepStatusBlocked   StepStatus = "blocked"
)

// IsTerminal returns true if the step status is a terminal state.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusSucceeded, StepStatusFailed, StepStatusSkipped, StepStatusBlocked:
		return true
	default:
		return false
	}
}

// BackoffStrategy defines the strategy for calculating retry delays.
type BackoffStrategy string

const (
	BackoffConstant    BackoffStrategy = "constant"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryPolicy defines the retry behavior for a step whose operation fails
// with a retryable error.
type RetryPolicy struct {
	MaxRetries      int             `json:"max_retries"`
	BackoffStrategy BackoffStrategy `json:"backoff_strategy"`
	InitialDelay    time.Duration   `json:"initial_delay"`
	MaxDelay        time.Duration   `json:"max_delay"`
	Multiplier      float64         `json:"multiplier"`
}

// CalculateDelay calculates the delay duration for a given retry attempt.
func (rp *RetryPolicy) CalculateDelay(attempt int) time.Duration {
	switch rp.BackoffStrategy {
	case BackoffConstant:
		return rp.InitialDelay
	case BackoffLinear:
		return rp.InitialDelay + rp.InitialDelay*time.Duration(attempt)
	case BackoffExponential:
		delay := rp.InitialDelay
		for i := 0; i < attempt; i++ {
			delay = time.Duration(float64(delay) * rp.Multiplier)
			if rp.MaxDelay > 0 && delay > rp.MaxDelay {
				return rp.MaxDelay
			}
		}
		return delay
	default:
		return rp.InitialDelay
	}
}

// Step represents one unit of work in a plan: a single operation invocation
// with parameters, declared confidence, an optional guard condition, and
// success/failure branch targets.
type Step struct {
	// ID is the plan-unique identifier for this step.
	ID string `json:"id"`

	// Description is human-readable and non-authoritative.
	Description string `json:"description"`

	// Operation is the dotted dispatch key, e.g. "file.create" or "shell.exec".
	Operation string `json:"operation"`

	// Parameters holds the operation input. String values may contain $name
	// references to state variables, resolved at execution time.
	Parameters map[string]any `json:"parameters"`

	// Confidence is the interpreter-declared confidence in [0,1].
	// Advisory input to the confidence calculator.
	Confidence float64 `json:"confidence"`

	// Condition is an optional boolean expression over state variables.
	// Empty means the step always runs when reached.
	Condition string `json:"condition,omitempty"`

	// OnSuccess and OnFailure are ordered lists of step ids to execute next.
	// Empty means the plan terminates on that outcome.
	OnSuccess []string `json:"on_success,omitempty"`
	OnFailure []string `json:"on_failure,omitempty"`

	// Explanation is optional interpreter-provided reasoning.
	Explanation string `json:"explanation,omitempty"`

	// Retry optionally configures retries for retryable operation failures.
	Retry *RetryPolicy `json:"retry,omitempty"`
}

// Plan represents a validated, immutable execution plan produced by the
// external natural-language interpreter. Step ids are unique within a plan
// and branch targets always reference existing steps.
type Plan struct {
	// ID is the unique identifier assigned to this plan at parse time.
	ID types.ID `json:"id"`

	// Steps contains the ordered steps of the plan. Execution starts at the
	// first step; branch targets define the rest of the walk.
	Steps []Step `json:"steps"`

	// OverallConfidence is the interpreter's plan-level confidence.
	OverallConfidence float64 `json:"overall_confidence"`

	// Language is the language of the originating request.
	Language string `json:"language,omitempty"`

	// Alternatives are interpreter-suggested alternative phrasings.
	Alternatives []string `json:"alternatives,omitempty"`

	// CreatedAt is the timestamp when the plan was parsed.
	CreatedAt time.Time `json:"created_at"`

	index map[string]*Step
}

// GetStep retrieves a step by its id. Returns nil if not found.
func (p *Plan) GetStep(id string) *Step {
	if p.index == nil {
		p.buildIndex()
	}
	return p.index[id]
}

// EntryID returns the id of the first step in declared order, or an empty
// string for an empty plan.
func (p *Plan) EntryID() string {
	if len(p.Steps) == 0 {
		return ""
	}
	return p.Steps[0].ID
}

func (p *Plan) buildIndex() {
	p.index = make(map[string]*Step, len(p.Steps))
	for i := range p.Steps {
		p.index[p.Steps[i].ID] = &p.Steps[i]
	}
}
