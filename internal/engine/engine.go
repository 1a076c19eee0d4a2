// Package engine implements the plan execution state machine. It walks the
// plan's branch graph one step at a time, resolves state-variable
// substitutions, consults the safety classifier and confidence calculator,
// dispatches through the operation registry, and persists progress after
// every transition so a run can resume after a crash.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/praxis-ai/praxis/internal/confidence"
	"github.com/praxis-ai/praxis/internal/operation"
	"github.com/praxis-ai/praxis/internal/plan"
	"github.com/praxis-ai/praxis/internal/safety"
	"github.com/praxis-ai/praxis/internal/state"
	"github.com/praxis-ai/praxis/internal/types"
)

// OutcomeRecorder receives (operation, success) pairs after each dispatch.
// It feeds the knowledge store that later serves reliability factors; a
// recorder failure never affects the run.
type OutcomeRecorder interface {
	RecordOutcome(operation string, success bool) error
}

// Engine orchestrates plan runs. Steps execute strictly one at a time
// within a run, because later steps may depend on state variables written
// by earlier ones. Separate plan ids may run concurrently on separate
// engines or goroutines; the state store serializes per id.
type Engine struct {
	store       state.Store
	registry    operation.Registry
	classifier  *safety.Classifier
	calculator  *confidence.Calculator
	conditions  *ConditionEvaluator
	recorder    OutcomeRecorder
	logger      *slog.Logger
	tracer      trace.Tracer
	stepTimeout time.Duration
}

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithClassifier overrides the default safety classifier.
func WithClassifier(c *safety.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// WithCalculator overrides the default confidence calculator.
func WithCalculator(c *confidence.Calculator) Option {
	return func(e *Engine) { e.calculator = c }
}

// WithOutcomeRecorder attaches a knowledge recorder for step outcomes.
func WithOutcomeRecorder(r OutcomeRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithLogger configures the structured logger used for run logging.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTracer configures an OpenTelemetry tracer. When set, the engine
// creates a span per run and per step.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithStepTimeout sets the per-step dispatch deadline.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Engine) { e.stepTimeout = d }
}

// New creates an Engine. Defaults: classifier with the built-in rule
// table, calculator with default bands, slog.Default() logging, and a
// five minute step timeout.
func New(store state.Store, registry operation.Registry, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		registry:    registry,
		classifier:  safety.NewClassifier(safety.WithDefaultRules()),
		calculator:  confidence.NewCalculator(),
		conditions:  NewConditionEvaluator(),
		logger:      slog.Default(),
		stepTimeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes a validated plan from the beginning. It claims the plan id
// in the state store, initializes a fresh execution state, and walks the
// branch graph until no reachable step remains pending.
func (e *Engine) Run(ctx context.Context, p *plan.Plan) (*RunResult, error) {
	st := state.NewExecutionState(p)
	return e.execute(ctx, p, st)
}

// Resume continues a previously persisted run. The persisted document is
// integrity-checked on load; a corrupt document aborts with STATE_CORRUPTED
// rather than resuming from a guessed state. A step that was running when
// the process died is reset to pending and re-attempted: handlers are
// expected to tolerate one re-invocation after a crash.
func (e *Engine) Resume(ctx context.Context, p *plan.Plan, planID types.ID) (*RunResult, error) {
	st, err := e.store.Load(planID)
	if err != nil {
		return nil, err
	}

	if st.Status.IsTerminal() {
		return buildRunResult(st, 0), nil
	}

	// Requeue the in-flight step ahead of the persisted frontier.
	for stepID, rec := range st.Steps {
		if rec.Status == plan.StepStatusRunning {
			rec.Status = plan.StepStatusPending
			st.Frontier = append([]string{stepID}, st.Frontier...)
		}
	}

	e.logger.InfoContext(ctx, "resuming plan run",
		"plan_id", planID,
		"frontier", st.Frontier,
	)

	return e.execute(ctx, p, st)
}

func (e *Engine) execute(ctx context.Context, p *plan.Plan, st *state.ExecutionState) (*RunResult, error) {
	release, err := e.store.Acquire(st.PlanID)
	if err != nil {
		return nil, err
	}
	defer release()

	var span trace.Span
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, "plan.execute",
			trace.WithAttributes(
				attribute.String("plan.id", st.PlanID.String()),
				attribute.Int("plan.steps", len(p.Steps)),
			),
		)
		defer span.End()
	}

	e.logger.InfoContext(ctx, "starting plan run",
		"plan_id", st.PlanID,
		"step_count", len(p.Steps),
	)

	startTime := time.Now()
	st.Status = plan.PlanStatusRunning
	if err := e.store.Save(st); err != nil {
		return nil, err
	}

	for len(st.Frontier) > 0 {
		// Cancellation takes effect only at step boundaries; an in-flight
		// dispatch is allowed to finish or time out.
		if ctx.Err() != nil {
			st.Status = plan.PlanStatusCancelled
			if err := e.store.Save(st); err != nil {
				return nil, err
			}
			e.logger.InfoContext(ctx, "plan run cancelled", "plan_id", st.PlanID)
			return buildRunResult(st, time.Since(startTime)),
				types.WrapError(types.PLAN_CANCELLED, "run cancelled at step boundary", ctx.Err())
		}

		stepID := st.Frontier[0]
		st.Frontier = st.Frontier[1:]

		// At-most-once: steps that already reached a terminal status are
		// never re-entered, whichever branch led back to them.
		if st.StepStatus(stepID).IsTerminal() {
			continue
		}

		step := p.GetStep(stepID)
		if step == nil {
			return nil, types.NewError(types.PLAN_VALIDATION_FAILED,
				fmt.Sprintf("frontier references unknown step %q", stepID))
		}

		status := e.executeStep(ctx, st, step)

		switch status {
		case plan.StepStatusSucceeded, plan.StepStatusSkipped:
			st.Frontier = append(st.Frontier, step.OnSuccess...)
		case plan.StepStatusFailed, plan.StepStatusBlocked:
			st.Frontier = append(st.Frontier, step.OnFailure...)
		}

		if err := e.store.Save(st); err != nil {
			return nil, err
		}
	}

	st.Status = e.terminalStatus(p, st)
	if err := e.store.Save(st); err != nil {
		return nil, err
	}

	duration := time.Since(startTime)
	e.logger.InfoContext(ctx, "plan run finished",
		"plan_id", st.PlanID,
		"status", st.Status,
		"duration", duration,
	)

	if span != nil {
		if st.Status == plan.PlanStatusFailed {
			span.SetStatus(codes.Error, "plan failed")
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	result := buildRunResult(st, duration)
	if st.Status == plan.PlanStatusFailed {
		return result, types.NewError(types.OPERATION_FAILED, "plan terminated with uncompensated failures")
	}
	return result, nil
}

// executeStep runs the per-step state machine and returns the terminal
// step status. All transitions are recorded on st; the caller persists.
func (e *Engine) executeStep(ctx context.Context, st *state.ExecutionState, step *plan.Step) plan.StepStatus {
	logger := e.logger.With("plan_id", st.PlanID, "step_id", step.ID, "operation", step.Operation)

	var span trace.Span
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, "plan.step",
			trace.WithAttributes(
				attribute.String("step.id", step.ID),
				attribute.String("step.operation", step.Operation),
			),
		)
		defer span.End()
	}

	// 1. Guard condition. A false guard skips the step and follows the
	// success branch: a skip is not a failure.
	if step.Condition != "" {
		pass, err := e.conditions.Evaluate(step.Condition, st.StateVars)
		if err != nil {
			logger.WarnContext(ctx, "condition evaluation failed", "error", err)
			st.SetStepError(step.ID, plan.StepStatusFailed, "condition invalid", err)
			return plan.StepStatusFailed
		}
		if !pass {
			logger.DebugContext(ctx, "condition false, skipping step")
			st.SetStepStatus(step.ID, plan.StepStatusSkipped, "condition evaluated false")
			return plan.StepStatusSkipped
		}
	}

	// 2. Variable substitution. Unresolved references fail the step
	// without dispatch.
	params, err := substituteParams(step.Parameters, st.StateVars)
	if err != nil {
		logger.WarnContext(ctx, "parameter substitution failed", "error", err)
		st.SetStepError(step.ID, plan.StepStatusFailed, "unresolved variable", err)
		return plan.StepStatusFailed
	}

	// 3. Safety classification on the substituted parameters.
	assessment := e.classifier.Classify(safety.StepInput{
		Operation:  step.Operation,
		Parameters: params,
	})
	if assessment.Level == safety.LevelBlocked {
		logger.WarnContext(ctx, "step blocked by safety classifier", "reason", assessment.Reason)
		st.SetStepError(step.ID, plan.StepStatusBlocked, assessment.Reason,
			types.NewError(types.SAFETY_BLOCKED, assessment.Reason))
		return plan.StepStatusBlocked
	}

	// 4. Confidence gate.
	score := e.calculator.Score(step.Operation, step.Confidence, assessment.Level)
	if !score.Passes() {
		reason := fmt.Sprintf("confidence-gated: score %.2f below threshold %.2f (safety %s)",
			score.Value, score.Threshold, assessment.Level)
		logger.WarnContext(ctx, "step blocked by confidence gate",
			"score", score.Value,
			"threshold", score.Threshold,
			"safety_level", assessment.Level.String(),
		)
		st.SetStepError(step.ID, plan.StepStatusBlocked, reason,
			types.NewError(types.CONFIDENCE_GATED, reason))
		return plan.StepStatusBlocked
	}

	// 5. Dispatch. RUNNING is persisted before the handler is invoked so a
	// crash mid-dispatch is visible on resume.
	st.SetStepStatus(step.ID, plan.StepStatusRunning, "")
	if err := e.store.Save(st); err != nil {
		st.SetStepError(step.ID, plan.StepStatusFailed, "state persistence failed", err)
		return plan.StepStatusFailed
	}

	result, dispatchErr := e.dispatchWithRetries(ctx, st, step, params, logger)

	if e.recorder != nil {
		success := dispatchErr == nil && result != nil && result.Success
		if recErr := e.recorder.RecordOutcome(step.Operation, success); recErr != nil {
			logger.DebugContext(ctx, "outcome recording failed", "error", recErr)
		}
	}

	if dispatchErr != nil {
		logger.WarnContext(ctx, "step failed", "error", dispatchErr)
		if span != nil {
			span.SetStatus(codes.Error, dispatchErr.Error())
		}
		st.SetStepError(step.ID, plan.StepStatusFailed, string(types.CodeOf(dispatchErr)), dispatchErr)
		return plan.StepStatusFailed
	}

	if !result.Success {
		opErr := types.NewError(types.OPERATION_FAILED,
			fmt.Sprintf("operation %q reported failure", step.Operation))
		logger.WarnContext(ctx, "step reported failure", "output", result.Output)
		st.SetStepError(step.ID, plan.StepStatusFailed, summarizeOutput(result.Output), opErr)
		return plan.StepStatusFailed
	}

	// 6. Apply requested state-variable writes. Later writes win: the
	// frontier is FIFO, so write order is execution order.
	for name, value := range result.SideEffects {
		st.StateVars[name] = value
	}

	logger.InfoContext(ctx, "step succeeded")
	st.SetStepStatus(step.ID, plan.StepStatusSucceeded, summarizeOutput(result.Output))
	return plan.StepStatusSucceeded
}

// dispatchWithRetries invokes the operation with the per-step timeout,
// retrying retryable failures per the step's retry policy.
func (e *Engine) dispatchWithRetries(ctx context.Context, st *state.ExecutionState, step *plan.Step, params map[string]any, logger *slog.Logger) (*operation.Result, error) {
	maxAttempts := 1
	if step.Retry != nil && step.Retry.MaxRetries > 0 {
		maxAttempts = step.Retry.MaxRetries + 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := step.Retry.CalculateDelay(attempt - 1)
			logger.DebugContext(ctx, "retrying step", "attempt", attempt+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, types.WrapError(types.PLAN_CANCELLED, "cancelled during retry backoff", ctx.Err())
			}
		}

		if rec, ok := st.Steps[step.ID]; ok {
			rec.Attempts = attempt + 1
		}

		result, err := e.dispatchOnce(ctx, st, step, params)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !types.IsRetryable(err) {
			break
		}
	}

	return nil, lastErr
}

// dispatchOnce performs exactly one handler invocation under the step
// deadline. A deadline hit is reported as a retryable STEP_TIMEOUT.
func (e *Engine) dispatchOnce(ctx context.Context, st *state.ExecutionState, step *plan.Step, params map[string]any) (*operation.Result, error) {
	stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	execCtx := operation.NewContext(st.PlanID.String(), step.ID, st.StateVars, e.logger)

	result, err := e.registry.Dispatch(stepCtx, step.Operation, params, execCtx)
	if err != nil {
		if stepCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, &types.PraxisError{
				Code:      types.STEP_TIMEOUT,
				Message:   fmt.Sprintf("operation %q exceeded step deadline %s", step.Operation, e.stepTimeout),
				Retryable: true,
				Cause:     err,
			}
		}
		return nil, err
	}
	return result, nil
}

// terminalStatus decides the plan-level outcome once the frontier is
// empty. The run succeeds iff every failed or blocked step was
// compensated: it declared an on_failure branch and every step on that
// branch finished succeeded or skipped.
func (e *Engine) terminalStatus(p *plan.Plan, st *state.ExecutionState) plan.PlanStatus {
	for i := range p.Steps {
		step := &p.Steps[i]
		status := st.StepStatus(step.ID)
		if status != plan.StepStatusFailed && status != plan.StepStatusBlocked {
			continue
		}

		if len(step.OnFailure) == 0 {
			return plan.PlanStatusFailed
		}
		for _, target := range step.OnFailure {
			targetStatus := st.StepStatus(target)
			if targetStatus != plan.StepStatusSucceeded && targetStatus != plan.StepStatusSkipped {
				return plan.PlanStatusFailed
			}
		}
	}
	return plan.PlanStatusSucceeded
}

func summarizeOutput(output map[string]any) string {
	if len(output) == 0 {
		return ""
	}
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Sprintf("%d output fields", len(output))
	}
	const maxSummary = 200
	if len(data) > maxSummary {
		return string(data[:maxSummary]) + "..."
	}
	return string(data)
}
