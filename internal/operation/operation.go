// Package operation defines the dispatch boundary between the execution
// engine and concrete side-effecting operations. Handlers are registered
// under dotted operation types (e.g. "file.create", "shell.exec") and
// invoked at most once per step attempt.
package operation

import (
	"context"
	"log/slog"
)

// Result carries the outcome of a single handler invocation. Output is
// opaque to the engine; SideEffects is the set of state-variable writes the
// handler requests, applied by the engine on success.
type Result struct {
	Success     bool           `json:"success"`
	Output      map[string]any `json:"output,omitempty"`
	SideEffects map[string]any `json:"side_effects,omitempty"`
}

// Context is the read-only execution context passed to handlers. It exposes
// the current state variables and a logger scoped to the running step.
type Context struct {
	planID string
	stepID string
	vars   map[string]any
	logger *slog.Logger
}

// NewContext builds a handler context. The vars map is copied so handlers
// cannot mutate engine state directly; all writes go through SideEffects.
func NewContext(planID, stepID string, vars map[string]any, logger *slog.Logger) *Context {
	copied := make(map[string]any, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		planID: planID,
		stepID: stepID,
		vars:   copied,
		logger: logger.With("plan_id", planID, "step_id", stepID),
	}
}

// PlanID returns the id of the running plan.
func (c *Context) PlanID() string { return c.planID }

// StepID returns the id of the running step.
func (c *Context) StepID() string { return c.stepID }

// Var returns the named state variable and whether it exists.
func (c *Context) Var(name string) (any, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Logger returns the step-scoped logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Handler executes one operation invocation. Handlers must be safe to call
// at most once per step attempt and should honor ctx cancellation; the
// engine applies the per-step timeout through ctx.
type Handler func(ctx context.Context, params map[string]any, execCtx *Context) (*Result, error)
