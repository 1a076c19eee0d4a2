package builtins

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/praxis-ai/praxis/internal/operation"
	"github.com/praxis-ai/praxis/internal/types"
)

// ShellOperations implements the shell.* handlers. Commands run through
// "sh -c" under the engine's step context, so the per-step timeout and
// cancellation apply. Safety gating happens before dispatch; this handler
// does not sandbox.
type ShellOperations struct {
	workDir string
}

// ShellOption configures ShellOperations.
type ShellOption func(*ShellOperations)

// WithWorkDir sets the working directory for executed commands.
func WithWorkDir(dir string) ShellOption {
	return func(s *ShellOperations) {
		s.workDir = dir
	}
}

// NewShellOperations creates shell handlers.
func NewShellOperations(opts ...ShellOption) *ShellOperations {
	s := &ShellOperations{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register wires the shell.* handlers into the registry.
func (s *ShellOperations) Register(reg operation.Registry) error {
	return reg.Register("shell.exec", s.Exec)
}

// Exec runs a shell command and captures stdout/stderr.
// Parameters: command (required).
// A non-zero exit status is reported as an unsuccessful result, not an
// error, so the engine routes it through on_failure with the output intact.
func (s *ShellOperations) Exec(ctx context.Context, params map[string]any, execCtx *operation.Context) (*operation.Result, error) {
	command, err := stringParam(params, "command")
	if err != nil {
		return nil, err
	}

	execCtx.Logger().InfoContext(ctx, "executing shell command", "command", command)

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if s.workDir != "" {
		cmd.Dir = s.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, types.WrapError(types.STEP_TIMEOUT, "command interrupted", ctxErr)
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, types.WrapError(types.OPERATION_FAILED, "failed to start command", runErr)
		}
	}

	return &operation.Result{
		Success: exitCode == 0,
		Output: map[string]any{
			"command":   command,
			"exit_code": exitCode,
			"stdout":    stdout.String(),
			"stderr":    stderr.String(),
		},
		SideEffects: map[string]any{"last_output": stdout.String()},
	}, nil
}
