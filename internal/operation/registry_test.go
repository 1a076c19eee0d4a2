package operation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxis-ai/praxis/internal/types"
)

func okHandler(ctx context.Context, params map[string]any, execCtx *Context) (*Result, error) {
	return &Result{Success: true, Output: map[string]any{"echo": params["value"]}}, nil
}

func TestRegistry_RegisterAndDispatch(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("test.echo", okHandler))
	assert.True(t, reg.Has("test.echo"))

	execCtx := NewContext("p1", "s1", nil, nil)
	result, err := reg.Dispatch(context.Background(), "test.echo",
		map[string]any{"value": "hi"}, execCtx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "hi", result.Output["echo"])
}

func TestRegistry_UnknownOperation(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Dispatch(context.Background(), "no.such", nil, NewContext("p", "s", nil, nil))
	require.Error(t, err)
	assert.Equal(t, types.UNKNOWN_OPERATION, types.CodeOf(err))
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("test.echo", okHandler))
	assert.Error(t, reg.Register("test.echo", okHandler))
}

func TestRegistry_RejectsEmptyTypeAndNilHandler(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register("", okHandler))
	assert.Error(t, reg.Register("test.echo", nil))
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("test.echo", okHandler))
	require.NoError(t, reg.Unregister("test.echo"))
	assert.False(t, reg.Has("test.echo"))
	assert.Error(t, reg.Unregister("test.echo"))
}

func TestRegistry_ListSorted(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("zeta.op", okHandler))
	require.NoError(t, reg.Register("alpha.op", okHandler))
	require.NoError(t, reg.Register("mid.op", okHandler))

	assert.Equal(t, []string{"alpha.op", "mid.op", "zeta.op"}, reg.List())
}

func TestRegistry_NilResultIsFailure(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("test.nil", func(ctx context.Context, params map[string]any, execCtx *Context) (*Result, error) {
		return nil, nil
	}))

	_, err := reg.Dispatch(context.Background(), "test.nil", nil, NewContext("p", "s", nil, nil))
	require.Error(t, err)
	assert.Equal(t, types.OPERATION_FAILED, types.CodeOf(err))
}

func TestRegistry_HandlerErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry()
	require.NoError(t, reg.Register("test.fail", func(ctx context.Context, params map[string]any, execCtx *Context) (*Result, error) {
		return nil, boom
	}))

	_, err := reg.Dispatch(context.Background(), "test.fail", nil, NewContext("p", "s", nil, nil))
	assert.ErrorIs(t, err, boom)
}

func TestContext_VarsAreCopied(t *testing.T) {
	vars := map[string]any{"greeting": "hello"}
	execCtx := NewContext("p1", "s1", vars, nil)

	got, ok := execCtx.Var("greeting")
	assert.True(t, ok)
	assert.Equal(t, "hello", got)

	// Mutating the source map after construction must not leak in.
	vars["greeting"] = "changed"
	got, _ = execCtx.Var("greeting")
	assert.Equal(t, "hello", got)

	_, ok = execCtx.Var("missing")
	assert.False(t, ok)
}

func TestContext_Identity(t *testing.T) {
	execCtx := NewContext("plan-1", "step-2", nil, nil)
	assert.Equal(t, "plan-1", execCtx.PlanID())
	assert.Equal(t, "step-2", execCtx.StepID())
	assert.NotNil(t, execCtx.Logger())
}
