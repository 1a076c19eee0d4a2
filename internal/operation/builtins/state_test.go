package builtins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxis-ai/praxis/internal/operation"
)

func TestStateSet(t *testing.T) {
	reg := operation.NewRegistry()
	require.NoError(t, RegisterStateOperations(reg))

	result, err := reg.Dispatch(context.Background(), "state.set",
		map[string]any{"mode": "verbose", "retries": 3}, testCtx())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "verbose", result.SideEffects["mode"])
	assert.Equal(t, 3, result.SideEffects["retries"])
}

func TestStateSet_RequiresParameters(t *testing.T) {
	reg := operation.NewRegistry()
	require.NoError(t, RegisterStateOperations(reg))

	_, err := reg.Dispatch(context.Background(), "state.set", map[string]any{}, testCtx())
	assert.Error(t, err)
}

func TestStateGet(t *testing.T) {
	reg := operation.NewRegistry()
	require.NoError(t, RegisterStateOperations(reg))

	execCtx := operation.NewContext("p", "s", map[string]any{"mode": "verbose"}, nil)

	result, err := reg.Dispatch(context.Background(), "state.get",
		map[string]any{"name": "mode"}, execCtx)
	require.NoError(t, err)
	assert.Equal(t, "verbose", result.Output["value"])

	_, err = reg.Dispatch(context.Background(), "state.get",
		map[string]any{"name": "missing"}, execCtx)
	assert.Error(t, err)
}
