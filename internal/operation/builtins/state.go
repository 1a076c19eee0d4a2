package builtins

import (
	"context"
	"fmt"

	"github.com/praxis-ai/praxis/internal/operation"
	"github.com/praxis-ai/praxis/internal/types"
)

// RegisterStateOperations wires the state.* handlers into the registry.
// These give plans a way to set variables without touching the outside
// world, which is also useful as a branch landing point.
func RegisterStateOperations(reg operation.Registry) error {
	if err := reg.Register("state.set", stateSet); err != nil {
		return err
	}
	return reg.Register("state.get", stateGet)
}

// stateSet writes every parameter as a state variable.
func stateSet(ctx context.Context, params map[string]any, execCtx *operation.Context) (*operation.Result, error) {
	if len(params) == 0 {
		return nil, types.NewError(types.OPERATION_FAILED, "state.set requires at least one parameter")
	}

	writes := make(map[string]any, len(params))
	for name, value := range params {
		writes[name] = value
	}

	return &operation.Result{
		Success:     true,
		Output:      map[string]any{"written": len(writes)},
		SideEffects: writes,
	}, nil
}

// stateGet reads a variable into the output, failing if it does not exist.
// Parameters: name (required).
func stateGet(ctx context.Context, params map[string]any, execCtx *operation.Context) (*operation.Result, error) {
	name, err := stringParam(params, "name")
	if err != nil {
		return nil, err
	}

	value, ok := execCtx.Var(name)
	if !ok {
		return nil, types.NewError(types.OPERATION_FAILED,
			fmt.Sprintf("state variable %q does not exist", name))
	}

	return &operation.Result{
		Success: true,
		Output:  map[string]any{"name": name, "value": value},
	}, nil
}
