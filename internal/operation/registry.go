package operation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/praxis-ai/praxis/internal/types"
)

// Registry manages operation handler registration and dispatch. It is the
// single boundary through which the engine reaches side-effecting code.
type Registry interface {
	// Register binds a handler to an operation type. Registering a type
	// twice is an error.
	Register(opType string, handler Handler) error

	// Unregister removes a handler by operation type.
	Unregister(opType string) error

	// Has reports whether a handler is registered for the operation type.
	Has(opType string) bool

	// List returns all registered operation types in sorted order.
	List() []string

	// Dispatch invokes the handler for opType. An unregistered type yields
	// an UNKNOWN_OPERATION error, never a silent no-op.
	Dispatch(ctx context.Context, opType string, params map[string]any, execCtx *Context) (*Result, error)
}

// DefaultRegistry implements Registry with thread-safe operations.
type DefaultRegistry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty DefaultRegistry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to an operation type.
func (r *DefaultRegistry) Register(opType string, handler Handler) error {
	if opType == "" {
		return types.NewError(types.UNKNOWN_OPERATION, "operation type cannot be empty")
	}
	if handler == nil {
		return types.NewError(types.UNKNOWN_OPERATION,
			fmt.Sprintf("handler for %q cannot be nil", opType))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[opType]; exists {
		return types.NewError(types.UNKNOWN_OPERATION,
			fmt.Sprintf("operation %q already registered", opType))
	}

	r.handlers[opType] = handler
	return nil
}

// Unregister removes a handler by operation type.
func (r *DefaultRegistry) Unregister(opType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[opType]; !exists {
		return types.NewError(types.UNKNOWN_OPERATION,
			fmt.Sprintf("operation %q not registered", opType))
	}

	delete(r.handlers, opType)
	return nil
}

// Has reports whether a handler is registered for the operation type.
func (r *DefaultRegistry) Has(opType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.handlers[opType]
	return exists
}

// List returns all registered operation types in sorted order.
func (r *DefaultRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]string, 0, len(r.handlers))
	for opType := range r.handlers {
		ops = append(ops, opType)
	}
	sort.Strings(ops)
	return ops
}

// Dispatch invokes the handler registered for opType with the given
// parameters and execution context. A handler that returns a nil result
// without an error is treated as a failed invocation.
func (r *DefaultRegistry) Dispatch(ctx context.Context, opType string, params map[string]any, execCtx *Context) (*Result, error) {
	r.mu.RLock()
	handler, exists := r.handlers[opType]
	r.mu.RUnlock()

	if !exists {
		return nil, types.NewError(types.UNKNOWN_OPERATION,
			fmt.Sprintf("no handler registered for operation %q", opType))
	}

	result, err := handler(ctx, params, execCtx)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, types.NewError(types.OPERATION_FAILED,
			fmt.Sprintf("operation %q returned no result", opType))
	}
	return result, nil
}
