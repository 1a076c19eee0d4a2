package builtins

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	"github.com/praxis-ai/praxis/internal/operation"
	"github.com/praxis-ai/praxis/internal/types"
)

// AIOperations implements the ai.* handlers over a langchaingo model.
// The model is injected so deployments can back it with OpenAI, Anthropic,
// Ollama, or a fake for tests.
type AIOperations struct {
	model       llms.Model
	temperature float64
}

// AIOption configures AIOperations.
type AIOption func(*AIOperations)

// WithTemperature sets the sampling temperature for queries.
func WithTemperature(t float64) AIOption {
	return func(a *AIOperations) {
		a.temperature = t
	}
}

// NewAIOperations creates AI handlers over the given model.
func NewAIOperations(model llms.Model, opts ...AIOption) *AIOperations {
	a := &AIOperations{model: model, temperature: 0.2}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register wires the ai.* handlers into the registry.
func (a *AIOperations) Register(reg operation.Registry) error {
	return reg.Register("ai.query", a.Query)
}

// Query sends a prompt to the model and returns its completion.
// Parameters: prompt (required), system (optional prefix).
func (a *AIOperations) Query(ctx context.Context, params map[string]any, execCtx *operation.Context) (*operation.Result, error) {
	prompt, err := stringParam(params, "prompt")
	if err != nil {
		return nil, err
	}
	if system, _ := params["system"].(string); system != "" {
		prompt = system + "\n\n" + prompt
	}

	execCtx.Logger().DebugContext(ctx, "querying model", "prompt_len", len(prompt))

	completion, err := llms.GenerateFromSinglePrompt(ctx, a.model, prompt,
		llms.WithTemperature(a.temperature),
	)
	if err != nil {
		// Model calls are network-bound; let the engine retry them.
		return nil, &types.PraxisError{
			Code:      types.OPERATION_FAILED,
			Message:   "model query failed",
			Retryable: true,
			Cause:     err,
		}
	}

	return &operation.Result{
		Success:     true,
		Output:      map[string]any{"response": completion},
		SideEffects: map[string]any{"last_response": completion},
	}, nil
}
