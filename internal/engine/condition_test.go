package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxis-ai/praxis/internal/types"
)

func TestConditionEvaluator_Expressions(t *testing.T) {
	vars := map[string]any{
		"retry_count": 2,
		"last_output": "ok",
		"last_file":   "a.txt",
		"enabled":     true,
		"result": map[string]any{
			"exit_code": float64(0),
			"details":   map[string]any{"host": "localhost"},
		},
		"items": []any{"a", "b", "c"},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"true", true},
		{"false", false},
		{"retry_count < 3", true},
		{"retry_count >= 3", false},
		{"$retry_count == 2", true},
		{"last_output == 'ok'", true},
		{`last_output == "ok"`, true},
		{"last_output != 'ok'", false},
		{"enabled", true},
		{"!enabled", false},
		{"retry_count < 3 && last_output == 'ok'", true},
		{"retry_count > 3 || last_output == 'ok'", true},
		{"retry_count > 3 || last_output == 'nope'", false},
		{"(retry_count < 3) && (enabled || false)", true},
		{"result.exit_code == 0", true},
		{"result.details.host == 'localhost'", true},
		{"len(items) == 3", true},
		{"len(last_output) >= 2", true},
		{"empty(last_file)", false},
		{"!empty(last_file)", true},
		{"exists(api_key)", false},
		{"exists(last_file)", true},
		{"exists(api_key) || enabled", true},
		{"missing_var == 'anything'", false},
		{"result.missing.deeper == 1", false},
	}

	ce := NewConditionEvaluator()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ce.Evaluate(tt.expr, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConditionEvaluator_Invalid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"non-boolean result", "retry_count"},
		{"non-boolean literal", "42"},
		{"unterminated string", "x == 'oops"},
		{"trailing input", "true false"},
		{"unknown function", "bogus(x)"},
		{"unclosed paren", "(true"},
		{"ordering on strings", "last_output < 'zz'"},
		{"bad character", "a # b"},
	}

	ce := NewConditionEvaluator()
	vars := map[string]any{"retry_count": 2, "last_output": "ok"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ce.Evaluate(tt.expr, vars)
			require.Error(t, err)
			assert.Equal(t, types.CONDITION_INVALID, types.CodeOf(err))
		})
	}
}

func TestConditionEvaluator_NumericCoercion(t *testing.T) {
	ce := NewConditionEvaluator()

	// Ints and floats compare numerically.
	got, err := ce.Evaluate("count == 3", map[string]any{"count": 3})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = ce.Evaluate("count == 3", map[string]any{"count": float64(3)})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = ce.Evaluate("count == 3", map[string]any{"count": int64(3)})
	require.NoError(t, err)
	assert.True(t, got)
}
