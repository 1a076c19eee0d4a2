package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxis-ai/praxis/internal/types"
)

func TestSubstituteParams_WholeValueKeepsType(t *testing.T) {
	vars := map[string]any{
		"count":    float64(3),
		"settings": map[string]any{"mode": "fast"},
		"enabled":  true,
	}

	resolved, err := substituteParams(map[string]any{
		"retries": "$count",
		"config":  "$settings",
		"flag":    "$enabled",
	}, vars)
	require.NoError(t, err)

	assert.Equal(t, float64(3), resolved["retries"])
	assert.Equal(t, map[string]any{"mode": "fast"}, resolved["config"])
	assert.Equal(t, true, resolved["flag"])
}

func TestSubstituteParams_EmbeddedInterpolates(t *testing.T) {
	vars := map[string]any{"last_file": "notes.txt", "count": float64(3)}

	resolved, err := substituteParams(map[string]any{
		"command": "cat $last_file",
		"message": "found $count entries in $last_file",
	}, vars)
	require.NoError(t, err)

	assert.Equal(t, "cat notes.txt", resolved["command"])
	assert.Equal(t, "found 3 entries in notes.txt", resolved["message"])
}

func TestSubstituteParams_RecursesIntoNestedValues(t *testing.T) {
	vars := map[string]any{"host": "localhost"}

	resolved, err := substituteParams(map[string]any{
		"nested": map[string]any{"url": "http://$host/api"},
		"list":   []any{"$host", "static"},
	}, vars)
	require.NoError(t, err)

	nested := resolved["nested"].(map[string]any)
	assert.Equal(t, "http://localhost/api", nested["url"])
	list := resolved["list"].([]any)
	assert.Equal(t, "localhost", list[0])
	assert.Equal(t, "static", list[1])
}

func TestSubstituteParams_UnresolvedIsError(t *testing.T) {
	_, err := substituteParams(map[string]any{"filename": "$missing"}, map[string]any{})
	require.Error(t, err)
	assert.Equal(t, types.VARIABLE_UNRESOLVED, types.CodeOf(err))
	assert.Contains(t, err.Error(), "missing")

	_, err = substituteParams(map[string]any{"command": "echo $missing"}, map[string]any{})
	require.Error(t, err)
	assert.Equal(t, types.VARIABLE_UNRESOLVED, types.CodeOf(err))
}

func TestSubstituteParams_NonStringsPassThrough(t *testing.T) {
	resolved, err := substituteParams(map[string]any{
		"count":   42,
		"ratio":   0.5,
		"enabled": true,
		"nothing": nil,
	}, map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, 42, resolved["count"])
	assert.Equal(t, 0.5, resolved["ratio"])
	assert.Equal(t, true, resolved["enabled"])
	assert.Nil(t, resolved["nothing"])
}

func TestSubstituteParams_NilParams(t *testing.T) {
	resolved, err := substituteParams(nil, map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestSubstituteParams_NoReferencesUntouched(t *testing.T) {
	resolved, err := substituteParams(map[string]any{
		"command": "echo plain",
	}, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "echo plain", resolved["command"])
}
