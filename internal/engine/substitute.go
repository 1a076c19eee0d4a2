package engine

import (
	"fmt"
	"regexp"

	"github.com/praxis-ai/praxis/internal/types"
)

var varRefPattern = regexp.MustCompile(`\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// substituteParams resolves $name references in step parameters against the
// current state variables. A string value that is exactly one reference is
// replaced by the variable's value with its type intact; references
// embedded in longer strings are interpolated as text. Maps and slices are
// walked recursively. Any unresolved reference is a VARIABLE_UNRESOLVED
// error, failing the step before dispatch.
func substituteParams(params map[string]any, vars map[string]any) (map[string]any, error) {
	if params == nil {
		return map[string]any{}, nil
	}

	resolved := make(map[string]any, len(params))
	for key, value := range params {
		sub, err := substituteValue(value, vars)
		if err != nil {
			return nil, types.WrapError(types.VARIABLE_UNRESOLVED,
				fmt.Sprintf("parameter %q", key), err)
		}
		resolved[key] = sub
	}
	return resolved, nil
}

func substituteValue(value any, vars map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		return substituteString(v, vars)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			sub, err := substituteValue(inner, vars)
			if err != nil {
				return nil, err
			}
			out[k] = sub
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			sub, err := substituteValue(inner, vars)
			if err != nil {
				return nil, err
			}
			out[i] = sub
		}
		return out, nil
	default:
		return value, nil
	}
}

func substituteString(s string, vars map[string]any) (any, error) {
	// A value that is exactly "$name" keeps the variable's type.
	if match := varRefPattern.FindStringSubmatch(s); match != nil && match[0] == s {
		name := match[1]
		value, ok := vars[name]
		if !ok {
			return nil, fmt.Errorf("unresolved state variable $%s", name)
		}
		return value, nil
	}

	var missing string
	result := varRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := ref[1:]
		value, ok := vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return ref
		}
		return fmt.Sprint(value)
	})

	if missing != "" {
		return nil, fmt.Errorf("unresolved state variable $%s", missing)
	}
	return result, nil
}
