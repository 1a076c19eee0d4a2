package plan

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/praxis-ai/praxis/internal/types"
)

// operationPattern is the required shape of an operation dispatch key,
// e.g. "file.create" or "shell.exec".
var operationPattern = regexp.MustCompile(`^[a-z_]+\.[a-z_]+$`)

// Validate runs all structural checks on a plan and returns the first error
// encountered. It checks for:
//   - duplicate step ids
//   - missing required fields (operation, confidence range)
//   - malformed operation strings
//   - branch references to non-existent step ids
//   - cycles in the on_success/on_failure graph
//
// Validate is pure and performs no side effects. A plan that passes is
// immutable from the engine's point of view.
func Validate(p *Plan) error {
	if p == nil {
		return types.NewError(types.PLAN_VALIDATION_FAILED, "plan cannot be nil")
	}

	seen := make(map[string]bool, len(p.Steps))
	for i := range p.Steps {
		step := &p.Steps[i]

		if step.ID == "" {
			return types.NewError(types.PLAN_VALIDATION_FAILED,
				fmt.Sprintf("step at index %d has an empty id", i))
		}
		if seen[step.ID] {
			return types.NewError(types.PLAN_VALIDATION_FAILED,
				fmt.Sprintf("duplicate step id %q", step.ID))
		}
		seen[step.ID] = true

		if step.Operation == "" {
			return types.NewError(types.PLAN_VALIDATION_FAILED,
				fmt.Sprintf("step %q missing operation", step.ID))
		}
		if !operationPattern.MatchString(step.Operation) {
			return types.NewError(types.PLAN_VALIDATION_FAILED,
				fmt.Sprintf("step %q has malformed operation %q", step.ID, step.Operation))
		}
		if step.Confidence < 0 || step.Confidence > 1 {
			return types.NewError(types.PLAN_VALIDATION_FAILED,
				fmt.Sprintf("step %q confidence %v outside [0,1]", step.ID, step.Confidence))
		}
	}

	// Branch targets must reference existing step ids.
	for i := range p.Steps {
		step := &p.Steps[i]
		for _, branch := range [][]string{step.OnSuccess, step.OnFailure} {
			for _, target := range branch {
				if !seen[target] {
					return types.NewError(types.PLAN_VALIDATION_FAILED,
						fmt.Sprintf("step %q branches to non-existent step %q", step.ID, target))
				}
			}
		}
	}

	if cycle := detectCycle(p); len(cycle) > 0 {
		return types.NewError(types.PLAN_VALIDATION_FAILED,
			fmt.Sprintf("cycle detected in branch graph: %s", strings.Join(cycle, " -> ")))
	}

	return nil
}

// detectCycle uses depth-first search with color marking to find cycles in
// the combined on_success/on_failure graph.
// Colors: white (0) = unvisited, gray (1) = in-progress, black (2) = done.
// Returns the nodes involved in a cycle if found, otherwise nil. A cycle is
// always an error at validation time, never silently broken at runtime.
func detectCycle(p *Plan) []string {
	if len(p.Steps) == 0 {
		return nil
	}

	adj := make(map[string][]string, len(p.Steps))
	for i := range p.Steps {
		step := &p.Steps[i]
		adj[step.ID] = append(append([]string{}, step.OnSuccess...), step.OnFailure...)
	}

	color := make(map[string]int, len(p.Steps))
	parent := make(map[string]string, len(p.Steps))

	var dfs func(id string) []string
	dfs = func(id string) []string {
		color[id] = 1

		for _, next := range adj[id] {
			switch color[next] {
			case 0:
				parent[next] = id
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			case 1:
				// Back edge: reconstruct the cycle path.
				cycle := []string{next}
				current := id
				for current != next {
					cycle = append([]string{current}, cycle...)
					current = parent[current]
				}
				return append([]string{next}, cycle...)
			}
		}

		color[id] = 2
		return nil
	}

	for i := range p.Steps {
		id := p.Steps[i].ID
		if color[id] == 0 {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}
