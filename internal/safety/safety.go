// Package safety classifies plan steps into discrete safety levels before
// dispatch. Classification is rule-based and deterministic: the same step
// always yields the same level, and an unknown operation is never assumed
// safe. A step classified Blocked may never dispatch regardless of its
// confidence score.
package safety

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Level is a discrete, ordered risk classification of a step.
// Safe < Caution < Dangerous < Blocked.
type Level int

const (
	LevelSafe Level = iota
	LevelCaution
	LevelDangerous
	LevelBlocked
)

// String returns the string representation of the safety level.
func (l Level) String() string {
	switch l {
	case LevelSafe:
		return "safe"
	case LevelCaution:
		return "caution"
	case LevelDangerous:
		return "dangerous"
	case LevelBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// MarshalText implements encoding.TextMarshaler so levels serialize as
// their names in JSON documents.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	switch string(text) {
	case "safe":
		*l = LevelSafe
	case "caution":
		*l = LevelCaution
	case "dangerous":
		*l = LevelDangerous
	case "blocked":
		*l = LevelBlocked
	default:
		return fmt.Errorf("unknown safety level %q", string(text))
	}
	return nil
}

// escalate raises a level by one, saturating at Blocked.
func (l Level) escalate() Level {
	if l >= LevelBlocked {
		return LevelBlocked
	}
	return l + 1
}

// Assessment is the result of classifying a step: the level plus the
// rationale behind it, surfaced to the caller in the run result.
type Assessment struct {
	Level  Level  `json:"level"`
	Reason string `json:"reason"`
}

// StepInput is the slice of a step the classifier inspects.
// Parameters must already have state variables substituted so the
// classifier sees the values that will actually dispatch.
type StepInput struct {
	Operation  string
	Parameters map[string]any
}

// Rule evaluates one aspect of a step's risk. Match is a dotted operation
// pattern where the second segment may be a "*" wildcard ("shell.*").
// Evaluate returns the level this rule assigns plus an explanation.
type Rule struct {
	Name     string
	Match    string
	Evaluate func(in StepInput) (Level, string)
}

// Classifier assigns safety levels to steps from a registered rule table.
type Classifier struct {
	rules      []Rule
	allowRoots []string
}

// Option is a functional option for configuring a Classifier.
type Option func(*Classifier)

// WithRule adds a custom rule to the classifier. Rules are evaluated in
// registration order; the highest level among matching rules wins.
func WithRule(rule Rule) Option {
	return func(c *Classifier) {
		c.rules = append(c.rules, rule)
	}
}

// WithDefaultRules configures the classifier with the built-in rule table
// covering shell, file, AI, and state operations.
func WithDefaultRules() Option {
	return func(c *Classifier) {
		c.rules = append(c.rules, defaultRules()...)
	}
}

// WithAllowedRoots sets the directory roots inside which path parameters
// are considered in-bounds. A path parameter outside every allowed root
// escalates the assessed level by one.
func WithAllowedRoots(roots ...string) Option {
	return func(c *Classifier) {
		c.allowRoots = append(c.allowRoots, roots...)
	}
}

// NewClassifier creates a Classifier with the given options. With no
// options it has no rules and classifies every known-shaped operation as
// Dangerous (the unknown-operation default still applies).
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify assigns a safety level to a step. The level is the highest
// reported by any matching rule; a step matching no rule at all is
// Dangerous by default, never Safe. After the rule pass, escalation checks
// on the substituted parameters may raise the level by one:
//   - a path parameter outside every allow-listed root
//   - a shell string containing unfiltered control characters
func (c *Classifier) Classify(in StepInput) Assessment {
	matched := false
	highest := LevelSafe
	reason := ""

	for _, rule := range c.rules {
		if !matchOperation(rule.Match, in.Operation) {
			continue
		}
		matched = true
		level, explanation := rule.Evaluate(in)
		if level > highest {
			highest = level
			reason = fmt.Sprintf("%s: %s", rule.Name, explanation)
		}
	}

	if !matched {
		return Assessment{
			Level:  LevelDangerous,
			Reason: fmt.Sprintf("operation %q matches no safety rule", in.Operation),
		}
	}

	if highest < LevelBlocked {
		if escReason, ok := c.escalationReason(in); ok {
			highest = highest.escalate()
			if reason == "" {
				reason = escReason
			} else {
				reason = reason + "; " + escReason
			}
		}
	}

	if reason == "" {
		reason = "all safety rules passed"
	}

	return Assessment{Level: highest, Reason: reason}
}

// escalationReason checks the substituted parameters for out-of-bounds
// paths and control characters in shell strings.
func (c *Classifier) escalationReason(in StepInput) (string, bool) {
	for key, value := range in.Parameters {
		s, ok := value.(string)
		if !ok {
			continue
		}

		if isPathParameter(key) && len(c.allowRoots) > 0 {
			if !c.pathAllowed(s) {
				return fmt.Sprintf("parameter %q references path outside allowed roots", key), true
			}
		}

		if isShellParameter(key) && containsControlChars(s) {
			return fmt.Sprintf("parameter %q contains control characters", key), true
		}
	}
	return "", false
}

func (c *Classifier) pathAllowed(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	abs = filepath.Clean(abs)
	for _, root := range c.allowRoots {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rootAbs = filepath.Clean(rootAbs)
		if abs == rootAbs || strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func matchOperation(pattern, operation string) bool {
	if pattern == operation {
		return true
	}
	prefix, ok := strings.CutSuffix(pattern, ".*")
	if !ok {
		return false
	}
	opPrefix, _, found := strings.Cut(operation, ".")
	return found && opPrefix == prefix
}

func isPathParameter(key string) bool {
	switch key {
	case "path", "filename", "file", "directory", "dir", "source", "destination", "target":
		return true
	default:
		return strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_file")
	}
}

func isShellParameter(key string) bool {
	return key == "command" || key == "script" || key == "args"
}

func containsControlChars(s string) bool {
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' {
			return true
		}
	}
	return false
}
