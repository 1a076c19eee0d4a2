// Package config loads and validates the Praxis configuration surface:
// confidence threshold bands, safety allow-listed roots, state directory,
// and per-step execution limits.
package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Engine     EngineConfig     `mapstructure:"engine" yaml:"engine" validate:"required"`
	Confidence ConfidenceConfig `mapstructure:"confidence" yaml:"confidence" validate:"required"`
	Safety     SafetyConfig     `mapstructure:"safety" yaml:"safety"`
	State      StateConfig      `mapstructure:"state" yaml:"state" validate:"required"`
	Knowledge  KnowledgeConfig  `mapstructure:"knowledge" yaml:"knowledge"`
	AI         AIConfig         `mapstructure:"ai" yaml:"ai"`
}

// EngineConfig controls the execution controller.
type EngineConfig struct {
	// StepTimeout is the per-step dispatch deadline.
	StepTimeout time.Duration `mapstructure:"step_timeout" yaml:"step_timeout" validate:"gt=0"`

	// WorkDir is the working directory for shell operations.
	WorkDir string `mapstructure:"work_dir" yaml:"work_dir"`
}

// ConfidenceConfig holds the externally configurable threshold bands.
// High >= 0.8, Medium in [0.5, 0.8), Low < 0.5 by default.
type ConfidenceConfig struct {
	HighThreshold   float64 `mapstructure:"high_threshold" yaml:"high_threshold" validate:"gte=0,lte=1"`
	MediumThreshold float64 `mapstructure:"medium_threshold" yaml:"medium_threshold" validate:"gte=0,lte=1"`
}

// SafetyConfig controls the safety classifier.
type SafetyConfig struct {
	// AllowedRoots are directory roots inside which path parameters are
	// in-bounds; paths outside them escalate the safety level.
	AllowedRoots []string `mapstructure:"allowed_roots" yaml:"allowed_roots"`
}

// StateConfig controls the state store.
type StateConfig struct {
	// Dir is the directory holding one JSON state document per plan id.
	Dir string `mapstructure:"dir" yaml:"dir" validate:"required"`
}

// KnowledgeConfig controls the reliability knowledge store.
type KnowledgeConfig struct {
	// Enabled turns outcome recording and reliability factors on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Path is the SQLite database file for recorded outcomes.
	Path string `mapstructure:"path" yaml:"path"`
}

// AIConfig controls the ai.* operation handlers.
type AIConfig struct {
	// Provider selects the model backend (e.g. "openai", "ollama").
	Provider string `mapstructure:"provider" yaml:"provider"`

	// Model is the model name passed to the provider.
	Model string `mapstructure:"model" yaml:"model"`

	// Temperature is the sampling temperature for ai.query.
	Temperature float64 `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
}
