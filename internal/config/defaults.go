package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".praxis")

	return &Config{
		Engine: EngineConfig{
			StepTimeout: 5 * time.Minute,
		},
		Confidence: ConfidenceConfig{
			HighThreshold:   0.8,
			MediumThreshold: 0.5,
		},
		Safety: SafetyConfig{
			AllowedRoots: []string{home},
		},
		State: StateConfig{
			Dir: filepath.Join(base, "state"),
		},
		Knowledge: KnowledgeConfig{
			Enabled: true,
			Path:    filepath.Join(base, "knowledge.db"),
		},
		AI: AIConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
		},
	}
}
