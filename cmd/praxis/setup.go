package main

import (
	"log/slog"

	"github.com/spf13/afero"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/praxis-ai/praxis/internal/confidence"
	"github.com/praxis-ai/praxis/internal/config"
	"github.com/praxis-ai/praxis/internal/engine"
	"github.com/praxis-ai/praxis/internal/knowledge"
	"github.com/praxis-ai/praxis/internal/operation"
	"github.com/praxis-ai/praxis/internal/operation/builtins"
	"github.com/praxis-ai/praxis/internal/safety"
	"github.com/praxis-ai/praxis/internal/state"
)

// buildEngine wires the engine from configuration: the state store, the
// operation registry with all builtin handlers, the safety classifier, the
// confidence calculator, and the optional knowledge store.
func buildEngine(cfg *config.Config) (*engine.Engine, func(), error) {
	store, err := state.NewFileStore(cfg.State.Dir)
	if err != nil {
		return nil, nil, err
	}

	registry := operation.NewRegistry()

	fileOps := builtins.NewFileOperations(afero.NewOsFs())
	if err := fileOps.Register(registry); err != nil {
		return nil, nil, err
	}

	shellOps := builtins.NewShellOperations(builtins.WithWorkDir(cfg.Engine.WorkDir))
	if err := shellOps.Register(registry); err != nil {
		return nil, nil, err
	}

	if err := builtins.RegisterStateOperations(registry); err != nil {
		return nil, nil, err
	}

	if model := buildModel(cfg.AI); model != nil {
		aiOps := builtins.NewAIOperations(model, builtins.WithTemperature(cfg.AI.Temperature))
		if err := aiOps.Register(registry); err != nil {
			return nil, nil, err
		}
	}

	opts := []engine.Option{
		engine.WithStepTimeout(cfg.Engine.StepTimeout),
		engine.WithClassifier(safety.NewClassifier(
			safety.WithDefaultRules(),
			safety.WithAllowedRoots(cfg.Safety.AllowedRoots...),
		)),
	}

	cleanup := func() {}
	calcOpts := []confidence.Option{
		confidence.WithBands(confidence.Bands{
			High:   cfg.Confidence.HighThreshold,
			Medium: cfg.Confidence.MediumThreshold,
		}),
	}

	if cfg.Knowledge.Enabled {
		kb, err := knowledge.Open(cfg.Knowledge.Path)
		if err != nil {
			slog.Warn("knowledge store unavailable, running without reliability history", "error", err)
		} else {
			cleanup = func() { kb.Close() }
			calcOpts = append(calcOpts, confidence.WithReliabilitySource(kb))
			opts = append(opts, engine.WithOutcomeRecorder(kb))
		}
	}

	opts = append(opts, engine.WithCalculator(confidence.NewCalculator(calcOpts...)))

	return engine.New(store, registry, opts...), cleanup, nil
}

// buildModel creates the langchaingo model for the configured provider.
// Returns nil when no provider is configured or the provider fails to
// initialize; ai.* operations are then unregistered and dispatch fails
// with UNKNOWN_OPERATION.
func buildModel(cfg config.AIConfig) llms.Model {
	switch cfg.Provider {
	case "openai":
		model, err := openai.New(openai.WithModel(cfg.Model))
		if err != nil {
			slog.Warn("openai model unavailable, ai.* operations disabled", "error", err)
			return nil
		}
		return model
	case "ollama":
		model, err := ollama.New(ollama.WithModel(cfg.Model))
		if err != nil {
			slog.Warn("ollama model unavailable, ai.* operations disabled", "error", err)
			return nil
		}
		return model
	case "":
		return nil
	default:
		slog.Warn("unknown ai provider, ai.* operations disabled", "provider", cfg.Provider)
		return nil
	}
}
