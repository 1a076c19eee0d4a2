package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/praxis-ai/praxis/internal/config"
)

var (
	configPath string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "praxis",
	Short: "Praxis - AI plan execution engine",
	Long: `Praxis executes structured, AI-produced plans against pluggable
operations (file I/O, shell commands, AI calls) with safety gating,
confidence thresholds, conditional branching, and crash-resumable state.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling; SIGINT/SIGTERM
// cancel the run at the next step boundary.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	path := configPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home + "/.praxis/config.yaml"
		}
	}

	loader := config.NewLoader(config.NewValidator())
	loaded, err := loader.LoadWithDefaults(path)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default ~/.praxis/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(statusCmd)
}
