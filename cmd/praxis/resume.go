package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praxis-ai/praxis/internal/plan"
	"github.com/praxis-ai/praxis/internal/types"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <plan.json> <plan-id>",
	Short: "Resume a persisted run from its last saved state",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read plan document: %w", err)
		}

		p, err := plan.Parse(doc)
		if err != nil {
			return err
		}

		planID, err := types.ParseID(args[1])
		if err != nil {
			return fmt.Errorf("invalid plan id: %w", err)
		}

		eng, cleanup, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		result, runErr := eng.Resume(cmd.Context(), p, planID)
		if result != nil {
			printResult(cmd, result)
		}
		return runErr
	},
}
