package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praxis-ai/praxis/internal/plan"
)

var validateCmd = &cobra.Command{
	Use:   "validate <plan.json>",
	Short: "Validate a plan document without executing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read plan document: %w", err)
		}

		p, err := plan.Parse(doc)
		if err != nil {
			return err
		}

		cmd.Printf("Plan valid: %d steps, overall confidence %.2f\n",
			len(p.Steps), p.OverallConfidence)
		for i := range p.Steps {
			step := &p.Steps[i]
			cmd.Printf("  %s: %s (confidence %.2f)\n", step.ID, step.Operation, step.Confidence)
		}
		return nil
	},
}
