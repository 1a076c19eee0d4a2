package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praxis-ai/praxis/internal/plan"
)

var runCmd = &cobra.Command{
	Use:   "run <plan.json>",
	Short: "Validate and execute a plan document",
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

		if len(p.Steps) == 0 {
			cmd.Println("Plan contains no executable steps.")
			return nil
		}

		eng, cleanup, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		result, runErr := eng.Run(cmd.Context(), p)
		if result != nil {
			printResult(cmd, result)
		}
		return runErr
	},
}

func printResult(cmd *cobra.Command, result any) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		cmd.PrintErrf("failed to render result: %v\n", err)
		return
	}
	cmd.Println(string(data))
}
