package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praxis-ai/praxis/internal/state"
	"github.com/praxis-ai/praxis/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status <plan-id>",
	Short: "Show the persisted state of a plan run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := types.ParseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid plan id: %w", err)
		}

		store, err := state.NewFileStore(cfg.State.Dir)
		if err != nil {
			return err
		}

		st, err := store.Load(planID)
		if err != nil {
			return err
		}

		cmd.Printf("Plan %s: %s\n", st.PlanID, st.Status)
		cmd.Printf("Started:  %s\n", st.StartedAt.Format("2006-01-02 15:04:05"))
		cmd.Printf("Updated:  %s\n", st.UpdatedAt.Format("2006-01-02 15:04:05"))
		cmd.Printf("Steps:\n")
		for id, rec := range st.Steps {
			line := fmt.Sprintf("  %s: %s", id, rec.Status)
			if rec.Reason != "" {
				line += " (" + rec.Reason + ")"
			}
			cmd.Println(line)
		}
		if len(st.History) > 0 {
			cmd.Printf("History: %d transitions, last at %s\n",
				len(st.History), st.History[len(st.History)-1].Timestamp.Format("15:04:05"))
		}
		return nil
	},
}
