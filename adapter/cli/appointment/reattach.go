package appointment

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rotahq/rota/adapter/cli"
	"github.com/rotahq/rota/internal/scheduling/application/commands"
)

var reattachCmd = &cobra.Command{
	Use:   "reattach [old-instance-id] [new-instance-id]",
	Short: "Re-attach a rescheduled replacement visit to its series",
	Long: `When an external reschedule flow replaced a confirmed visit of a
series with a standalone booking, re-attach the replacement so the cadence
projects from the date the visit actually happens on.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ReattachHandler == nil {
			fmt.Println("Reattaching visits requires a database connection.")
			return nil
		}

		oldID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid old instance ID: %w", err)
		}
		newID, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid new instance ID: %w", err)
		}

		if err := app.ReattachHandler.Handle(cmd.Context(), commands.ReattachRescheduledCommand{
			OldInstanceID: oldID,
			NewInstanceID: newID,
			OperatorID:    app.OperatorID,
		}); err != nil {
			return fmt.Errorf("failed to reattach visit: %w", err)
		}

		fmt.Printf("Reattached visit %s to its series\n", newID)
		return nil
	},
}
