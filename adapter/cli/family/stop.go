package family

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rotahq/rota/adapter/cli"
	"github.com/rotahq/rota/internal/scheduling/application/commands"
)

var stopReason string

var stopCmd = &cobra.Command{
	Use:   "stop [family-id]",
	Short: "Stop a series without deleting it",
	Long: `Stop an active recurrence family. The unconfirmed visit is removed
and no further visits are projected until the series is restarted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.StopFamilyHandler == nil {
			fmt.Println("Stopping a series requires a database connection.")
			return nil
		}

		familyID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid family ID: %w", err)
		}

		family, err := app.StopFamilyHandler.Handle(cmd.Context(), commands.StopFamilyCommand{
			FamilyID:   familyID,
			Reason:     stopReason,
			OperatorID: app.OperatorID,
		})
		if err != nil {
			return fmt.Errorf("failed to stop series: %w", err)
		}

		fmt.Printf("Stopped series %s\n", family.ID())
		return nil
	},
}

func init() {
	stopCmd.Flags().StringVar(&stopReason, "reason", "", "why the series is being stopped")
}
