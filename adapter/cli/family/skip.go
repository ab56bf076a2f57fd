package family

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rotahq/rota/adapter/cli"
	"github.com/rotahq/rota/internal/scheduling/application/commands"
)

var skipCmd = &cobra.Command{
	Use:   "skip [instance-id]",
	Short: "Skip a family's pending visit",
	Long: `Cancel the unconfirmed visit of a series and project the next one on
the cadence. The client keeps their slot in the following cycle.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SkipInstanceHandler == nil {
			fmt.Println("Skipping visits requires a database connection.")
			return nil
		}

		instanceID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid instance ID: %w", err)
		}

		result, err := app.SkipInstanceHandler.Handle(cmd.Context(), commands.SkipInstanceCommand{
			InstanceID: instanceID,
			OperatorID: app.OperatorID,
		})
		if err != nil {
			return fmt.Errorf("failed to skip visit: %w", err)
		}

		fmt.Printf("Skipped visit, next cycle on %s\n", result.NextDate.Format(cli.DateLayout))
		if result.NextInstance != nil {
			fmt.Printf("  Next visit: %s\n", cli.FormatVisit(result.NextInstance))
		}
		return nil
	},
}
