package family

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rotahq/rota/adapter/cli"
	"github.com/rotahq/rota/internal/scheduling/application/commands"
)

var confirmRescheduleTo string

var confirmCmd = &cobra.Command{
	Use:   "confirm [instance-id]",
	Short: "Confirm a family's pending visit",
	Long: `Confirm the unconfirmed visit of a series, advancing the cadence to
the next cycle. With --reschedule-to the visit is first moved to the given
date and the cadence re-anchors from it.

Examples:
  rota family confirm 4c1d...
  rota family confirm 4c1d... --reschedule-to 2025-03-05`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ConfirmInstanceHandler == nil {
			fmt.Println("Confirming visits requires a database connection.")
			return nil
		}

		instanceID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid instance ID: %w", err)
		}

		command := commands.ConfirmInstanceCommand{
			InstanceID: instanceID,
			OperatorID: app.OperatorID,
		}
		if confirmRescheduleTo != "" {
			date, err := cli.ParseDate(confirmRescheduleTo)
			if err != nil {
				return err
			}
			command.RescheduleTo = &date
		}

		confirmed, err := app.ConfirmInstanceHandler.Handle(cmd.Context(), command)
		if err != nil {
			return fmt.Errorf("failed to confirm visit: %w", err)
		}

		fmt.Printf("Confirmed visit: %s\n", cli.FormatVisit(confirmed))
		return nil
	},
}

func init() {
	confirmCmd.Flags().StringVar(&confirmRescheduleTo, "reschedule-to", "", "confirm on a different date, YYYY-MM-DD")
}
