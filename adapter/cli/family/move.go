package family

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rotahq/rota/adapter/cli"
	"github.com/rotahq/rota/internal/scheduling/application/commands"
)

var (
	moveDate  string
	moveClock string
)

var moveCmd = &cobra.Command{
	Use:   "move [instance-id]",
	Short: "Move a family's pending visit without advancing the cadence",
	Long: `Move the unconfirmed visit to a new date or time. The cadence keeps
projecting from the original anchor; only a confirm advances it.

Example:
  rota family move 4c1d... --date 2025-03-06 --time 15:00`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.MoveInstanceHandler == nil {
			fmt.Println("Moving visits requires a database connection.")
			return nil
		}

		instanceID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid instance ID: %w", err)
		}
		date, err := cli.ParseDate(moveDate)
		if err != nil {
			return err
		}

		moved, err := app.MoveInstanceHandler.Handle(cmd.Context(), commands.MoveInstanceCommand{
			InstanceID: instanceID,
			NewDate:    date,
			NewClock:   moveClock,
			OperatorID: app.OperatorID,
		})
		if err != nil {
			return fmt.Errorf("failed to move visit: %w", err)
		}

		fmt.Printf("Moved visit: %s\n", cli.FormatVisit(moved))
		return nil
	},
}

func init() {
	moveCmd.Flags().StringVar(&moveDate, "date", "", "new date, YYYY-MM-DD (required)")
	moveCmd.Flags().StringVar(&moveClock, "time", "", "new time, HH:MM (required)")
	_ = moveCmd.MarkFlagRequired("date")
	_ = moveCmd.MarkFlagRequired("time")
}
