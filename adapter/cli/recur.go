package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rotahq/rota/internal/scheduling/application/commands"
	"github.com/rotahq/rota/internal/scheduling/domain"
)

// recurCmd keeps the superseded per-appointment recurrence surface callable
// so old scripts get a pointed error instead of an unknown-command message.
var recurCmd = &cobra.Command{
	Use:    "recur",
	Short:  "Superseded per-appointment recurrence operations",
	Hidden: true,
}

var recurStartCmd = &cobra.Command{
	Use:   "start [appointment-id]",
	Short: "Superseded: use 'family create'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.MakeRecurringHandler == nil {
			fmt.Println("This command requires a database connection.")
			return nil
		}

		appointmentID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid appointment ID: %w", err)
		}

		return app.MakeRecurringHandler.Handle(cmd.Context(), commands.MakeAppointmentRecurringCommand{
			AppointmentID: appointmentID,
			Rule:          domain.DefaultRule(),
			OperatorID:    app.OperatorID,
		})
	},
}

var recurStopCmd = &cobra.Command{
	Use:   "stop [appointment-id]",
	Short: "Superseded: use 'family delete'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.StopRecurringHandler == nil {
			fmt.Println("This command requires a database connection.")
			return nil
		}

		appointmentID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid appointment ID: %w", err)
		}

		return app.StopRecurringHandler.Handle(cmd.Context(), commands.StopAppointmentRecurringCommand{
			AppointmentID: appointmentID,
			OperatorID:    app.OperatorID,
		})
	},
}

func init() {
	recurCmd.AddCommand(recurStartCmd)
	recurCmd.AddCommand(recurStopCmd)
	rootCmd.AddCommand(recurCmd)
}
