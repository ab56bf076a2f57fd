package appointment

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rotahq/rota/adapter/cli"
	"github.com/rotahq/rota/internal/scheduling/application/commands"
)

var (
	updateDate  string
	updateClock string
	updateStaff []string
)

var updateCmd = &cobra.Command{
	Use:   "update [appointment-id]",
	Short: "Rebook a visit's date, time and staff",
	Long: `Rebook an existing visit. The new slot is conflict-checked against
every other visit on that day before the change lands.

Example:
  rota appointment update 4c1d... --date 2025-03-05 --time 09:30 --staff 52be...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UpdateAppointmentHandler == nil {
			fmt.Println("Updating appointments requires a database connection.")
			return nil
		}

		appointmentID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid appointment ID: %w", err)
		}
		date, err := cli.ParseDate(updateDate)
		if err != nil {
			return err
		}
		staff, err := cli.ParseStaffIDs(updateStaff)
		if err != nil {
			return err
		}

		appt, err := app.UpdateAppointmentHandler.Handle(cmd.Context(), commands.UpdateAppointmentCommand{
			AppointmentID: appointmentID,
			Date:          date,
			Clock:         updateClock,
			StaffIDs:      staff,
			OperatorID:    app.OperatorID,
		})
		if err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}

		fmt.Printf("Updated visit: %s\n", cli.FormatVisit(appt))
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateDate, "date", "", "new date, YYYY-MM-DD (required)")
	updateCmd.Flags().StringVar(&updateClock, "time", "", "new time, HH:MM (required)")
	updateCmd.Flags().StringSliceVar(&updateStaff, "staff", nil, "staff IDs to assign")
	_ = updateCmd.MarkFlagRequired("date")
	_ = updateCmd.MarkFlagRequired("time")
}
