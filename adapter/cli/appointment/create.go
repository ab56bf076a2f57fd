package appointment

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rotahq/rota/adapter/cli"
	"github.com/rotahq/rota/internal/scheduling/application/commands"
)

var (
	createClient   string
	createTemplate string
	createDate     string
	createClock    string
	createStaff    []string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Book a one-off visit",
	Long: `Book a single visit outside any recurring series.

Example:
  rota appointment create --client 9f3c... --template 71ab... --date 2025-03-04 --time 15:00 --staff 52be...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateAppointmentHandler == nil {
			fmt.Println("Booking appointments requires a database connection.")
			return nil
		}

		clientID, err := uuid.Parse(createClient)
		if err != nil {
			return fmt.Errorf("invalid client ID: %w", err)
		}
		templateID, err := uuid.Parse(createTemplate)
		if err != nil {
			return fmt.Errorf("invalid template ID: %w", err)
		}
		date, err := cli.ParseDate(createDate)
		if err != nil {
			return err
		}
		staff, err := cli.ParseStaffIDs(createStaff)
		if err != nil {
			return err
		}

		appt, err := app.CreateAppointmentHandler.Handle(cmd.Context(), commands.CreateAppointmentCommand{
			ClientID:   clientID,
			TemplateID: templateID,
			Date:       date,
			Clock:      createClock,
			StaffIDs:   staff,
			OperatorID: app.OperatorID,
		})
		if err != nil {
			return fmt.Errorf("failed to book appointment: %w", err)
		}

		fmt.Printf("Booked visit: %s\n", cli.FormatVisit(appt))
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createClient, "client", "", "client ID (required)")
	createCmd.Flags().StringVar(&createTemplate, "template", "", "job template ID (required)")
	createCmd.Flags().StringVar(&createDate, "date", "", "visit date, YYYY-MM-DD (required)")
	createCmd.Flags().StringVar(&createClock, "time", "", "visit time, HH:MM (required)")
	createCmd.Flags().StringSliceVar(&createStaff, "staff", nil, "staff IDs to assign")
	_ = createCmd.MarkFlagRequired("client")
	_ = createCmd.MarkFlagRequired("template")
	_ = createCmd.MarkFlagRequired("date")
	_ = createCmd.MarkFlagRequired("time")
}
