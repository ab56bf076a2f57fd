package family

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
	createRule     string
	createStaff    []string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Book a new recurring visit series",
	Long: `Book a recurrence family plus its first unconfirmed visit.

Rules:
  weekly | biweekly | every3weeks | monthly
  months:<n>           every n months
  day:<n>              the n-th of each month
  <ordinal>:<weekday>  e.g. 2nd:tuesday, last:friday

Examples:
  rota family create --client 9f3c... --template 71ab... --date 2025-03-03 --time 09:00
  rota family create --client 9f3c... --template 71ab... --date 2025-03-31 --time 15:00 --rule monthly
  rota family create --client 9f3c... --template 71ab... --date 2025-03-11 --time 10:00 --rule 2nd:tuesday`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateFamilyHandler == nil {
			fmt.Println("Family booking requires a database connection.")
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
		rule, err := parseRule(createRule)
		if err != nil {
			return err
		}
		staff, err := cli.ParseStaffIDs(createStaff)
		if err != nil {
			return err
		}

		result, err := app.CreateFamilyHandler.Handle(cmd.Context(), commands.CreateFamilyCommand{
			ClientID:   clientID,
			TemplateID: templateID,
			FirstDate:  date,
			Clock:      createClock,
			Rule:       rule,
			StaffIDs:   staff,
			OperatorID: app.OperatorID,
		})
		if err != nil {
			return fmt.Errorf("failed to book family: %w", err)
		}

		fmt.Printf("Booked recurring series (%s)\n", cli.DescribeRule(rule))
		fmt.Printf("  Family: %s\n", result.Family.ID())
		fmt.Printf("  First visit: %s\n", cli.FormatVisit(result.PendingInstance))
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createClient, "client", "", "client ID (required)")
	createCmd.Flags().StringVar(&createTemplate, "template", "", "job template ID (required)")
	createCmd.Flags().StringVar(&createDate, "date", "", "first visit date, YYYY-MM-DD (required)")
	createCmd.Flags().StringVar(&createClock, "time", "", "visit time, HH:MM (required)")
	createCmd.Flags().StringVar(&createRule, "rule", "weekly", "cadence rule")
	createCmd.Flags().StringSliceVar(&createStaff, "staff", nil, "staff IDs to assign")
	_ = createCmd.MarkFlagRequired("client")
	_ = createCmd.MarkFlagRequired("template")
	_ = createCmd.MarkFlagRequired("date")
	_ = createCmd.MarkFlagRequired("time")
}
