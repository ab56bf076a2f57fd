package family

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rotahq/rota/adapter/cli"
	"github.com/rotahq/rota/internal/scheduling/application/commands"
)

var (
	restartDate  string
	restartClock string
)

var restartCmd = &cobra.Command{
	Use:   "restart [family-id]",
	Short: "Restart a stopped series",
	Long: `Reactivate a stopped series from a fresh anchor date. A new
unconfirmed visit is projected on that date.

Example:
  rota family restart 7e20... --date 2025-04-07 --time 09:00`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RestartFamilyHandler == nil {
			fmt.Println("Restarting a series requires a database connection.")
			return nil
		}

		familyID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid family ID: %w", err)
		}
		date, err := cli.ParseDate(restartDate)
		if err != nil {
			return err
		}

		result, err := app.RestartFamilyHandler.Handle(cmd.Context(), commands.RestartFamilyCommand{
			FamilyID:   familyID,
			Date:       date,
			Clock:      restartClock,
			OperatorID: app.OperatorID,
		})
		if err != nil {
			return fmt.Errorf("failed to restart series: %w", err)
		}

		fmt.Printf("Restarted series %s\n", result.Family.ID())
		if result.PendingInstance != nil {
			fmt.Printf("  Next visit: %s\n", cli.FormatVisit(result.PendingInstance))
		}
		return nil
	},
}

func init() {
	restartCmd.Flags().StringVar(&restartDate, "date", "", "new anchor date, YYYY-MM-DD (required)")
	restartCmd.Flags().StringVar(&restartClock, "time", "", "visit time, HH:MM (required)")
	_ = restartCmd.MarkFlagRequired("date")
	_ = restartCmd.MarkFlagRequired("time")
}
