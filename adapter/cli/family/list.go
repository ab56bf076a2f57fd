package family

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rotahq/rota/adapter/cli"
	"github.com/rotahq/rota/internal/scheduling/application/queries"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active series",
	Long: `List all active recurrence families. Families whose pending visit
date has passed unconfirmed are stopped by the sweep before listing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SweepAndListActiveHandler == nil {
			fmt.Println("Listing series requires a database connection.")
			return nil
		}

		families, err := app.SweepAndListActiveHandler.Handle(cmd.Context(), queries.SweepAndListActiveQuery{})
		if err != nil {
			return fmt.Errorf("failed to list series: %w", err)
		}

		if len(families) == 0 {
			fmt.Println("No active series.")
			return nil
		}

		fmt.Printf("Active series (%d):\n", len(families))
		for _, f := range families {
			next := "-"
			if f.NextVisitDate() != nil {
				next = f.NextVisitDate().Format(cli.DateLayout)
			}
			fmt.Printf("  %s  client:%s  %-24s next:%s\n",
				f.ID(), f.ClientID().String()[:8], cli.DescribeRule(f.Rule()), next)
		}
		return nil
	},
}
