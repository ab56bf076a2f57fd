package family

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rotahq/rota/adapter/cli"
	"github.com/rotahq/rota/internal/scheduling/application/queries"
)

var showCmd = &cobra.Command{
	Use:   "show [family-id]",
	Short: "Show a series and its visit chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetFamilyHandler == nil {
			fmt.Println("Showing a series requires a database connection.")
			return nil
		}

		familyID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid family ID: %w", err)
		}

		view, err := app.GetFamilyHandler.Handle(cmd.Context(), queries.GetFamilyQuery{FamilyID: familyID})
		if err != nil {
			return fmt.Errorf("failed to load series: %w", err)
		}

		f := view.Family
		next := "-"
		if f.NextVisitDate() != nil {
			next = f.NextVisitDate().Format(cli.DateLayout)
		}
		fmt.Printf("Series %s\n", f.ID())
		fmt.Printf("  Client:   %s\n", f.ClientID())
		fmt.Printf("  Template: %s\n", f.TemplateID())
		fmt.Printf("  Cadence:  %s\n", cli.DescribeRule(f.Rule()))
		fmt.Printf("  Status:   %s\n", f.Status())
		fmt.Printf("  Next:     %s\n", next)

		if len(view.Instances) > 0 {
			fmt.Printf("Visits (%d):\n", len(view.Instances))
			for _, visit := range view.Instances {
				fmt.Printf("  %s\n", cli.FormatVisit(visit))
			}
		}
		return nil
	},
}
