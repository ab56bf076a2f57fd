package family

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rotahq/rota/adapter/cli"
	"github.com/rotahq/rota/internal/scheduling/application/commands"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [family-id]",
	Short: "Delete a series and its pending visit",
	Long: `Delete a recurrence family. The unconfirmed visit disappears with
it; already-confirmed visits stay on the books.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.DeleteFamilyHandler == nil {
			fmt.Println("Deleting a series requires a database connection.")
			return nil
		}

		familyID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid family ID: %w", err)
		}

		if err := app.DeleteFamilyHandler.Handle(cmd.Context(), commands.DeleteFamilyCommand{
			FamilyID:   familyID,
			OperatorID: app.OperatorID,
		}); err != nil {
			return fmt.Errorf("failed to delete series: %w", err)
		}

		fmt.Printf("Deleted series %s\n", familyID)
		return nil
	},
}
