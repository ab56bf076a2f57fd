// Package family implements the recurrence family command group.
package family

import (
	"github.com/spf13/cobra"
)

// Cmd is the family command group
var Cmd = &cobra.Command{
	Use:   "family",
	Short: "Manage recurrence families",
	Long: `Book and maintain recurring visit series. Each family carries one
cadence rule and at most one unconfirmed visit that must be confirmed,
skipped or moved before the cycle advances.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(confirmCmd)
	Cmd.AddCommand(skipCmd)
	Cmd.AddCommand(moveCmd)
	Cmd.AddCommand(stopCmd)
	Cmd.AddCommand(restartCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
}
