// Package appointment implements the one-off appointment command group.
package appointment

import (
	"github.com/spf13/cobra"
)

// Cmd is the appointment command group
var Cmd = &cobra.Command{
	Use:   "appointment",
	Short: "Manage standalone appointments",
	Long:  `Book and update one-off visits that do not belong to a recurring series.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(reattachCmd)
}
