package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rotahq/rota/internal/scheduling/domain"
)

var (
	templateID      string
	templateAddress string
	templatePrice   int64
	templateSize    int
	templateService string
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage job templates (local mode)",
}

var templateSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create or refresh a job template",
	Long: `Seed a job template. Templates are normally provisioned by the
client management system; in single-binary local mode they are seeded here.

Example:
  rota template seed --address "12 Harbour Lane" --price-cents 14500 --size-sqm 90`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.SeedTemplate == nil {
			fmt.Println("Template seeding is only available in local mode.")
			return nil
		}

		id := uuid.New()
		if templateID != "" {
			parsed, err := uuid.Parse(templateID)
			if err != nil {
				return fmt.Errorf("invalid template ID: %w", err)
			}
			id = parsed
		}

		tmpl := domain.Template{
			ID:          id,
			Address:     templateAddress,
			PriceCents:  templatePrice,
			SizeSqm:     templateSize,
			ServiceType: templateService,
		}
		if err := app.SeedTemplate(cmd.Context(), tmpl); err != nil {
			return fmt.Errorf("failed to seed template: %w", err)
		}

		fmt.Printf("Seeded template %s (%s)\n", id, templateAddress)
		return nil
	},
}

func init() {
	templateSeedCmd.Flags().StringVar(&templateID, "id", "", "template ID (generated when omitted)")
	templateSeedCmd.Flags().StringVar(&templateAddress, "address", "", "service address (required)")
	templateSeedCmd.Flags().Int64Var(&templatePrice, "price-cents", 0, "visit price in cents")
	templateSeedCmd.Flags().IntVar(&templateSize, "size-sqm", 0, "property size in square meters")
	templateSeedCmd.Flags().StringVar(&templateService, "service-type", "standard", "service type")
	_ = templateSeedCmd.MarkFlagRequired("address")
	templateCmd.AddCommand(templateSeedCmd)
	rootCmd.AddCommand(templateCmd)
}
