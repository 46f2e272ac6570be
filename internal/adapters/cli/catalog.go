package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/factorysim-go/internal/adapters/catalog"
	"github.com/andrescamacho/factorysim-go/internal/infrastructure/config"
)

// NewCatalogCommand creates the catalog command
func NewCatalogCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and print the machine catalog",
		Long: `Load the catalog (simulation.catalog_path, or the built-in one) and list
its machine kinds, fuels and recipes. A catalog that fails validation is reported
with the offending line.

Examples:
  factorysim catalog
  factorysim catalog --file configs/catalog.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = config.LoadConfigOrDefault(configPath).Simulation.CatalogPath
			}
			cat, err := catalog.Load(path)
			if err != nil {
				return err
			}

			source := path
			if source == "" {
				source = "(built-in)"
			}
			fmt.Printf("Catalog %s\n\n", source)

			fmt.Println("Machines:")
			for _, kind := range cat.Kinds() {
				fmt.Printf("  %s\n", kind)
			}

			fmt.Println("\nFuels:")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "  KEY\tPER BURN\tBURN TIME\tRATIO")
			for _, f := range cat.Fuels() {
				perBurn := fmt.Sprintf("%d items", f.Count)
				if f.Count == 0 {
					perBurn = f.Consumption.String() + " units"
				}
				fmt.Fprintf(w, "  %s\t%s\t%d\t%.1f\n", f.Key, perBurn, f.BurnTime, f.GenerationRatio)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Println("\nRecipes:")
			w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "  TYPE\tID\tDURATION\tENERGY/TICK")
			for _, t := range cat.RecipeTypes() {
				for _, r := range cat.RecipesFor(t) {
					fmt.Fprintf(w, "  %s\t%s\t%d\t%.1f\n", t, r.ID, r.Duration, r.EnergyPerTick)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "Catalog file (default: simulation.catalog_path)")

	return cmd
}
