package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	worldName  string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "factorysim",
		Short: "factorysim - tick-driven machine simulation",
		Long: `factorysim steps a world of machines (generators, furnaces, distillers,
boilers and tanks) one tick at a time, persisting checkpoints between runs.

Examples:
  factorysim run --ticks 1200
  factorysim run --unpaced --fresh
  factorysim inspect
  factorysim inspect <machine-id>
  factorysim runs --limit 5
  factorysim catalog
  factorysim config show`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: ./factorysim.yaml, ./configs/factorysim.yaml)")
	rootCmd.PersistentFlags().StringVar(&worldName, "world", "",
		"World name (overrides simulation.world)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewInspectCommand())
	rootCmd.AddCommand(NewRunsCommand())
	rootCmd.AddCommand(NewCatalogCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
