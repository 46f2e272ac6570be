package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/factorysim-go/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration settings",
		Long: `Inspect factorysim configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (FS_* prefix, e.g. FS_SIMULATION_WORLD)
2. Config file (factorysim.yaml)
3. Default values

Examples:
  factorysim config show
  factorysim config show --config configs/factorysim.yaml`,
	}

	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				fmt.Printf("Warning: Failed to load config: %v\n", err)
				fmt.Println("Using default configuration.")
				cfg = config.LoadConfigOrDefault("")
			}

			fmt.Println("factorysim Configuration")
			fmt.Println("========================")

			fmt.Println("\nDatabase:")
			fmt.Printf("  Type:               %s\n", cfg.Database.Type)
			switch {
			case cfg.Database.URL != "":
				fmt.Printf("  URL:                %s\n", maskPassword(cfg.Database.URL))
			case cfg.Database.Type == "sqlite":
				fmt.Printf("  Path:               %s\n", cfg.Database.Path)
			default:
				fmt.Printf("  Host:               %s:%d\n", cfg.Database.Host, cfg.Database.Port)
				fmt.Printf("  Database:           %s\n", cfg.Database.Name)
				fmt.Printf("  User:               %s\n", cfg.Database.User)
			}

			fmt.Println("\nSimulation:")
			fmt.Printf("  World:              %s\n", cfg.Simulation.World)
			fmt.Printf("  Ticks per second:   %g\n", cfg.Simulation.TicksPerSecond)
			fmt.Printf("  Structure checks:   every %d ticks\n", cfg.Simulation.CheckInterval)
			fmt.Printf("  Checkpoints:        every %d ticks\n", cfg.Simulation.SnapshotInterval)
			fmt.Printf("  Temperature boost:  %g\n", cfg.Simulation.TemperatureBoost)
			fmt.Printf("  Seed:               %s\n", orDefault(cfg.Simulation.Seed != 0, fmt.Sprint(cfg.Simulation.Seed), "(clock)"))
			fmt.Printf("  Catalog:            %s\n", orDefault(cfg.Simulation.CatalogPath != "", cfg.Simulation.CatalogPath, "(built-in)"))
			fmt.Printf("  Layout:             %s\n", orDefault(cfg.Simulation.LayoutPath != "", cfg.Simulation.LayoutPath, "(none)"))

			fmt.Println("\nMetrics:")
			fmt.Printf("  Enabled:            %t\n", cfg.Metrics.Enabled)
			fmt.Printf("  Address:            %s\n", cfg.Metrics.Addr())

			fmt.Println("\nStreaming:")
			fmt.Printf("  Enabled:            %t\n", cfg.Streaming.Enabled)
			fmt.Printf("  Brokers:            %s\n", strings.Join(cfg.Streaming.Brokers, ", "))
			fmt.Printf("  Topic:              %s\n", cfg.Streaming.Topic)
			fmt.Printf("  Write Timeout:      %s\n", cfg.Streaming.WriteTimeout)
			fmt.Printf("  Breaker:            %d failures, %s cooldown\n", cfg.Streaming.BreakerFailures, cfg.Streaming.BreakerCooldown)

			fmt.Println("\nLogging:")
			fmt.Printf("  Level:              %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:             %s\n", cfg.Logging.Format)
			fmt.Printf("  Output:             %s\n", cfg.Logging.Output)

			return nil
		},
	}

	return cmd
}

func orDefault(ok bool, value, fallback string) string {
	if ok {
		return value
	}
	return fallback
}

// maskPassword hides the password of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
