package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/factorysim-go/internal/adapters/httpapi"
	"github.com/andrescamacho/factorysim-go/internal/adapters/layout"
	"github.com/andrescamacho/factorysim-go/internal/adapters/metrics"
	"github.com/andrescamacho/factorysim-go/internal/application/common"
	simCommands "github.com/andrescamacho/factorysim-go/internal/application/simulation/commands"
	"github.com/andrescamacho/factorysim-go/internal/infrastructure/pidfile"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var (
		ticks   uint64
		unpaced bool
		fresh   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation",
		Long: `Restore the world from its last checkpoint (or place the configured layout)
and step it. With --ticks 0 the run continues until interrupted.

A final checkpoint is written when the run ends. While running, the status
server exposes /health, /machines, /runs and /metrics when metrics are enabled.

Examples:
  factorysim run --ticks 1200
  factorysim run --unpaced --ticks 100000
  factorysim run --fresh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			lock := pidfile.ForWorld(os.TempDir(), cfg.Simulation.World)
			if err := lock.Acquire(); err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			a, err := newApp(cfg, runOptions{unpaced: unpaced, metrics: true})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = a.withLogger(ctx)

			if err := populate(ctx, a, fresh); err != nil {
				return err
			}

			serverErr := make(chan error, 1)
			if cfg.Metrics.Enabled {
				serverCtx, cancelServer := context.WithCancel(ctx)
				defer func() {
					cancelServer()
					<-serverErr
				}()
				router := httpapi.NewRouter(a.mediator, metrics.GetRegistry())
				if a.httpMetrics != nil {
					router.Use(a.httpMetrics.Middleware)
				}
				go func() {
					serverErr <- httpapi.Serve(serverCtx, cfg.Metrics.Addr(), router)
				}()
			} else {
				close(serverErr)
			}

			resp, err := a.mediator.Send(ctx, &simCommands.RunSimulationCommand{Ticks: ticks})
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}
			result := resp.(*simCommands.RunSimulationResponse)

			if _, err := a.runner.Checkpoint(context.WithoutCancel(ctx)); err != nil {
				common.LoggerFromContext(ctx).Log(common.LevelError, "Final checkpoint failed", map[string]interface{}{
					"world": result.World,
					"error": err.Error(),
				})
			}

			s := result.Summary
			fmt.Printf("World %s stopped at tick %d\n", result.World, result.Tick)
			fmt.Printf("  Ticks run:          %d\n", s.Ticks)
			fmt.Printf("  Recipes completed:  %d\n", s.Completed)
			fmt.Printf("  Energy generated:   %.1f\n", s.EnergyGenerated)
			fmt.Printf("  Fluid moved:        %s\n", s.FluidMoved)
			fmt.Printf("  Items moved:        %d\n", s.ItemsMoved)
			fmt.Printf("  Halted ticks:       %d\n", s.Halted)
			fmt.Printf("  Checkpoints:        %d written, %d failed\n", s.SnapshotsWritten, s.SnapshotErrors)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&ticks, "ticks", 0, "Ticks to run (0 = until interrupted)")
	cmd.Flags().BoolVar(&unpaced, "unpaced", false, "Ignore simulation.ticks_per_second and run as fast as possible")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Ignore saved snapshots and place the layout")

	return cmd
}

// populate restores the world from snapshots, falling back to the configured layout
func populate(ctx context.Context, a *app, fresh bool) error {
	logger := common.LoggerFromContext(ctx)
	if !fresh {
		n, err := a.runner.Restore(ctx, a.factory)
		if err != nil {
			return fmt.Errorf("failed to restore world: %w", err)
		}
		if n > 0 {
			return nil
		}
	}

	if a.cfg.Simulation.LayoutPath == "" {
		logger.Log(common.LevelWarn, "No snapshot or layout; starting with an empty world", map[string]interface{}{
			"world": a.runner.Name(),
		})
		return nil
	}
	l, err := layout.Load(a.cfg.Simulation.LayoutPath)
	if err != nil {
		return err
	}
	placed, err := l.Apply(a.runner.World(), a.factory)
	if err != nil {
		return fmt.Errorf("failed to apply layout: %w", err)
	}
	logger.Log(common.LevelInfo, "Layout placed", map[string]interface{}{
		"world":    a.runner.Name(),
		"layout":   a.cfg.Simulation.LayoutPath,
		"machines": len(placed),
	})
	return nil
}
