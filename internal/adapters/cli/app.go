package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/factorysim-go/internal/adapters/catalog"
	"github.com/andrescamacho/factorysim-go/internal/adapters/metrics"
	"github.com/andrescamacho/factorysim-go/internal/adapters/persistence"
	"github.com/andrescamacho/factorysim-go/internal/adapters/streaming"
	"github.com/andrescamacho/factorysim-go/internal/application/common"
	"github.com/andrescamacho/factorysim-go/internal/application/mediator"
	"github.com/andrescamacho/factorysim-go/internal/application/setup"
	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/infrastructure/config"
	"github.com/andrescamacho/factorysim-go/internal/infrastructure/database"
	"github.com/andrescamacho/factorysim-go/internal/infrastructure/logging"
)

// app is the wired simulation: one world, its stores and the mediator in front of it
type app struct {
	cfg       *config.Config
	logger    *logging.ZapLogger
	catalog   *catalog.Catalog
	factory   *machine.Factory
	db        *gorm.DB
	snapshots *persistence.GormSnapshotRepository
	runs      *persistence.GormRunRepository
	publisher *streaming.KafkaPublisher
	runner    *simulation.Runner
	mediator  mediator.Mediator

	// httpMetrics is nil unless metrics are enabled
	httpMetrics *metrics.HTTPMetricsCollector
}

// runOptions are the run-only overrides of the loaded configuration
type runOptions struct {
	unpaced bool
	metrics bool
}

// loadConfig loads the configuration named by the --config flag
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if worldName != "" {
		cfg.Simulation.World = worldName
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// newApp wires every component for cfg. The caller must Close it.
func newApp(cfg *config.Config, opts runOptions) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.logger, err = logging.New(cfg.Logging); err != nil {
		return nil, err
	}

	if a.catalog, err = catalog.Load(cfg.Simulation.CatalogPath); err != nil {
		return nil, err
	}
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	a.factory = machine.NewFactory(a.catalog,
		machine.WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))),
		machine.WithCheckInterval(cfg.Simulation.CheckInterval),
		machine.WithTemperatureBoost(cfg.Simulation.TemperatureBoost),
	)

	if a.db, err = database.NewConnection(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err = database.AutoMigrate(a.db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	a.snapshots = persistence.NewGormSnapshotRepository(a.db, nil)
	a.runs = persistence.NewGormRunRepository(a.db)

	runnerOpts := []simulation.RunnerOption{
		simulation.WithRepository(a.snapshots),
		simulation.WithRunHistory(a.runs),
		simulation.WithSnapshotInterval(cfg.Simulation.SnapshotInterval),
	}
	if !opts.unpaced {
		runnerOpts = append(runnerOpts, simulation.WithTickRate(cfg.Simulation.TicksPerSecond))
	}
	if cfg.Streaming.Enabled {
		a.publisher = streaming.NewKafkaPublisher(streaming.NewKafkaWriter(cfg.Streaming), cfg.Streaming.WriteTimeout).
			WithBreaker(streaming.NewBreaker(cfg.Streaming.BreakerFailures, cfg.Streaming.BreakerCooldown, nil))
		runnerOpts = append(runnerOpts, simulation.WithPublisher(a.publisher))
	}

	var middlewares []mediator.Middleware
	if opts.metrics && cfg.Metrics.Enabled {
		metrics.InitRegistry()
		simMetrics := metrics.NewSimulationMetricsCollector()
		if err = simMetrics.Register(); err != nil {
			return nil, fmt.Errorf("failed to register simulation metrics: %w", err)
		}
		cmdMetrics := metrics.NewCommandMetricsCollector()
		if err = cmdMetrics.Register(); err != nil {
			return nil, fmt.Errorf("failed to register command metrics: %w", err)
		}
		a.httpMetrics = metrics.NewHTTPMetricsCollector()
		if err = a.httpMetrics.Register(); err != nil {
			return nil, fmt.Errorf("failed to register http metrics: %w", err)
		}
		runnerOpts = append(runnerOpts, simulation.WithMetrics(simMetrics))
		middlewares = append(middlewares, metrics.PrometheusMiddleware(cmdMetrics))
	}

	a.runner = simulation.NewRunner(cfg.Simulation.World, simulation.NewWorld(), runnerOpts...)
	a.mediator, err = setup.NewHandlerRegistry(a.runner, middlewares...).
		WithRunHistory(a.runs).
		CreateConfiguredMediator()
	if err != nil {
		return nil, fmt.Errorf("failed to configure mediator: %w", err)
	}
	return a, nil
}

// withLogger returns ctx carrying the app logger
func (a *app) withLogger(ctx context.Context) context.Context {
	return common.WithLogger(ctx, a.logger)
}

// Close releases the database, the Kafka writer and the logger
func (a *app) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.db != nil {
		errs = append(errs, database.Close(a.db))
	}
	if a.logger != nil {
		// stdout cannot be synced on some platforms
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}
