package config

import "time"

// SimulationConfig holds run loop and machine factory settings
type SimulationConfig struct {
	// World name; snapshots and run history are keyed by it
	World string `mapstructure:"world" validate:"required,world_name"`

	// Tick pacing; the run command can override it with --unpaced
	TicksPerSecond float64 `mapstructure:"ticks_per_second" validate:"min=0"`

	// Ticks between scheduled multiblock structure checks
	CheckInterval uint32 `mapstructure:"check_interval" validate:"min=1"`

	// Ticks between checkpoints; a final checkpoint is always taken at shutdown
	SnapshotInterval uint64 `mapstructure:"snapshot_interval"`

	// Seed for generator byproduct trials; 0 seeds from the clock
	Seed uint64 `mapstructure:"seed"`

	// Catalog YAML; empty uses the embedded default catalog
	CatalogPath string `mapstructure:"catalog_path"`

	// World layout YAML placed when no snapshot exists
	LayoutPath string `mapstructure:"layout_path"`

	// Generation multiplier inside a generator's optimal temperature band
	TemperatureBoost float64 `mapstructure:"temperature_boost" validate:"gt=0"`

	// Grace period for the status server on shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StreamingConfig holds Kafka snapshot streaming configuration
type StreamingConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers" validate:"required_if=Enabled true,dive,hostname_port"`
	Topic   string   `mapstructure:"topic" validate:"required_if=Enabled true"`

	// Per-batch write timeout
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Consecutive failed batches before publishing is skipped for BreakerCooldown
	BreakerFailures int           `mapstructure:"breaker_failures" validate:"min=0"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}
