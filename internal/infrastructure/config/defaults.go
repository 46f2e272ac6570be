package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "factorysim.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "factorysim"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "factorysim"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 10
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 2
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}

	// Simulation defaults
	if cfg.Simulation.World == "" {
		cfg.Simulation.World = "default"
	}
	if cfg.Simulation.TicksPerSecond == 0 {
		cfg.Simulation.TicksPerSecond = 20
	}
	if cfg.Simulation.CheckInterval == 0 {
		cfg.Simulation.CheckInterval = 20
	}
	if cfg.Simulation.SnapshotInterval == 0 {
		cfg.Simulation.SnapshotInterval = 200
	}
	if cfg.Simulation.TemperatureBoost == 0 {
		cfg.Simulation.TemperatureBoost = 1.5
	}
	if cfg.Simulation.ShutdownTimeout == 0 {
		cfg.Simulation.ShutdownTimeout = 5 * time.Second
	}

	// Streaming defaults
	if cfg.Streaming.Topic == "" {
		cfg.Streaming.Topic = "factorysim.snapshots"
	}
	if cfg.Streaming.WriteTimeout == 0 {
		cfg.Streaming.WriteTimeout = 10 * time.Second
	}
	if cfg.Streaming.BreakerFailures == 0 {
		cfg.Streaming.BreakerFailures = 5
	}
	if cfg.Streaming.BreakerCooldown == 0 {
		cfg.Streaming.BreakerCooldown = 30 * time.Second
	}
}
