package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "factorysim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "simulation:\n  world: plant\n")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "plant", cfg.Simulation.World)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "factorysim.db", cfg.Database.Path)
	assert.Equal(t, 20.0, cfg.Simulation.TicksPerSecond)
	assert.Equal(t, uint32(20), cfg.Simulation.CheckInterval)
	assert.Equal(t, 1.5, cfg.Simulation.TemperatureBoost)
	assert.Equal(t, "localhost:9090", cfg.Metrics.Addr())
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "simulation:\n  world: plant\n  snapshot_interval: 50\n")
	t.Setenv("FS_SIMULATION_WORLD", "override")
	t.Setenv("FS_SIMULATION_SEED", "42")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "override", cfg.Simulation.World)
	assert.Equal(t, uint64(42), cfg.Simulation.Seed)
	assert.Equal(t, uint64(50), cfg.Simulation.SnapshotInterval)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown database type", "database:\n  type: mysql\n"},
		{"unknown log level", "logging:\n  level: loud\n"},
		{"file output without path", "logging:\n  output: file\n"},
		{"streaming without brokers", "streaming:\n  enabled: true\n"},
		{"negative tick rate", "simulation:\n  ticks_per_second: -1\n"},
		{"world name with spaces", "simulation:\n  world: my plant\n"},
		{"idle pool above open", "database:\n  pool:\n    max_open: 2\n    max_idle: 4\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))

			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestValidateConfig_ReportsConfigKeys(t *testing.T) {
	cfg := &Config{}
	SetDefaults(cfg)
	cfg.Simulation.World = "Plant One"
	cfg.Database.Pool.MaxIdle = 20

	err := ValidateConfig(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulation.world: world_name")
	assert.Contains(t, err.Error(), "database.pool.max_idle: ltefield=MaxOpen")
}

func TestLoadConfigOrDefault_FallsBackOnError(t *testing.T) {
	cfg := LoadConfigOrDefault(writeConfig(t, "database:\n  type: mysql\n"))

	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "default", cfg.Simulation.World)
}
