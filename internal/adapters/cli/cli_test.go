package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/andrescamacho/factorysim-go/internal/adapters/persistence"
)

func TestMaskPassword(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgresql://sim:secret@db:5432/factorysim", "postgresql://sim:xxxxx@db:5432/factorysim"},
		{"postgresql://db:5432/factorysim", "postgresql://db:5432/factorysim"},
		{"::not a url", "::not a url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, maskPassword(tt.in))
	}
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	assert.ElementsMatch(t, []string{"run", "inspect", "runs", "catalog", "config"}, names)
}

func TestRunCommand_PlacesLayoutAndCheckpoints(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sim.db")
	layoutPath := filepath.Join(dir, "layout.yaml")
	require.NoError(t, os.WriteFile(layoutPath, []byte(`
machines:
  - kind: coal_generator
    pos: [0, 0, 0]
    facing: north
    items: [{ key: coal, count: 2 }]
  - kind: electric_furnace
    pos: [1, 0, 0]
    facing: north
`), 0o644))
	cfgPath := filepath.Join(dir, "factorysim.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
database: { type: sqlite, path: %q }
logging: { level: error, output: stderr }
metrics: { enabled: false }
simulation: { world: cli-test, layout_path: %q, snapshot_interval: 10 }
`, dbPath, layoutPath)), 0o644))
	t.Cleanup(func() { configPath, worldName, verbose = "", "", false })

	root := NewRootCommand()
	root.SetArgs([]string{"run", "--config", cfgPath, "--ticks", "25", "--unpaced", "--fresh"})

	// Act
	err := root.Execute()

	// Assert
	require.NoError(t, err)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	require.NoError(t, err)
	var snapshots []persistence.MachineSnapshotModel
	require.NoError(t, db.Order("seq").Find(&snapshots, "world = ?", "cli-test").Error)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "coal_generator", snapshots[0].Kind)
	assert.Equal(t, int64(25), snapshots[0].Tick)

	var runs []persistence.SimulationRunModel
	require.NoError(t, db.Find(&runs, "world = ?", "cli-test").Error)
	require.Len(t, runs, 1)
	assert.Equal(t, "COMPLETED", runs[0].Status)
	assert.Equal(t, int64(25), runs[0].Ticks)
	sqlDB, _ := db.DB()
	_ = sqlDB.Close()
}
