package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/factorysim-go/internal/adapters/catalog"
	"github.com/andrescamacho/factorysim-go/internal/adapters/persistence"
	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/test/helpers"
)

func newFactory(t *testing.T) *machine.Factory {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return machine.NewFactory(cat)
}

func snapshotsOf(t *testing.T, f *machine.Factory, tick uint64) ([]*machine.Machine, []simulation.Snapshot) {
	t.Helper()
	gen, err := f.New(machine.KindCoalGenerator, shared.BlockPos{X: 4, Y: 64, Z: -2}, shared.North)
	require.NoError(t, err)
	items, _ := gen.Items()
	items.InsertExternal(inventory.NewStack("coal", 7))

	tank, err := f.New(machine.KindFluidTank, shared.BlockPos{X: 5, Y: 64, Z: -2}, shared.East)
	require.NoError(t, err)

	machines := []*machine.Machine{gen, tank}
	snapshots := make([]simulation.Snapshot, 0, len(machines))
	for _, m := range machines {
		snapshots = append(snapshots, simulation.SnapshotOf(m, tick))
	}
	return machines, snapshots
}

func TestSnapshotRepository_SaveAndLoad(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 0)
	repo := persistence.NewGormSnapshotRepository(db, clock)
	f := newFactory(t)
	machines, snapshots := snapshotsOf(t, f, 40)

	// Act
	err := repo.Save(context.Background(), "plant", snapshots)
	require.NoError(t, err)
	loaded, err := repo.Load(context.Background(), "plant")

	// Assert
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	for i, s := range loaded {
		assert.Equal(t, machines[i].ID(), s.ID)
		assert.Equal(t, machines[i].Kind(), s.Kind)
		assert.Equal(t, machines[i].Pos(), s.Pos)
		assert.Equal(t, machines[i].Facing(), s.Facing)
		assert.Equal(t, uint64(40), s.Tick)

		restored, err := f.Restore(s.ID, s.Kind, s.Pos, s.Facing, s.Blob)
		require.NoError(t, err)
		if diff := cmp.Diff(machines[i].Serialize(), restored.Serialize()); diff != "" {
			t.Errorf("restored %s state mismatch (-want +got):\n%s", s.Kind, diff)
		}
	}
}

func TestSnapshotRepository_SaveUpsertsAndPrunes(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSnapshotRepository(db, nil)
	f := newFactory(t)
	_, snapshots := snapshotsOf(t, f, 10)
	require.NoError(t, repo.Save(context.Background(), "plant", snapshots))

	// Act: the tank was removed and the generator ticked on
	gen := snapshots[0]
	gen.Tick = 20
	err := repo.Save(context.Background(), "plant", []simulation.Snapshot{gen})

	// Assert
	require.NoError(t, err)
	loaded, err := repo.Load(context.Background(), "plant")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, gen.ID, loaded[0].ID)
	assert.Equal(t, uint64(20), loaded[0].Tick)
}

func TestSnapshotRepository_WorldsAreIsolated(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSnapshotRepository(db, nil)
	f := newFactory(t)
	_, a := snapshotsOf(t, f, 1)
	_, b := snapshotsOf(t, f, 1)
	require.NoError(t, repo.Save(context.Background(), "alpha", a))
	require.NoError(t, repo.Save(context.Background(), "beta", b[:1]))

	// Act
	require.NoError(t, repo.Save(context.Background(), "beta", nil))
	alpha, err := repo.Load(context.Background(), "alpha")
	require.NoError(t, err)
	beta, err := repo.Load(context.Background(), "beta")
	require.NoError(t, err)
	worlds, err := repo.Worlds(context.Background())
	require.NoError(t, err)

	// Assert
	assert.Len(t, alpha, 2)
	assert.Empty(t, beta)
	assert.Equal(t, []string{"alpha"}, worlds)
}

func TestSnapshotRepository_MalformedStateRestoresDefaults(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSnapshotRepository(db, nil)
	id := machine.NewID()
	require.NoError(t, db.Create(&persistence.MachineSnapshotModel{
		World:     "plant",
		MachineID: id.String(),
		Kind:      string(machine.KindFluidTank),
		Facing:    shared.North.String(),
		Tick:      3,
		State:     "{not json",
		UpdatedAt: time.Now(),
	}).Error)

	// Act
	loaded, err := repo.Load(context.Background(), "plant")

	// Assert
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, id, loaded[0].ID)
	assert.Empty(t, loaded[0].Blob)
}
