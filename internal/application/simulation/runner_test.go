package simulation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

type memoryRepository struct {
	saved map[string][]simulation.Snapshot
	saves int
	err   error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{saved: make(map[string][]simulation.Snapshot)}
}

func (r *memoryRepository) Save(_ context.Context, world string, snapshots []simulation.Snapshot) error {
	if r.err != nil {
		return r.err
	}
	r.saves++
	r.saved[world] = snapshots
	return nil
}

func (r *memoryRepository) Load(_ context.Context, world string) ([]simulation.Snapshot, error) {
	return r.saved[world], nil
}

type recordingPublisher struct {
	batches [][]simulation.Snapshot
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, snapshots []simulation.Snapshot) error {
	p.batches = append(p.batches, snapshots)
	return nil
}

type countingMetrics struct {
	machineTicks int
	steps        int
	lastDuration time.Duration
	snapshots    int
	snapshotErrs int
}

func (m *countingMetrics) RecordMachineTick(machine.Report) { m.machineTicks++ }

func (m *countingMetrics) RecordStep(_ string, _ int, d time.Duration) {
	m.steps++
	m.lastDuration = d
}

func (m *countingMetrics) RecordSnapshot(_ string, _ int, err error) {
	m.snapshots++
	if err != nil {
		m.snapshotErrs++
	}
}

func fuelledWorld(t *testing.T, f *machine.Factory) (*simulation.World, *machine.Machine, *machine.Machine) {
	t.Helper()
	w := simulation.NewWorld()
	gen := place(t, w, f, machine.KindCoalGenerator, shared.BlockPos{})
	furnace := place(t, w, f, machine.KindElectricFurnace, shared.BlockPos{X: 1})
	items, _ := gen.Items()
	items.InsertExternal(inventory.NewStack("coal", 4))
	return w, gen, furnace
}

func TestRunner_StepTicksEveryMachineOnce(t *testing.T) {
	// Arrange
	f := newFactory(t)
	w, gen, furnace := fuelledWorld(t, f)
	metrics := &countingMetrics{}
	clock := shared.NewMockClock(time.Unix(0, 0), 5*time.Millisecond)
	r := simulation.NewRunner("test", w, simulation.WithMetrics(metrics), simulation.WithClock(clock))

	// Act
	res, err := r.Step(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, res.Reports, 2)
	assert.Equal(t, gen.ID(), res.Reports[0].ID)
	assert.Equal(t, furnace.ID(), res.Reports[1].ID)
	assert.Equal(t, uint64(1), res.Tick)
	assert.False(t, res.Checkpointed)
	assert.Equal(t, uint64(1), r.Tick())
	assert.Equal(t, 2, metrics.machineTicks)
	assert.Equal(t, 1, metrics.steps)
	assert.Equal(t, 5*time.Millisecond, metrics.lastDuration)
}

func TestRunner_RunCheckpointsAtInterval(t *testing.T) {
	// Arrange
	f := newFactory(t)
	w, _, _ := fuelledWorld(t, f)
	repo := newMemoryRepository()
	pub := &recordingPublisher{}
	r := simulation.NewRunner("test", w,
		simulation.WithRepository(repo),
		simulation.WithPublisher(pub),
		simulation.WithSnapshotInterval(10),
	)

	// Act
	summary, err := r.Run(context.Background(), 35)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint64(35), summary.Ticks)
	assert.Equal(t, 3, summary.SnapshotsWritten)
	assert.Equal(t, 3, repo.saves)
	assert.Len(t, pub.batches, 3)
	require.Len(t, repo.saved["test"], 2)
	assert.Equal(t, uint64(30), repo.saved["test"][0].Tick)
	assert.Greater(t, summary.EnergyGenerated, 0.0)
	assert.Equal(t, shared.LifecycleStatusCompleted, r.Status())
}

func TestRunner_RunCountsCheckpointFailuresAndKeepsGoing(t *testing.T) {
	f := newFactory(t)
	w, _, _ := fuelledWorld(t, f)
	repo := newMemoryRepository()
	repo.err = errors.New("disk full")
	metrics := &countingMetrics{}
	r := simulation.NewRunner("test", w,
		simulation.WithRepository(repo),
		simulation.WithMetrics(metrics),
		simulation.WithSnapshotInterval(5),
	)

	summary, err := r.Run(context.Background(), 20)

	require.NoError(t, err)
	assert.Equal(t, uint64(20), summary.Ticks)
	assert.Equal(t, 4, summary.SnapshotErrors)
	assert.Equal(t, 0, summary.SnapshotsWritten)
	assert.Equal(t, 4, metrics.snapshotErrs)
}

func TestRunner_RunStopsOnCancellation(t *testing.T) {
	f := newFactory(t)
	w, _, _ := fuelledWorld(t, f)
	r := simulation.NewRunner("test", w, simulation.WithTickRate(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.Run(ctx, 0)

	require.NoError(t, err)
	assert.Equal(t, uint64(0), summary.Ticks)
	assert.Equal(t, shared.LifecycleStatusStopped, r.Status())
}

func TestRunner_RestoreRebuildsWorldFromRepository(t *testing.T) {
	// Arrange
	f := newFactory(t)
	w, gen, _ := fuelledWorld(t, f)
	repo := newMemoryRepository()
	r := simulation.NewRunner("test", w, simulation.WithRepository(repo))
	_, err := r.Run(context.Background(), 12)
	require.NoError(t, err)
	_, err = r.Checkpoint(context.Background())
	require.NoError(t, err)
	genBuffer, _ := gen.Energy()

	restored := simulation.NewRunner("test", simulation.NewWorld(), simulation.WithRepository(repo))

	// Act
	n, err := restored.Restore(context.Background(), f)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, uint64(12), restored.Tick())
	got, err := restored.World().Machine(gen.ID())
	require.NoError(t, err)
	buf, _ := got.Energy()
	assert.InDelta(t, genBuffer.Stored(), buf.Stored(), 1e-9)
	assert.Equal(t, gen.ID(), restored.World().Machines()[0].ID())
}

func TestRunner_RestoreWithoutRepositoryFails(t *testing.T) {
	r := simulation.NewRunner("test", simulation.NewWorld())

	_, err := r.Restore(context.Background(), newFactory(t))

	assert.Error(t, err)
}
