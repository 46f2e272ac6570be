package simulation

import (
	"context"
	"time"

	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// Snapshot is the persisted or streamed state of one machine at one tick
type Snapshot struct {
	ID     machine.ID
	Kind   machine.Kind
	Pos    shared.BlockPos
	Facing shared.Direction
	Tick   uint64
	Blob   shared.Fields
}

// SnapshotOf captures a machine's current state
func SnapshotOf(m *machine.Machine, tick uint64) Snapshot {
	return Snapshot{
		ID:     m.ID(),
		Kind:   m.Kind(),
		Pos:    m.Pos(),
		Facing: m.Facing(),
		Tick:   tick,
		Blob:   m.Serialize(),
	}
}

// SnapshotRepository persists machine snapshots
type SnapshotRepository interface {
	// Save upserts the latest state of every machine in one transaction
	Save(ctx context.Context, world string, snapshots []Snapshot) error
	// Load returns the latest state of every machine in a world
	Load(ctx context.Context, world string) ([]Snapshot, error)
}

// SnapshotPublisher streams machine snapshots to external consumers
type SnapshotPublisher interface {
	Publish(ctx context.Context, world string, snapshots []Snapshot) error
}

// RunRecord is the outcome of one Run call
type RunRecord struct {
	World     string
	Status    shared.LifecycleStatus
	StartedAt time.Time
	StoppedAt time.Time
	Summary   Summary
	Err       error
}

// RunHistory keeps a log of finished runs
type RunHistory interface {
	Record(ctx context.Context, run RunRecord) error
	Recent(ctx context.Context, world string, limit int) ([]RunRecord, error)
}

// MetricsRecorder records simulation metrics
type MetricsRecorder interface {
	RecordMachineTick(report machine.Report)
	RecordStep(world string, machines int, duration time.Duration)
	RecordSnapshot(world string, count int, err error)
}
