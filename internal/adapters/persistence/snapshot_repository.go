package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

var _ simulation.SnapshotRepository = (*GormSnapshotRepository)(nil)

// GormSnapshotRepository implements SnapshotRepository using GORM
type GormSnapshotRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormSnapshotRepository creates a new GORM snapshot repository.
// If clock is nil, uses RealClock.
func NewGormSnapshotRepository(db *gorm.DB, clock shared.Clock) *GormSnapshotRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormSnapshotRepository{db: db, clock: clock}
}

// Save replaces the world's rows with snapshots in one transaction.
// Machines missing from snapshots have been removed and lose their row.
func (r *GormSnapshotRepository) Save(ctx context.Context, world string, snapshots []simulation.Snapshot) error {
	now := r.clock.Now()
	models := make([]MachineSnapshotModel, 0, len(snapshots))
	ids := make([]string, 0, len(snapshots))
	for i, s := range snapshots {
		state, err := json.Marshal(s.Blob)
		if err != nil {
			return fmt.Errorf("failed to encode machine %s: %w", s.ID, err)
		}
		models = append(models, MachineSnapshotModel{
			World:     world,
			MachineID: s.ID.String(),
			Seq:       i,
			Kind:      string(s.Kind),
			X:         s.Pos.X,
			Y:         s.Pos.Y,
			Z:         s.Pos.Z,
			Facing:    s.Facing.String(),
			Tick:      int64(s.Tick),
			State:     string(state),
			UpdatedAt: now,
		})
		ids = append(ids, s.ID.String())
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Where("world = ?", world)
		if len(ids) > 0 {
			stale = stale.Where("machine_id NOT IN ?", ids)
		}
		if err := stale.Delete(&MachineSnapshotModel{}).Error; err != nil {
			return fmt.Errorf("failed to prune snapshots: %w", err)
		}
		if len(models) == 0 {
			return nil
		}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "world"}, {Name: "machine_id"}},
			UpdateAll: true,
		}).Create(&models)
		if result.Error != nil {
			return fmt.Errorf("failed to save snapshots: %w", result.Error)
		}
		return nil
	})
}

// Load returns the world's snapshots in placement order
func (r *GormSnapshotRepository) Load(ctx context.Context, world string) ([]simulation.Snapshot, error) {
	var models []MachineSnapshotModel
	result := r.db.WithContext(ctx).Where("world = ?", world).Order("seq ASC").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", result.Error)
	}

	snapshots := make([]simulation.Snapshot, 0, len(models))
	for i := range models {
		s, err := r.modelToSnapshot(&models[i])
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}

// Worlds lists the names of every persisted world
func (r *GormSnapshotRepository) Worlds(ctx context.Context) ([]string, error) {
	var worlds []string
	result := r.db.WithContext(ctx).Model(&MachineSnapshotModel{}).Distinct("world").Order("world").Pluck("world", &worlds)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list worlds: %w", result.Error)
	}
	return worlds, nil
}

func (r *GormSnapshotRepository) modelToSnapshot(m *MachineSnapshotModel) (simulation.Snapshot, error) {
	id, err := machine.ParseID(m.MachineID)
	if err != nil {
		return simulation.Snapshot{}, fmt.Errorf("corrupt snapshot row: %w", err)
	}
	facing, err := shared.ParseDirection(m.Facing)
	if err != nil {
		return simulation.Snapshot{}, fmt.Errorf("corrupt snapshot row for %s: %w", m.MachineID, err)
	}

	// An unreadable blob restores the machine with default state
	blob, err := shared.DecodeFields([]byte(m.State))
	if err != nil {
		blob = shared.NewFields()
	}

	return simulation.Snapshot{
		ID:     id,
		Kind:   machine.Kind(m.Kind),
		Pos:    shared.BlockPos{X: m.X, Y: m.Y, Z: m.Z},
		Facing: facing,
		Tick:   uint64(m.Tick),
		Blob:   blob,
	}, nil
}
