package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

var _ simulation.RunHistory = (*GormRunRepository)(nil)

// GormRunRepository implements RunHistory using GORM
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GORM run repository
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// Record appends a finished run
func (r *GormRunRepository) Record(ctx context.Context, run simulation.RunRecord) error {
	model := SimulationRunModel{
		World:           run.World,
		Status:          string(run.Status),
		StartedAt:       run.StartedAt,
		Ticks:           int64(run.Summary.Ticks),
		Completed:       run.Summary.Completed,
		EnergyGenerated: run.Summary.EnergyGenerated,
		SnapshotErrors:  run.Summary.SnapshotErrors,
	}
	if !run.StoppedAt.IsZero() {
		stopped := run.StoppedAt
		model.StoppedAt = &stopped
	}
	if run.Err != nil {
		model.Error = run.Err.Error()
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs of world, newest first
func (r *GormRunRepository) Recent(ctx context.Context, world string, limit int) ([]simulation.RunRecord, error) {
	var models []SimulationRunModel
	query := r.db.WithContext(ctx).Where("world = ?", world).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]simulation.RunRecord, 0, len(models))
	for _, m := range models {
		run := simulation.RunRecord{
			World:     m.World,
			Status:    shared.LifecycleStatus(m.Status),
			StartedAt: m.StartedAt,
			Summary: simulation.Summary{
				Ticks:           uint64(m.Ticks),
				Completed:       m.Completed,
				EnergyGenerated: m.EnergyGenerated,
				SnapshotErrors:  m.SnapshotErrors,
			},
		}
		if m.StoppedAt != nil {
			run.StoppedAt = *m.StoppedAt
		}
		if m.Error != "" {
			run.Err = errors.New(m.Error)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
