package persistence

import (
	"time"
)

// MachineSnapshotModel represents the machine_snapshots table.
// One row per placed machine holds its latest checkpoint.
type MachineSnapshotModel struct {
	World     string    `gorm:"column:world;primaryKey"`
	MachineID string    `gorm:"column:machine_id;primaryKey"`
	Seq       int       `gorm:"column:seq;not null"` // placement order, which is tick order
	Kind      string    `gorm:"column:kind;not null"`
	X         int32     `gorm:"column:x;not null"`
	Y         int32     `gorm:"column:y;not null"`
	Z         int32     `gorm:"column:z;not null"`
	Facing    string    `gorm:"column:facing;not null"`
	Tick      int64     `gorm:"column:tick;not null"`
	State     string    `gorm:"column:state;type:text"` // component blob as JSON
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (MachineSnapshotModel) TableName() string {
	return "machine_snapshots"
}

// SimulationRunModel represents the simulation_runs table
type SimulationRunModel struct {
	ID              int        `gorm:"column:id;primaryKey;autoIncrement"`
	World           string     `gorm:"column:world;not null;index"`
	Status          string     `gorm:"column:status;not null"`
	StartedAt       time.Time  `gorm:"column:started_at;not null"`
	StoppedAt       *time.Time `gorm:"column:stopped_at"`
	Ticks           int64      `gorm:"column:ticks;not null;default:0"`
	Completed       int        `gorm:"column:recipes_completed;not null;default:0"`
	EnergyGenerated float64    `gorm:"column:energy_generated;not null;default:0"`
	SnapshotErrors  int        `gorm:"column:snapshot_errors;not null;default:0"`
	Error           string     `gorm:"column:error"`
}

func (SimulationRunModel) TableName() string {
	return "simulation_runs"
}
