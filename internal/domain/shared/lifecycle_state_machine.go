package shared

import (
	"fmt"
	"time"
)

// LifecycleStatus is the state of a long-running simulation run
type LifecycleStatus string

const (
	LifecycleStatusPending   LifecycleStatus = "PENDING"
	LifecycleStatusRunning   LifecycleStatus = "RUNNING"
	LifecycleStatusCompleted LifecycleStatus = "COMPLETED"
	LifecycleStatusFailed    LifecycleStatus = "FAILED"
	LifecycleStatusStopped   LifecycleStatus = "STOPPED"
)

// LifecycleStateMachine tracks PENDING → RUNNING → COMPLETED/FAILED/STOPPED.
//
// Invariants:
// - only one run is active at a time
// - a finished run can be started again
type LifecycleStateMachine struct {
	status    LifecycleStatus
	startedAt *time.Time
	stoppedAt *time.Time
	lastError error
	clock     Clock
}

// NewLifecycleStateMachine creates a state machine in PENDING
func NewLifecycleStateMachine(clock Clock) *LifecycleStateMachine {
	if clock == nil {
		clock = NewRealClock()
	}
	return &LifecycleStateMachine{status: LifecycleStatusPending, clock: clock}
}

func (sm *LifecycleStateMachine) Status() LifecycleStatus { return sm.status }
func (sm *LifecycleStateMachine) StartedAt() *time.Time   { return sm.startedAt }
func (sm *LifecycleStateMachine) LastError() error        { return sm.lastError }

// IsRunning returns true while a run is active
func (sm *LifecycleStateMachine) IsRunning() bool {
	return sm.status == LifecycleStatusRunning
}

// Start begins a run from any non-running state and clears the previous error
func (sm *LifecycleStateMachine) Start() error {
	if sm.status == LifecycleStatusRunning {
		return fmt.Errorf("cannot start from %s state", sm.status)
	}
	now := sm.clock.Now()
	sm.status = LifecycleStatusRunning
	sm.startedAt = &now
	sm.stoppedAt = nil
	sm.lastError = nil
	return nil
}

// Complete ends a run that reached its tick target
func (sm *LifecycleStateMachine) Complete() error {
	return sm.finish(LifecycleStatusCompleted, nil)
}

// Stop ends a run that was cancelled
func (sm *LifecycleStateMachine) Stop() error {
	return sm.finish(LifecycleStatusStopped, nil)
}

// Fail ends a run with err
func (sm *LifecycleStateMachine) Fail(err error) error {
	return sm.finish(LifecycleStatusFailed, err)
}

func (sm *LifecycleStateMachine) finish(status LifecycleStatus, err error) error {
	if sm.status != LifecycleStatusRunning {
		return fmt.Errorf("cannot move to %s from %s state", status, sm.status)
	}
	now := sm.clock.Now()
	sm.status = status
	sm.stoppedAt = &now
	sm.lastError = err
	return nil
}

// RuntimeDuration is how long the current or last run lasted; zero before the first start
func (sm *LifecycleStateMachine) RuntimeDuration() time.Duration {
	if sm.startedAt == nil {
		return 0
	}
	end := sm.clock.Now()
	if sm.stoppedAt != nil {
		end = *sm.stoppedAt
	}
	return end.Sub(*sm.startedAt)
}
