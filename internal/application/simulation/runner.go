package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/factorysim-go/internal/application/common"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/processing"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// Summary aggregates the reports of a run
type Summary struct {
	Ticks            uint64
	Completed        int
	EnergyGenerated  float64
	FluidMoved       shared.Amount
	ItemsMoved       int
	Halted           int
	SnapshotsWritten int
	SnapshotErrors   int
}

func (s *Summary) add(reports []machine.Report) {
	for _, r := range reports {
		if r.Halted {
			s.Halted++
		}
		if r.Processing != nil && r.Processing.Event == processing.EventCompleted {
			s.Completed++
		}
		if r.Generator != nil {
			s.EnergyGenerated += r.Generator.Generated
		}
		s.FluidMoved = s.FluidMoved.Add(r.FluidMoved)
		s.ItemsMoved += r.ItemsMoved
	}
}

// Runner steps every machine of a world once per tick, in placement order.
// It owns the world: other goroutines reach it through View.
type Runner struct {
	mu            sync.Mutex
	name          string
	world         *World
	clock         shared.Clock
	lifecycle     *shared.LifecycleStateMachine
	limiter       *rate.Limiter
	metrics       MetricsRecorder
	repo          SnapshotRepository
	publisher     SnapshotPublisher
	history       RunHistory
	snapshotEvery uint64
	tick          uint64
}

// RunnerOption customises a Runner
type RunnerOption func(*Runner)

// WithTickRate paces Run to ticksPerSecond. Zero runs unpaced.
func WithTickRate(ticksPerSecond float64) RunnerOption {
	return func(r *Runner) {
		if ticksPerSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(ticksPerSecond), 1)
		}
	}
}

// WithMetrics records per-tick metrics
func WithMetrics(m MetricsRecorder) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithRepository saves snapshots to repo
func WithRepository(repo SnapshotRepository) RunnerOption {
	return func(r *Runner) { r.repo = repo }
}

// WithPublisher streams snapshots to p
func WithPublisher(p SnapshotPublisher) RunnerOption {
	return func(r *Runner) { r.publisher = p }
}

// WithRunHistory records every finished run
func WithRunHistory(h RunHistory) RunnerOption {
	return func(r *Runner) { r.history = h }
}

// WithSnapshotInterval checkpoints every n ticks. Zero disables periodic checkpoints.
func WithSnapshotInterval(n uint64) RunnerOption {
	return func(r *Runner) { r.snapshotEvery = n }
}

// WithClock overrides the clock used to time steps
func WithClock(c shared.Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// NewRunner creates a runner for the named world
func NewRunner(name string, world *World, opts ...RunnerOption) *Runner {
	r := &Runner{
		name:  name,
		world: world,
		clock: shared.NewRealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.lifecycle = shared.NewLifecycleStateMachine(r.clock)
	return r
}

// Name returns the world name
func (r *Runner) Name() string { return r.name }

// World returns the world being stepped. Callers outside the run loop should use View.
func (r *Runner) World() *World { return r.world }

// Tick returns the number of completed steps
func (r *Runner) Tick() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tick
}

// Status returns the lifecycle state of the current or last run
func (r *Runner) Status() shared.LifecycleStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lifecycle.Status()
}

// View runs fn with exclusive access to the world between ticks
func (r *Runner) View(fn func(w *World, tick uint64) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.world, r.tick)
}

// StepResult is the outcome of one world tick
type StepResult struct {
	Tick    uint64
	Reports []machine.Report
	// Checkpointed is set when this tick was due for a snapshot
	Checkpointed bool
}

// Step ticks every machine once. A checkpoint failure is returned after the step has completed.
func (r *Runner) Step(ctx context.Context) (StepResult, error) {
	logger := common.LoggerFromContext(ctx)

	r.mu.Lock()
	start := r.clock.Now()
	machines := r.world.Machines()
	res := StepResult{Reports: make([]machine.Report, 0, len(machines))}
	for _, m := range machines {
		report := m.Tick(r.world)
		res.Reports = append(res.Reports, report)
		if r.metrics != nil {
			r.metrics.RecordMachineTick(report)
		}
		if report.Temperature != nil && report.Temperature.CrossedOverheat {
			logger.Log(common.LevelWarn, "Machine overheating", map[string]interface{}{
				"world":   r.name,
				"machine": report.ID.String(),
				"kind":    string(report.Kind),
				"tick":    r.tick + 1,
			})
		}
	}
	r.tick++
	res.Tick = r.tick
	elapsed := r.clock.Since(start)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordStep(r.name, len(machines), elapsed)
	}

	if r.snapshotEvery > 0 && res.Tick%r.snapshotEvery == 0 {
		res.Checkpointed = true
		if _, err := r.Checkpoint(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Run steps ticks times, or until ctx is cancelled when ticks is zero.
// Cancellation stops the run without error. Checkpoint failures are logged and counted.
func (r *Runner) Run(ctx context.Context, ticks uint64) (Summary, error) {
	logger := common.LoggerFromContext(ctx)
	var summary Summary

	r.mu.Lock()
	err := r.lifecycle.Start()
	machines := r.world.Len()
	r.mu.Unlock()
	if err != nil {
		return summary, fmt.Errorf("world %s: %w", r.name, err)
	}

	logger.Log(common.LevelInfo, "Simulation started", map[string]interface{}{
		"world":    r.name,
		"machines": machines,
		"ticks":    ticks,
	})

	for ticks == 0 || summary.Ticks < ticks {
		if ctx.Err() != nil {
			break
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					break
				}
				r.finish(ctx, summary, func(l *shared.LifecycleStateMachine) error { return l.Fail(err) })
				return summary, fmt.Errorf("tick pacing: %w", err)
			}
		}

		res, err := r.Step(ctx)
		summary.Ticks++
		summary.add(res.Reports)
		if !res.Checkpointed {
			continue
		}
		if err != nil {
			summary.SnapshotErrors++
			logger.Log(common.LevelError, "Checkpoint failed", map[string]interface{}{
				"world": r.name,
				"tick":  res.Tick,
				"error": err.Error(),
			})
		} else {
			summary.SnapshotsWritten++
		}
	}

	if ticks > 0 && summary.Ticks == ticks {
		r.finish(ctx, summary, (*shared.LifecycleStateMachine).Complete)
	} else {
		r.finish(ctx, summary, (*shared.LifecycleStateMachine).Stop)
	}

	logger.Log(common.LevelInfo, "Simulation stopped", map[string]interface{}{
		"world":     r.name,
		"ticks":     summary.Ticks,
		"completed": summary.Completed,
		"generated": summary.EnergyGenerated,
	})
	return summary, nil
}

// finish applies the closing transition and records the run
func (r *Runner) finish(ctx context.Context, summary Summary, transition func(*shared.LifecycleStateMachine) error) {
	r.mu.Lock()
	_ = transition(r.lifecycle)
	record := RunRecord{
		World:     r.name,
		Status:    r.lifecycle.Status(),
		StoppedAt: r.clock.Now(),
		Summary:   summary,
		Err:       r.lifecycle.LastError(),
	}
	if started := r.lifecycle.StartedAt(); started != nil {
		record.StartedAt = *started
	}
	r.mu.Unlock()

	if r.history == nil {
		return
	}
	// a cancelled run still gets recorded
	if err := r.history.Record(context.WithoutCancel(ctx), record); err != nil {
		common.LoggerFromContext(ctx).Log(common.LevelError, "Failed to record run", map[string]interface{}{
			"world": r.name,
			"error": err.Error(),
		})
	}
}

// Checkpoint saves and publishes a snapshot of every machine.
// Both sinks are attempted; their errors are joined.
func (r *Runner) Checkpoint(ctx context.Context) ([]Snapshot, error) {
	r.mu.Lock()
	machines := r.world.Machines()
	snapshots := make([]Snapshot, 0, len(machines))
	for _, m := range machines {
		snapshots = append(snapshots, SnapshotOf(m, r.tick))
	}
	r.mu.Unlock()

	var errs []error
	if r.repo != nil {
		if err := r.repo.Save(ctx, r.name, snapshots); err != nil {
			errs = append(errs, fmt.Errorf("save snapshots: %w", err))
		}
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, r.name, snapshots); err != nil {
			errs = append(errs, fmt.Errorf("publish snapshots: %w", err))
		}
	}
	err := errors.Join(errs...)
	if r.metrics != nil {
		r.metrics.RecordSnapshot(r.name, len(snapshots), err)
	}
	return snapshots, err
}

// Restore places every persisted machine of the runner's world and resumes the tick counter
func (r *Runner) Restore(ctx context.Context, factory *machine.Factory) (int, error) {
	if r.repo == nil {
		return 0, fmt.Errorf("no snapshot repository configured")
	}
	snapshots, err := r.repo.Load(ctx, r.name)
	if err != nil {
		return 0, fmt.Errorf("load snapshots: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range snapshots {
		m, err := factory.Restore(s.ID, s.Kind, s.Pos, s.Facing, s.Blob)
		if err != nil {
			return 0, fmt.Errorf("restore machine %s: %w", s.ID, err)
		}
		if err := r.world.Place(m); err != nil {
			return 0, err
		}
		if s.Tick > r.tick {
			r.tick = s.Tick
		}
	}

	common.LoggerFromContext(ctx).Log(common.LevelInfo, "World restored", map[string]interface{}{
		"world":    r.name,
		"machines": len(snapshots),
		"tick":     r.tick,
	})
	return len(snapshots), nil
}
