package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/factorysim-go/internal/adapters/persistence"
	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/test/helpers"
)

type checkpointContext struct {
	sim      *simulationContext
	repo     *persistence.GormSnapshotRepository
	written  int
	restored int
}

func (cc *checkpointContext) reset() error {
	cc.repo = persistence.NewGormSnapshotRepository(helpers.SharedTestDB, nil)
	cc.written = 0
	cc.restored = 0
	return helpers.TruncateAllTables()
}

func (cc *checkpointContext) theWorldIsCheckpointedAs(world string) error {
	snapshots, err := cc.checkpoint(world)
	if err != nil {
		return err
	}
	cc.written = len(snapshots)
	return nil
}

// checkpoint saves under world at the scenario runner's tick
func (cc *checkpointContext) checkpoint(world string) ([]simulation.Snapshot, error) {
	machines := cc.sim.world.Machines()
	snapshots := make([]simulation.Snapshot, 0, len(machines))
	for _, m := range machines {
		snapshots = append(snapshots, simulation.SnapshotOf(m, cc.sim.runner.Tick()))
	}
	if err := cc.repo.Save(context.Background(), world, snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (cc *checkpointContext) aFreshWorldIsRestoredFrom(world string) error {
	w := simulation.NewWorld()
	runner := simulation.NewRunner(world, w, simulation.WithRepository(cc.repo))
	n, err := runner.Restore(context.Background(), cc.sim.factory)
	if err != nil {
		return err
	}
	cc.restored = n
	cc.sim.world = w
	cc.sim.runner = runner
	cc.sim.history = make(map[machine.ID][]machine.Report)
	return nil
}

func (cc *checkpointContext) snapshotsShouldBeWritten(count int) error {
	if cc.written != count {
		return fmt.Errorf("expected %d snapshots, wrote %d", count, cc.written)
	}
	return nil
}

func (cc *checkpointContext) machinesShouldBeRestored(count int) error {
	if cc.restored != count {
		return fmt.Errorf("expected %d restored machines, got %d", count, cc.restored)
	}
	return nil
}

// InitializeCheckpointScenario registers snapshot save and restore steps
func InitializeCheckpointScenario(ctx *godog.ScenarioContext) {
	cc := &checkpointContext{sim: sharedSimulation}

	ctx.Before(func(c context.Context, _ *godog.Scenario) (context.Context, error) {
		return c, cc.reset()
	})

	ctx.Step(`^the world is checkpointed as "([^"]*)"$`, cc.theWorldIsCheckpointedAs)
	ctx.Step(`^a fresh world is restored from "([^"]*)"$`, cc.aFreshWorldIsRestoredFrom)
	ctx.Step(`^(\d+) snapshots should be written$`, cc.snapshotsShouldBeWritten)
	ctx.Step(`^(\d+) machines should be restored$`, cc.machinesShouldBeRestored)
}
