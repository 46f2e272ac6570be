package steps

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/factorysim-go/internal/adapters/catalog"
	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// simulationContext is shared by the machine and checkpoint scenarios
type simulationContext struct {
	catalog *catalog.Catalog
	factory *machine.Factory
	world   *simulation.World
	runner  *simulation.Runner
	names   map[string]machine.ID
	// history holds every report of the current scenario, per machine
	history map[machine.ID][]machine.Report
	err     error
}

var sharedSimulation = &simulationContext{}

func (sc *simulationContext) reset() {
	sc.catalog = nil
	sc.factory = nil
	sc.world = nil
	sc.runner = nil
	sc.names = make(map[string]machine.ID)
	sc.history = make(map[machine.ID][]machine.Report)
	sc.err = nil
}

func (sc *simulationContext) machine(name string) (*machine.Machine, error) {
	id, ok := sc.names[name]
	if !ok {
		return nil, fmt.Errorf("no machine named %q", name)
	}
	return sc.world.Machine(id)
}

func (sc *simulationContext) lastReport(name string) (machine.Report, error) {
	id, ok := sc.names[name]
	if !ok {
		return machine.Report{}, fmt.Errorf("no machine named %q", name)
	}
	reports := sc.history[id]
	if len(reports) == 0 {
		return machine.Report{}, fmt.Errorf("%s has not ticked", name)
	}
	return reports[len(reports)-1], nil
}

// Given steps

func (sc *simulationContext) aWorldWithTheDefaultCatalog() error {
	cat, err := catalog.Default()
	if err != nil {
		return err
	}
	sc.catalog = cat
	sc.factory = machine.NewFactory(cat)
	sc.world = simulation.NewWorld()
	sc.runner = simulation.NewRunner("bdd", sc.world)
	return nil
}

func (sc *simulationContext) aMachineNamedAt(kind, name string, x, y, z int) error {
	pos := shared.BlockPos{X: int32(x), Y: int32(y), Z: int32(z)}
	m, err := sc.factory.New(machine.Kind(kind), pos, shared.North)
	if err != nil {
		return err
	}
	if err := sc.world.Place(m); err != nil {
		return err
	}
	sc.names[name] = m.ID()
	return nil
}

func (sc *simulationContext) machineHoldsInSlot(name string, count int, item string, slot int) error {
	m, err := sc.machine(name)
	if err != nil {
		return err
	}
	items, ok := m.Items()
	if !ok {
		return fmt.Errorf("%s has no inventory", name)
	}
	if rest := items.Put(slot, inventory.NewStack(shared.ResourceKey(item), count)); !rest.IsEmpty() {
		return fmt.Errorf("slot %d of %s could not take %s", slot, name, rest)
	}
	return nil
}

func (sc *simulationContext) machineHasEnergyStored(name string, amount int) error {
	m, err := sc.machine(name)
	if err != nil {
		return err
	}
	buf, ok := m.Energy()
	if !ok {
		return fmt.Errorf("%s has no energy buffer", name)
	}
	// Offer is bounded by the buffer's max input per call
	for want := float64(amount); buf.Stored() < want; {
		if buf.Offer(want-buf.Stored()) == 0 {
			return fmt.Errorf("%s stopped accepting energy at %v", name, buf.Stored())
		}
	}
	return nil
}

func (sc *simulationContext) outputSlotIsEmptied(name string, slot int) error {
	m, err := sc.machine(name)
	if err != nil {
		return err
	}
	items, ok := m.Items()
	if !ok {
		return fmt.Errorf("%s has no inventory", name)
	}
	s, _ := items.Slot(slot)
	items.Extract(slot, s.Count)
	return nil
}

// When steps

func (sc *simulationContext) theWorldTicks(times int) error {
	for i := 0; i < times; i++ {
		res, err := sc.runner.Step(context.Background())
		if err != nil {
			return err
		}
		for _, r := range res.Reports {
			sc.history[r.ID] = append(sc.history[r.ID], r)
		}
	}
	return nil
}

// Then steps

func (sc *simulationContext) machineShouldHaveConsumed(name string, count int, fuel string) error {
	id, ok := sc.names[name]
	if !ok {
		return fmt.Errorf("no machine named %q", name)
	}
	consumed := 0
	for _, r := range sc.history[id] {
		if r.Generator != nil && r.Generator.FuelConsumed == shared.ResourceKey(fuel) {
			consumed++
		}
	}
	if consumed != count {
		return fmt.Errorf("expected %s to consume %d %s, consumed %d", name, count, fuel, consumed)
	}
	return nil
}

func (sc *simulationContext) generatorPhaseShouldBe(name, phase string) error {
	m, err := sc.machine(name)
	if err != nil {
		return err
	}
	g, ok := m.Generator()
	if !ok {
		return fmt.Errorf("%s is not a generator", name)
	}
	if string(g.Phase()) != phase {
		return fmt.Errorf("expected generator phase %s, got %s", phase, g.Phase())
	}
	return nil
}

func (sc *simulationContext) burnTicksRemaining(name string, ticks int) error {
	m, err := sc.machine(name)
	if err != nil {
		return err
	}
	g, ok := m.Generator()
	if !ok {
		return fmt.Errorf("%s is not a generator", name)
	}
	if g.BurnTime() != ticks {
		return fmt.Errorf("expected %d burn ticks remaining, got %d", ticks, g.BurnTime())
	}
	return nil
}

func (sc *simulationContext) storedEnergy(name string) (float64, error) {
	m, err := sc.machine(name)
	if err != nil {
		return 0, err
	}
	buf, ok := m.Energy()
	if !ok {
		return 0, fmt.Errorf("%s has no energy buffer", name)
	}
	return buf.Stored(), nil
}

func (sc *simulationContext) shouldStoreMoreThan(name string, amount int) error {
	stored, err := sc.storedEnergy(name)
	if err != nil {
		return err
	}
	if stored <= float64(amount) {
		return fmt.Errorf("expected %s to store more than %d energy, got %v", name, amount, stored)
	}
	return nil
}

func (sc *simulationContext) shouldStoreExactly(name string, amount int) error {
	stored, err := sc.storedEnergy(name)
	if err != nil {
		return err
	}
	if stored != float64(amount) {
		return fmt.Errorf("expected %s to store %d energy, got %v", name, amount, stored)
	}
	return nil
}

func (sc *simulationContext) shouldHoldInSlot(name string, count int, item string, slot int) error {
	m, err := sc.machine(name)
	if err != nil {
		return err
	}
	items, ok := m.Items()
	if !ok {
		return fmt.Errorf("%s has no inventory", name)
	}
	s, ok := items.Slot(slot)
	if !ok {
		return fmt.Errorf("%s has no slot %d", name, slot)
	}
	if s.Count != count || (count > 0 && s.Key != shared.ResourceKey(item)) {
		return fmt.Errorf("expected slot %d of %s to hold %d %s, got %s", slot, name, count, item, s)
	}
	return nil
}

func (sc *simulationContext) slotShouldBeEmpty(name string, slot int) error {
	return sc.shouldHoldInSlot(name, 0, "", slot)
}

func (sc *simulationContext) processingEventShouldBe(name, event string) error {
	r, err := sc.lastReport(name)
	if err != nil {
		return err
	}
	if r.Processing == nil {
		return fmt.Errorf("%s does not process recipes", name)
	}
	if string(r.Processing.Event) != event {
		return fmt.Errorf("expected processing event %s, got %s", event, r.Processing.Event)
	}
	return nil
}

func (sc *simulationContext) progressShouldBe(name string, progress, total int) error {
	r, err := sc.lastReport(name)
	if err != nil {
		return err
	}
	if r.Processing == nil {
		return fmt.Errorf("%s does not process recipes", name)
	}
	if r.Processing.Progress != progress || r.Processing.Total != total {
		return fmt.Errorf("expected progress %d of %d, got %d of %d",
			progress, total, r.Processing.Progress, r.Processing.Total)
	}
	return nil
}

func (sc *simulationContext) worldTickShouldBe(tick string) error {
	want, err := strconv.ParseUint(tick, 10, 64)
	if err != nil {
		return err
	}
	if got := sc.runner.Tick(); got != want {
		return fmt.Errorf("expected world tick %d, got %d", want, got)
	}
	return nil
}

// InitializeMachineScenario registers machine tick steps
func InitializeMachineScenario(ctx *godog.ScenarioContext) {
	sc := sharedSimulation

	ctx.Before(func(c context.Context, _ *godog.Scenario) (context.Context, error) {
		sc.reset()
		return c, nil
	})

	ctx.Step(`^a world with the default catalog$`, sc.aWorldWithTheDefaultCatalog)
	ctx.Step(`^a "([^"]*)" named "([^"]*)" at (-?\d+),(-?\d+),(-?\d+)$`, sc.aMachineNamedAt)
	ctx.Step(`^"([^"]*)" holds (\d+) "([^"]*)" in slot (\d+)$`, sc.machineHoldsInSlot)
	ctx.Step(`^"([^"]*)" has (\d+) energy stored$`, sc.machineHasEnergyStored)
	ctx.Step(`^slot (\d+) of "([^"]*)" is emptied$`, func(slot int, name string) error {
		return sc.outputSlotIsEmptied(name, slot)
	})

	ctx.Step(`^the world ticks (\d+) times?$`, sc.theWorldTicks)

	ctx.Step(`^"([^"]*)" should have consumed (\d+) "([^"]*)"$`, sc.machineShouldHaveConsumed)
	ctx.Step(`^the generator phase of "([^"]*)" should be "([^"]*)"$`, sc.generatorPhaseShouldBe)
	ctx.Step(`^"([^"]*)" should have (\d+) burn ticks remaining$`, sc.burnTicksRemaining)
	ctx.Step(`^"([^"]*)" should store more than (\d+) energy$`, sc.shouldStoreMoreThan)
	ctx.Step(`^"([^"]*)" should store (\d+) energy$`, sc.shouldStoreExactly)
	ctx.Step(`^"([^"]*)" should hold (\d+) "([^"]*)" in slot (\d+)$`, sc.shouldHoldInSlot)
	ctx.Step(`^slot (\d+) of "([^"]*)" should be empty$`, func(slot int, name string) error {
		return sc.slotShouldBeEmpty(name, slot)
	})
	ctx.Step(`^the processing event of "([^"]*)" should be "([^"]*)"$`, sc.processingEventShouldBe)
	ctx.Step(`^"([^"]*)" should report progress (\d+) of (\d+)$`, sc.progressShouldBe)
	ctx.Step(`^the world tick should be (\d+)$`, sc.worldTickShouldBe)
}
