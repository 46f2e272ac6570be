package machine_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/factorysim-go/internal/domain/boiler"
	"github.com/andrescamacho/factorysim-go/internal/domain/fluid"
	"github.com/andrescamacho/factorysim-go/internal/domain/generator"
	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/processing"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/sides"
	"github.com/andrescamacho/factorysim-go/internal/domain/structure"
)

// ============================================================================
// Fixtures
// ============================================================================

type testCatalog struct {
	specs   map[machine.Kind]*machine.Spec
	recipes []*processing.Recipe
	fuels   map[shared.ResourceKey]generator.FuelDefinition
}

func (c *testCatalog) RecipesFor(recipeType string) []*processing.Recipe {
	var out []*processing.Recipe
	for _, r := range c.recipes {
		if r.Type == recipeType {
			out = append(out, r)
		}
	}
	return out
}

func (c *testCatalog) FuelFor(key shared.ResourceKey) (generator.FuelDefinition, bool) {
	def, ok := c.fuels[key]
	return def, ok
}

func (c *testCatalog) MaxStack(shared.ResourceKey) int { return 64 }

func (c *testCatalog) MachineSpec(kind machine.Kind) (*machine.Spec, bool) {
	s, ok := c.specs[kind]
	return s, ok
}

type testWorld struct {
	materials map[shared.BlockPos]structure.Signature
	machines  map[shared.BlockPos]*machine.Machine
}

func newTestWorld() *testWorld {
	return &testWorld{
		materials: map[shared.BlockPos]structure.Signature{},
		machines:  map[shared.BlockPos]*machine.Machine{},
	}
}

func (w *testWorld) MaterialAt(pos shared.BlockPos) structure.Signature { return w.materials[pos] }

func (w *testWorld) MachineAt(pos shared.BlockPos) (*machine.Machine, bool) {
	m, ok := w.machines[pos]
	return m, ok
}

func (w *testWorld) NotifyStructureDirty(shared.BlockPos) {}

func (w *testWorld) place(m *machine.Machine) {
	w.machines[m.Pos()] = m
}

var (
	allModes    = []sides.Mode{sides.None, sides.Input, sides.Output, sides.InputOutput}
	origin      = shared.BlockPos{}
	eastOfStart = shared.BlockPos{X: 1}
)

func newCatalog() *testCatalog {
	return &testCatalog{
		specs: map[machine.Kind]*machine.Spec{
			machine.KindCoalGenerator: {
				Kind:      machine.KindCoalGenerator,
				Energy:    &machine.EnergySpec{Capacity: 1000, MaxInput: 1000, MaxOutput: 50},
				Inventory: &machine.InventorySpec{Size: 2, Inputs: []int{0}, Outputs: []int{1}},
				Generator: &machine.GeneratorSpec{Fuel: machine.FuelSolid, Slot: 0},
				Sides: map[sides.Kind]machine.SideSpec{
					sides.Energy: {Valid: []sides.Mode{sides.None, sides.Output}, Default: sides.Output, AutoPush: true},
				},
			},
			machine.KindElectricFurnace: {
				Kind:      machine.KindElectricFurnace,
				Energy:    &machine.EnergySpec{Capacity: 200, MaxInput: 50, MaxOutput: 50},
				Inventory: &machine.InventorySpec{Size: 2, Inputs: []int{0}, Outputs: []int{1}},
				Processing: &machine.ProcessingSpec{
					RecipeType: "smelting",
					Enhancers: processing.EnhancerRules{
						MaxCount:    map[processing.Enhancer]int{processing.Buffer: 4},
						BufferBonus: 100,
					},
				},
				Sides: map[sides.Kind]machine.SideSpec{
					sides.Energy: {Valid: []sides.Mode{sides.None, sides.Input}, Default: sides.Input},
				},
			},
			machine.KindFluidTank: {
				Kind:  machine.KindFluidTank,
				Tanks: []machine.TankSpec{{Capacity: shared.AmountOfWhole(16), Role: fluid.RoleInputOutput}},
				Sides: map[sides.Kind]machine.SideSpec{
					sides.Fluid: {Valid: allModes, Default: sides.InputOutput},
				},
				Transfer: machine.TransferSpec{FluidPerTick: shared.AmountOfWhole(1)},
			},
			machine.KindBoiler: {
				Kind:        machine.KindBoiler,
				Boiler:      true,
				Structure:   "boiler",
				Inventory:   &machine.InventorySpec{Size: 1, Outputs: []int{0}},
				Temperature: &machine.TemperatureSpec{DriftRate: 5, OptimalLo: 500, OptimalHi: 1000, Overheat: 1200},
			},
		},
		recipes: []*processing.Recipe{{
			ID:            "iron_ingot",
			Type:          "smelting",
			Inputs:        []processing.Ingredient{{Key: "iron_ore", Count: 1}},
			Outputs:       []inventory.Stack{inventory.NewStack("iron_ingot", 1)},
			Duration:      10,
			EnergyPerTick: 1,
		}},
		fuels: map[shared.ResourceKey]generator.FuelDefinition{
			"coal": {Key: "coal", Count: 1, BurnTime: 20, GenerationRatio: 5},
		},
	}
}

func newMachine(t *testing.T, f *machine.Factory, kind machine.Kind, pos shared.BlockPos) *machine.Machine {
	t.Helper()
	m, err := f.New(kind, pos, shared.North)
	require.NoError(t, err)
	return m
}

// ============================================================================
// Factory
// ============================================================================

func TestFactory_UnknownKind(t *testing.T) {
	f := machine.NewFactory(newCatalog())

	_, err := f.New("teleporter", origin, shared.North)

	var unknown *machine.ErrUnknownKind
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, machine.Kind("teleporter"), unknown.Kind)
}

func TestFactory_RejectsInconsistentSpec(t *testing.T) {
	cat := newCatalog()
	cat.specs["broken"] = &machine.Spec{Kind: "broken", Processing: &machine.ProcessingSpec{RecipeType: "smelting"}}
	f := machine.NewFactory(cat)

	_, err := f.New("broken", origin, shared.North)

	var catalogErr *shared.CatalogError
	assert.ErrorAs(t, err, &catalogErr)
}

func TestFactory_StagesFollowCapabilities(t *testing.T) {
	f := machine.NewFactory(newCatalog())

	tests := []struct {
		kind machine.Kind
		want []string
	}{
		{kind: machine.KindCoalGenerator, want: []string{"transfer", "generator"}},
		{kind: machine.KindElectricFurnace, want: []string{"transfer", "processing"}},
		{kind: machine.KindBoiler, want: []string{"structure", "transfer", "boiler", "temperature"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			m := newMachine(t, f, tt.kind, origin)
			assert.Equal(t, tt.want, m.Stages())
		})
	}
}

func TestFactory_NewAssignsUniqueIDs(t *testing.T) {
	f := machine.NewFactory(newCatalog())

	a := newMachine(t, f, machine.KindFluidTank, origin)
	b := newMachine(t, f, machine.KindFluidTank, eastOfStart)

	assert.False(t, a.ID().IsZero())
	assert.False(t, a.ID().Equals(b.ID()))
	_, err := machine.ParseID(a.ID().String())
	assert.NoError(t, err)
}

// ============================================================================
// Generator
// ============================================================================

func TestMachine_GeneratorFuelCycle(t *testing.T) {
	// Arrange
	f := machine.NewFactory(newCatalog())
	gen := newMachine(t, f, machine.KindCoalGenerator, origin)
	items, _ := gen.Items()
	items.InsertExternal(inventory.NewStack("coal", 1))
	w := newTestWorld()
	w.place(gen)

	// Act
	for i := 0; i < 20; i++ {
		gen.Tick(w)
	}

	// Assert
	buf, _ := gen.Energy()
	g, _ := gen.Generator()
	assert.InDelta(t, 100.0, buf.Stored(), 1e-9)
	assert.Equal(t, 0, g.BurnTime())
	assert.True(t, items.InputsEmpty())
}

func TestMachine_EnergyPushFeedsNeighbourFurnace(t *testing.T) {
	// Arrange
	f := machine.NewFactory(newCatalog())
	gen := newMachine(t, f, machine.KindCoalGenerator, origin)
	furnace := newMachine(t, f, machine.KindElectricFurnace, eastOfStart)
	genItems, _ := gen.Items()
	genItems.InsertExternal(inventory.NewStack("coal", 1))
	furnaceItems, _ := furnace.Items()
	furnaceItems.InsertExternal(inventory.NewStack("iron_ore", 1))
	w := newTestWorld()
	w.place(gen)
	w.place(furnace)

	// Act
	moved := 0.0
	for i := 0; i < 30; i++ {
		moved += gen.Tick(w).EnergyMoved
		furnace.Tick(w)
	}

	// Assert
	assert.Greater(t, moved, 0.0)
	out, _ := furnaceItems.Slot(1)
	assert.Equal(t, inventory.NewStack("iron_ingot", 1), out)
	assert.True(t, furnaceItems.InputsEmpty())

	genBuf, _ := gen.Energy()
	furnaceBuf, _ := furnace.Energy()
	assert.InDelta(t, 100.0-10.0, genBuf.Stored()+furnaceBuf.Stored(), 1e-9,
		"energy generated equals energy stored plus energy spent")
}

// ============================================================================
// Auto-transfer
// ============================================================================

func TestMachine_FluidPushHonoursBothSides(t *testing.T) {
	// Arrange
	f := machine.NewFactory(newCatalog())
	src := newMachine(t, f, machine.KindFluidTank, origin)
	dst := newMachine(t, f, machine.KindFluidTank, eastOfStart)
	cfg, _ := src.Sides()
	cfg.SetAuto(sides.Fluid, true, false)
	srcTanks, _ := src.Fluids()
	dstTanks, _ := dst.Fluids()
	srcTanks.Insert(0, fluid.NewVolume("water", shared.AmountOfWhole(4)))
	w := newTestWorld()
	w.place(src)
	w.place(dst)

	// Act
	report := src.Tick(w)

	// Assert
	assert.True(t, report.FluidMoved.Equal(shared.AmountOfWhole(1)), "limited to one unit per tick")
	assert.True(t, srcTanks.Total().Add(dstTanks.Total()).Equal(shared.AmountOfWhole(4)))

	// Act: close the neighbour's west face
	require.NoError(t, dst.SetTransferMode(shared.West, sides.Fluid, sides.None))
	report = src.Tick(w)

	// Assert
	assert.True(t, report.FluidMoved.IsZero())
	assert.True(t, dstTanks.Total().Equal(shared.AmountOfWhole(1)))
}

func TestMachine_SetTransferModeRejectsInvalidMode(t *testing.T) {
	f := machine.NewFactory(newCatalog())
	gen := newMachine(t, f, machine.KindCoalGenerator, origin)

	err := gen.SetTransferMode(shared.Up, sides.Energy, sides.Input)

	var invalid *sides.ErrInvalidMode
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, sides.Output, gen.TransferModeFor(shared.Up, sides.Energy))
}

// ============================================================================
// Boiler multiblock
// ============================================================================

func TestMachine_BoilerHaltsWithoutStructure(t *testing.T) {
	f := machine.NewFactory(newCatalog(), machine.WithCheckInterval(0))
	b := newMachine(t, f, machine.KindBoiler, origin)
	tanks, _ := b.Fluids()
	tanks.Insert(boiler.TankMoltenSalt, fluid.NewVolume("molten_salt", shared.AmountOfWhole(1)))
	w := newTestWorld()
	w.place(b)

	report := b.Tick(w)

	assert.True(t, report.Halted)
	assert.Equal(t, structure.StateInvalid, report.Structure)
	assert.Nil(t, report.Boiler, "later stages are skipped")
	assert.Nil(t, report.Temperature)
	salt, _ := tanks.Tank(boiler.TankMoltenSalt)
	assert.True(t, salt.Amount().Equal(shared.AmountOfWhole(1)))
	assert.False(t, b.Operational())
}

func TestMachine_BoilerPullsWaterThroughValve(t *testing.T) {
	// Arrange
	f := machine.NewFactory(newCatalog(), machine.WithCheckInterval(0))
	b := newMachine(t, f, machine.KindBoiler, origin)
	tanks, _ := b.Fluids()
	tanks.Insert(boiler.TankMoltenSalt, fluid.NewVolume("molten_salt", shared.AmountOfWhole(1)))

	w := newTestWorld()
	w.materials = structure.BoilerFootprint(origin, shared.North)
	w.place(b)
	supply := newMachine(t, f, machine.KindFluidTank, shared.BlockPos{X: -2, Y: 1, Z: 1})
	supplyTanks, _ := supply.Fluids()
	supplyTanks.Insert(0, fluid.NewVolume("water", shared.AmountOfWhole(4)))
	w.place(supply)

	// Act
	report := b.Tick(w)

	// Assert
	assert.False(t, report.Halted)
	assert.Equal(t, structure.StateValid, report.Structure)
	water, _ := tanks.Tank(boiler.TankWater)
	assert.True(t, water.Amount().Equal(shared.AmountOfWhole(4)), "got %s", water.Amount())
	assert.True(t, supplyTanks.IsEmpty())
	require.NotNil(t, report.Boiler)
	assert.True(t, report.Boiler.Heating)
	temp, _ := b.Temperature()
	assert.InDelta(t, 5.0, temp.Current(), 1e-9)
}

func TestMachine_BoilerValveClosedOnNeighbourFace(t *testing.T) {
	f := machine.NewFactory(newCatalog(), machine.WithCheckInterval(0))
	b := newMachine(t, f, machine.KindBoiler, origin)
	w := newTestWorld()
	w.materials = structure.BoilerFootprint(origin, shared.North)
	w.place(b)
	supply := newMachine(t, f, machine.KindFluidTank, shared.BlockPos{X: -2, Y: 1, Z: 1})
	supplyTanks, _ := supply.Fluids()
	supplyTanks.Insert(0, fluid.NewVolume("water", shared.AmountOfWhole(4)))
	require.NoError(t, supply.SetTransferMode(shared.East, sides.Fluid, sides.Input))
	w.place(supply)

	report := b.Tick(w)

	assert.True(t, report.FluidMoved.IsZero())
	assert.True(t, supplyTanks.Total().Equal(shared.AmountOfWhole(4)))
}

// ============================================================================
// Enhancers and persistence
// ============================================================================

func TestMachine_InstallEnhancerResizesBuffer(t *testing.T) {
	f := machine.NewFactory(newCatalog())
	furnace := newMachine(t, f, machine.KindElectricFurnace, origin)

	require.NoError(t, furnace.InstallEnhancer(processing.Buffer, 2))
	assert.Error(t, furnace.InstallEnhancer(processing.Speed, 1))

	buf, _ := furnace.Energy()
	assert.InDelta(t, 400.0, buf.Capacity(), 1e-9)

	tank := newMachine(t, f, machine.KindFluidTank, eastOfStart)
	assert.Error(t, tank.InstallEnhancer(processing.Buffer, 1))
}

func TestMachine_SerializeRoundTrip(t *testing.T) {
	// Arrange
	f := machine.NewFactory(newCatalog())
	furnace := newMachine(t, f, machine.KindElectricFurnace, origin)
	require.NoError(t, furnace.InstallEnhancer(processing.Buffer, 1))
	buf, _ := furnace.Energy()
	buf.Offer(50)
	items, _ := furnace.Items()
	items.InsertExternal(inventory.NewStack("iron_ore", 3))
	w := newTestWorld()
	w.place(furnace)
	for i := 0; i < 4; i++ {
		furnace.Tick(w)
	}
	blob := furnace.Serialize()

	// Act
	restored, err := f.Restore(furnace.ID(), furnace.Kind(), furnace.Pos(), furnace.Facing(), blob)

	// Assert
	require.NoError(t, err)
	if diff := cmp.Diff(blob, restored.Serialize()); diff != "" {
		t.Errorf("restored blob mismatch (-want +got):\n%s", diff)
	}
	engine, _ := restored.Engine()
	assert.Equal(t, 4, engine.State().Progress)
}

func TestMachine_DeserializeToleratesGarbage(t *testing.T) {
	f := machine.NewFactory(newCatalog())
	id := machine.NewID()

	m, err := f.Restore(id, machine.KindCoalGenerator, origin, shared.North, shared.Fields{
		"Energy":   "lots",
		"BurnTime": -7,
	})

	require.NoError(t, err)
	buf, _ := m.Energy()
	g, _ := m.Generator()
	assert.Zero(t, buf.Stored())
	assert.Zero(t, g.BurnTime())
}
