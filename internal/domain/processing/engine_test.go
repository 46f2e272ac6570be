package processing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/factorysim-go/internal/domain/energy"
	"github.com/andrescamacho/factorysim-go/internal/domain/fluid"
	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/processing"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

const (
	ore    = shared.ResourceKey("iron_ore")
	ingot  = shared.ResourceKey("iron_ingot")
	cobble = shared.ResourceKey("cobblestone")
	stone  = shared.ResourceKey("stone")
	water  = shared.ResourceKey("water")
	salt   = shared.ResourceKey("salt")
)

type recipeList []*processing.Recipe

func (l recipeList) RecipesFor(recipeType string) []*processing.Recipe {
	var out []*processing.Recipe
	for _, r := range l {
		if r.Type == recipeType {
			out = append(out, r)
		}
	}
	return out
}

var smelting = recipeList{
	{
		ID:            "iron_ingot",
		Type:          "smelting",
		Inputs:        []processing.Ingredient{{Key: ore, Count: 1}},
		Outputs:       []inventory.Stack{{Key: ingot, Count: 1}},
		Duration:      10,
		EnergyPerTick: 2,
	},
	{
		ID:            "stone",
		Type:          "smelting",
		Inputs:        []processing.Ingredient{{Key: cobble, Count: 1}},
		Outputs:       []inventory.Stack{{Key: stone, Count: 1}},
		Duration:      4,
		EnergyPerTick: 1,
	},
}

type rig struct {
	buffer *energy.Buffer
	items  *inventory.Inventory
	engine *processing.Engine
}

func newRig(t *testing.T, recipes processing.RecipeSource) *rig {
	t.Helper()
	buffer, err := energy.NewBuffer(1000, 1000, 1000)
	require.NoError(t, err)
	items, err := inventory.New(2, []int{0}, []int{1})
	require.NoError(t, err)
	return &rig{
		buffer: buffer,
		items:  items,
		engine: processing.NewEngine("smelting", recipes, nil),
	}
}

func (r *rig) workspace() processing.Workspace {
	return processing.Workspace{Energy: r.buffer, Items: r.items}
}

func (r *rig) tick() processing.TickResult {
	return r.engine.Tick(r.workspace())
}

func TestEngine_StaysIdleWithoutEnergy(t *testing.T) {
	r := newRig(t, smelting)
	r.items.Insert(0, inventory.NewStack(ore, 1))

	res := r.tick()

	assert.Equal(t, processing.EventIdle, res.Event)
	assert.Equal(t, processing.PhaseIdle, r.engine.Phase())
}

func TestEngine_StaysIdleWithoutMatchingRecipe(t *testing.T) {
	r := newRig(t, smelting)
	r.buffer.Offer(100)
	r.items.Insert(0, inventory.NewStack(salt, 1))

	res := r.tick()

	assert.Equal(t, processing.EventIdle, res.Event)
	assert.Equal(t, processing.PhaseIdle, r.engine.Phase())
}

func TestEngine_FirstMatchingRecipeWins(t *testing.T) {
	r := newRig(t, smelting)
	r.buffer.Offer(100)
	r.items.Insert(0, inventory.NewStack(cobble, 1))

	res := r.tick()

	assert.Equal(t, processing.EventStarted, res.Event)
	assert.Equal(t, "stone", res.RecipeID)
	assert.Equal(t, 1, res.Progress)
	assert.Equal(t, 4, res.Total)
}

func TestEngine_ConsumesOnlyAtCompletion(t *testing.T) {
	// Arrange
	r := newRig(t, smelting)
	r.buffer.Offer(100)
	r.items.Insert(0, inventory.NewStack(ore, 2))

	// Act
	for i := 0; i < 9; i++ {
		r.tick()
	}
	countBefore := r.items.CountInputs(ore)
	res := r.tick()

	// Assert
	assert.Equal(t, 2, countBefore)
	assert.Equal(t, processing.EventCompleted, res.Event)
	assert.Equal(t, 1, r.items.CountInputs(ore))
	out, _ := r.items.Slot(1)
	assert.Equal(t, inventory.NewStack(ingot, 1), out)
	assert.Equal(t, processing.PhaseIdle, r.engine.Phase())
	assert.Equal(t, 80.0, r.buffer.Stored())
}

func TestEngine_PausesOnEnergyShortage(t *testing.T) {
	// Arrange: the buffer receives 2 energy per tick for 5 ticks, none for 5, then 2 again
	buffer, err := energy.NewBuffer(2, 2, 2)
	require.NoError(t, err)
	r := newRig(t, smelting)
	r.buffer = buffer
	r.items.Insert(0, inventory.NewStack(ore, 1))

	progress := make([]int, 0, 15)
	var completedAt int

	// Act
	for tick := 1; tick <= 15; tick++ {
		if tick <= 5 || tick > 10 {
			buffer.Offer(2)
		}
		res := r.tick()
		progress = append(progress, res.Progress)
		if res.Event == processing.EventCompleted {
			completedAt = tick
		}
		require.LessOrEqual(t, res.Progress, res.Total)
	}

	// Assert
	assert.Equal(t, []int{1, 2, 3, 4, 5, 5, 5, 5, 5, 5, 6, 7, 8, 9, 10}, progress)
	assert.Equal(t, 15, completedAt)
}

func TestEngine_HeldTicksReportHeld(t *testing.T) {
	r := newRig(t, smelting)
	r.buffer.Offer(2)
	r.items.Insert(0, inventory.NewStack(ore, 1))

	first := r.tick()
	second := r.tick()

	assert.Equal(t, processing.EventStarted, first.Event)
	assert.Equal(t, processing.EventHeld, second.Event)
	assert.Equal(t, 1, second.Progress)
}

func TestEngine_InterruptsWhenLockedInputRemoved(t *testing.T) {
	r := newRig(t, smelting)
	r.buffer.Offer(100)
	r.items.Insert(0, inventory.NewStack(ore, 1))
	r.tick()

	r.items.Extract(0, 1)
	r.items.Insert(0, inventory.NewStack(cobble, 1))
	res := r.tick()

	assert.Equal(t, processing.EventInterrupted, res.Event)
	assert.Equal(t, processing.PhaseIdle, r.engine.Phase())
	assert.Equal(t, processing.State{}, r.engine.State())
}

func TestEngine_OutputStallNeverLosesOrDoubleConsumesInput(t *testing.T) {
	// Arrange: output slot full of an incompatible kind
	r := newRig(t, smelting)
	r.buffer.Offer(1000)
	r.items.Insert(0, inventory.NewStack(ore, 3))
	r.items.Put(1, inventory.NewStack(salt, 64))

	// Act
	var last processing.TickResult
	for i := 0; i < 30; i++ {
		last = r.tick()
	}

	// Assert
	assert.Equal(t, processing.EventStalled, last.Event)
	assert.Equal(t, processing.PhaseCompleting, r.engine.Phase())
	assert.Equal(t, 3, r.items.CountInputs(ore), "stalled completion consumes nothing")
	storedWhileStalled := r.buffer.Stored()

	// Act: free the output slot
	r.items.Extract(1, 64)
	res := r.tick()

	// Assert
	assert.Equal(t, processing.EventCompleted, res.Event)
	assert.Equal(t, 2, r.items.CountInputs(ore))
	out, _ := r.items.Slot(1)
	assert.Equal(t, inventory.NewStack(ingot, 1), out)
	assert.Equal(t, storedWhileStalled, r.buffer.Stored(), "retrying the commit draws no energy")
}

func TestEngine_IsDeterministic(t *testing.T) {
	run := func() ([]int, int) {
		r := newRig(t, smelting)
		r.items.Insert(0, inventory.NewStack(ore, 5))
		var trajectory []int
		completed := -1
		for tick := 0; tick < 60; tick++ {
			if tick%3 != 2 {
				r.buffer.Offer(2)
			}
			res := r.tick()
			trajectory = append(trajectory, res.Progress)
			if res.Event == processing.EventCompleted && completed < 0 {
				completed = tick
			}
		}
		return trajectory, completed
	}

	firstTrajectory, firstCompleted := run()
	secondTrajectory, secondCompleted := run()

	assert.Equal(t, firstTrajectory, secondTrajectory)
	assert.Equal(t, firstCompleted, secondCompleted)
	assert.GreaterOrEqual(t, firstCompleted, 0)
}

func TestEngine_SpeedEnhancersShortenDuration(t *testing.T) {
	enhancers := processing.NewEnhancers(processing.EnhancerRules{
		MaxCount:            map[processing.Enhancer]int{processing.Speed: 2},
		SpeedStepPercent:    25,
		MaxReductionPercent: 40,
	})
	require.NoError(t, enhancers.Install(processing.Speed, 2))
	r := newRig(t, smelting)
	r.engine = processing.NewEngine("smelting", smelting, enhancers)
	r.buffer.Offer(100)
	r.items.Insert(0, inventory.NewStack(ore, 1))

	res := r.tick()

	assert.Equal(t, 6, res.Total, "reduction is capped at 40%")
	assert.InDelta(t, 100-2.8, r.buffer.Stored(), 1e-9)
}

func TestEngine_FluidRecipe(t *testing.T) {
	// Arrange
	recipes := recipeList{{
		ID:            "salt",
		Type:          "distilling",
		FluidInput:    &processing.FluidIngredient{Key: water, Amount: shared.AmountOfMilli(250)},
		Outputs:       []inventory.Stack{{Key: salt, Count: 1}},
		Duration:      2,
		EnergyPerTick: 1,
	}}
	tank, err := fluid.NewTank(shared.AmountOfWhole(1), fluid.AnyFluid, fluid.RoleInput)
	require.NoError(t, err)
	tanks := fluid.NewContainer(tank)
	tanks.Insert(0, fluid.NewVolume(water, shared.AmountOfMilli(300)))
	r := newRig(t, recipes)
	r.engine = processing.NewEngine("distilling", recipes, nil)
	r.buffer.Offer(10)
	ws := processing.Workspace{Energy: r.buffer, Items: r.items, Fluids: tanks}

	// Act
	first := r.engine.Tick(ws)
	second := r.engine.Tick(ws)

	// Assert
	assert.Equal(t, processing.EventStarted, first.Event)
	assert.Equal(t, processing.EventCompleted, second.Event)
	assert.True(t, tank.Amount().Equal(shared.AmountOfMilli(50)))
	out, _ := r.items.Slot(1)
	assert.Equal(t, inventory.NewStack(salt, 1), out)
}

func TestEngine_SerializeRestoresActiveProcess(t *testing.T) {
	// Arrange
	r := newRig(t, smelting)
	r.buffer.Offer(100)
	r.items.Insert(0, inventory.NewStack(ore, 1))
	r.tick()
	r.tick()
	f := shared.NewFields()
	r.engine.Serialize(f)

	// Act
	restored := processing.NewEngine("smelting", smelting, nil)
	restored.Deserialize(f)

	// Assert
	assert.Equal(t, processing.PhaseProcessing, restored.Phase())
	assert.Equal(t, r.engine.State(), restored.State())
	assert.Equal(t, int64(2), f.Int(processing.FieldProcessTime))
	assert.Equal(t, "iron_ingot", f.String(processing.FieldRecipeID))
}

func TestEngine_DeserializeDegradesToIdle(t *testing.T) {
	tests := []struct {
		name   string
		fields shared.Fields
	}{
		{name: "empty", fields: shared.Fields{}},
		{name: "unknown recipe", fields: shared.Fields{"RecipeId": "gold", "Phase": "PROCESSING", "ProcessTime": 1, "MaxProcessTime": 5}},
		{name: "progress beyond total", fields: shared.Fields{"RecipeId": "stone", "Phase": "PROCESSING", "ProcessTime": 9, "MaxProcessTime": 4}},
		{name: "garbage", fields: shared.Fields{"RecipeId": 7, "Phase": []int{1}, "ProcessTime": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := processing.NewEngine("smelting", smelting, nil)
			e.Deserialize(tt.fields)
			assert.Equal(t, processing.PhaseIdle, e.Phase())
		})
	}
}

func TestRecipe_Validate(t *testing.T) {
	valid := *smelting[0]
	assert.NoError(t, valid.Validate())

	noDuration := valid
	noDuration.Duration = 0
	assert.Error(t, noDuration.Validate())

	noInputs := valid
	noInputs.Inputs = nil
	assert.Error(t, noInputs.Validate())

	noOutputs := valid
	noOutputs.Outputs = nil
	assert.Error(t, noOutputs.Validate())
}
