package processing

import (
	"fmt"

	"github.com/andrescamacho/factorysim-go/internal/domain/energy"
	"github.com/andrescamacho/factorysim-go/internal/domain/fluid"
	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// Persisted keys
const (
	FieldProcessTime    = "ProcessTime"
	FieldMaxProcessTime = "MaxProcessTime"
	FieldRecipeID       = "RecipeId"
	FieldPhase          = "Phase"
)

// Phase is the engine's lifecycle state
type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseMatching   Phase = "MATCHING"
	PhaseProcessing Phase = "PROCESSING"
	PhaseCompleting Phase = "COMPLETING"
)

// Event is what happened during one engine tick
type Event string

const (
	EventIdle        Event = "IDLE"
	EventStarted     Event = "STARTED"
	EventProgressed  Event = "PROGRESSED"
	EventHeld        Event = "HELD"
	EventInterrupted Event = "INTERRUPTED"
	EventStalled     Event = "STALLED"
	EventCompleted   Event = "COMPLETED"
)

// TickResult reports one engine tick
type TickResult struct {
	Event    Event
	Phase    Phase
	RecipeID string
	Progress int
	Total    int
}

// State is the active process. It is zero while idle.
type State struct {
	RecipeID      string
	Progress      int
	TotalDuration int
	EnergyPerTick float64
	LockedInputs  []Ingredient
	LockedFluid   *FluidIngredient
	PendingOutput []inventory.Stack
}

// Workspace is the storage an engine reads from and writes to
type Workspace struct {
	Energy *energy.Buffer
	Items  *inventory.Inventory
	// Fluids and FluidTank are only used by recipes with a fluid input
	Fluids    *fluid.Container
	FluidTank int
}

// Engine is the recipe-driven processing state machine.
//
// Inputs are consumed only in the same commit that places the outputs, so a
// blocked output never destroys inputs.
type Engine struct {
	recipeType string
	recipes    RecipeSource
	enhancers  *Enhancers
	phase      Phase
	state      State
}

// NewEngine creates an idle engine for one recipe type
func NewEngine(recipeType string, recipes RecipeSource, enhancers *Enhancers) *Engine {
	if enhancers == nil {
		enhancers = NewEnhancers(EnhancerRules{})
	}
	return &Engine{
		recipeType: recipeType,
		recipes:    recipes,
		enhancers:  enhancers,
		phase:      PhaseIdle,
	}
}

// RecipeType returns the processing type this engine matches against
func (e *Engine) RecipeType() string { return e.recipeType }

// Phase returns the current lifecycle state
func (e *Engine) Phase() Phase { return e.phase }

// State returns a copy of the active process
func (e *Engine) State() State { return e.state }

// Enhancers returns the installed upgrades
func (e *Engine) Enhancers() *Enhancers { return e.enhancers }

// IsActive reports whether a recipe is locked
func (e *Engine) IsActive() bool {
	return e.phase == PhaseProcessing || e.phase == PhaseCompleting
}

// Tick advances the engine by one cycle
func (e *Engine) Tick(ws Workspace) TickResult {
	switch e.phase {
	case PhaseProcessing:
		return e.process(ws, EventProgressed)
	case PhaseCompleting:
		if !e.inputsPresent(ws) {
			return e.interrupt()
		}
		return e.commit(ws)
	}

	if ws.Energy == nil || ws.Energy.Stored() <= 0 || !hasInput(ws) {
		return e.result(EventIdle)
	}
	e.phase = PhaseMatching
	recipe, ok := e.match(ws)
	if !ok {
		e.phase = PhaseIdle
		return e.result(EventIdle)
	}
	e.lock(recipe)
	return e.process(ws, EventStarted)
}

// Interrupt abandons the active process; nothing has been consumed
func (e *Engine) Interrupt() {
	e.phase = PhaseIdle
	e.state = State{}
}

func (e *Engine) process(ws Workspace, progressed Event) TickResult {
	if !e.inputsPresent(ws) {
		return e.interrupt()
	}
	if ws.Energy == nil || !ws.Energy.TryDraw(e.state.EnergyPerTick) {
		if progressed == EventStarted {
			return e.result(EventStarted)
		}
		return e.result(EventHeld)
	}
	e.state.Progress++
	if e.state.Progress < e.state.TotalDuration {
		return e.result(progressed)
	}
	e.phase = PhaseCompleting
	return e.commit(ws)
}

// commit reserves output space, then consumes inputs and places outputs together
func (e *Engine) commit(ws Workspace) TickResult {
	if ws.Items == nil || !ws.Items.Fits(e.state.PendingOutput...) {
		return e.result(EventStalled)
	}
	for _, in := range e.state.LockedInputs {
		ws.Items.ConsumeInputs(in.Key, in.Count)
	}
	if f := e.state.LockedFluid; f != nil {
		ws.Fluids.Use(ws.FluidTank, fluid.NewVolume(f.Key, f.Amount))
	}
	ws.Items.OutputAll(e.state.PendingOutput...)
	res := e.result(EventCompleted)
	e.Interrupt()
	res.Phase = PhaseIdle
	return res
}

func (e *Engine) interrupt() TickResult {
	res := e.result(EventInterrupted)
	e.Interrupt()
	res.Phase = PhaseIdle
	return res
}

func (e *Engine) match(ws Workspace) (*Recipe, bool) {
	if e.recipes == nil {
		return nil, false
	}
	for _, r := range e.recipes.RecipesFor(e.recipeType) {
		if satisfiable(ws, r.requirements(), r.FluidInput) {
			return r, true
		}
	}
	return nil, false
}

func (e *Engine) lock(r *Recipe) {
	req := r.requirements()
	inputs := make([]Ingredient, 0, len(req))
	for _, in := range r.Inputs {
		if n, ok := req[in.Key]; ok {
			inputs = append(inputs, Ingredient{Key: in.Key, Count: n})
			delete(req, in.Key)
		}
	}
	var lockedFluid *FluidIngredient
	if r.FluidInput != nil {
		f := *r.FluidInput
		lockedFluid = &f
	}
	e.state = State{
		RecipeID:      r.ID,
		TotalDuration: e.enhancers.Duration(r.Duration),
		EnergyPerTick: e.enhancers.EnergyPerTick(r.EnergyPerTick),
		LockedInputs:  inputs,
		LockedFluid:   lockedFluid,
		PendingOutput: append([]inventory.Stack(nil), r.Outputs...),
	}
	e.phase = PhaseProcessing
}

func (e *Engine) inputsPresent(ws Workspace) bool {
	req := make(map[shared.ResourceKey]int, len(e.state.LockedInputs))
	for _, in := range e.state.LockedInputs {
		req[in.Key] += in.Count
	}
	return satisfiable(ws, req, e.state.LockedFluid)
}

func (e *Engine) result(ev Event) TickResult {
	return TickResult{
		Event:    ev,
		Phase:    e.phase,
		RecipeID: e.state.RecipeID,
		Progress: e.state.Progress,
		Total:    e.state.TotalDuration,
	}
}

func satisfiable(ws Workspace, req map[shared.ResourceKey]int, fluidIn *FluidIngredient) bool {
	if len(req) > 0 && ws.Items == nil {
		return false
	}
	for key, n := range req {
		if ws.Items.CountInputs(key) < n {
			return false
		}
	}
	if fluidIn == nil {
		return true
	}
	if ws.Fluids == nil {
		return false
	}
	tank, ok := ws.Fluids.Tank(ws.FluidTank)
	return ok && tank.Key() == fluidIn.Key && tank.Amount().Cmp(fluidIn.Amount) >= 0
}

func hasInput(ws Workspace) bool {
	if ws.Items != nil && !ws.Items.InputsEmpty() {
		return true
	}
	if ws.Fluids != nil {
		if tank, ok := ws.Fluids.Tank(ws.FluidTank); ok && !tank.IsEmpty() {
			return true
		}
	}
	return false
}

// Serialize writes the active process
func (e *Engine) Serialize(f shared.Fields) {
	f.Set(FieldProcessTime, e.state.Progress)
	f.Set(FieldMaxProcessTime, e.state.TotalDuration)
	f.Set(FieldRecipeID, e.state.RecipeID)
	f.Set(FieldPhase, string(e.phase))
	e.enhancers.Serialize(f)
}

// Deserialize restores the active process. An unknown recipe or inconsistent progress restores Idle.
func (e *Engine) Deserialize(f shared.Fields) {
	e.enhancers.Deserialize(f)
	e.Interrupt()

	recipe, ok := findRecipe(e.recipes, e.recipeType, f.String(FieldRecipeID))
	if !ok {
		return
	}
	phase := Phase(f.String(FieldPhase))
	if phase != PhaseProcessing && phase != PhaseCompleting {
		return
	}
	total := int(f.Int(FieldMaxProcessTime))
	progress := int(f.Int(FieldProcessTime))
	if total <= 0 || progress < 0 || progress > total {
		return
	}
	e.lock(recipe)
	e.state.TotalDuration = total
	e.state.Progress = progress
	if progress == total {
		e.phase = PhaseCompleting
	}
}

func (e *Engine) String() string {
	if !e.IsActive() {
		return fmt.Sprintf("Processing(%s)", e.phase)
	}
	return fmt.Sprintf("Processing(%s %s %d/%d)", e.phase, e.state.RecipeID, e.state.Progress, e.state.TotalDuration)
}
