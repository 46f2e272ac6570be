package generator

import (
	"fmt"

	"github.com/andrescamacho/factorysim-go/internal/domain/energy"
	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// Persisted keys
const (
	FieldBurnTime        = "BurnTime"
	FieldMaxBurnTime     = "MaxBurnTime"
	FieldGeneratingTicks = "GeneratingTicks"
	FieldGenerationRatio = "GenerationRatio"
)

// Phase is the generator's lifecycle state
type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseFueling    Phase = "FUELING"
	PhaseGenerating Phase = "GENERATING"
)

// Rand is the random source for byproduct trials
type Rand interface {
	Float64() float64
}

// Byproduct is an item emitted by a Bernoulli trial every Interval generating ticks
type Byproduct struct {
	Key      shared.ResourceKey
	Interval int
	Chance   float64
}

// TickResult reports one generator tick
type TickResult struct {
	Phase        Phase
	Generated    float64
	FuelConsumed shared.ResourceKey
	Byproduct    bool
}

// Generator burns fuel into energy.
//
// A fuel unit is consumed only when burn time has run out and the buffer has headroom.
type Generator struct {
	fuel      FuelSource
	catalog   FuelCatalog
	byproduct *Byproduct
	rng       Rand

	phase           Phase
	burnTime        int
	maxBurnTime     int
	ratio           float64
	generatingTicks int
}

// Option customises a Generator
type Option func(*Generator)

// WithByproduct enables byproduct emission using rng for the trials
func WithByproduct(b Byproduct, rng Rand) Option {
	return func(g *Generator) {
		if b.Interval <= 0 || rng == nil {
			return
		}
		g.byproduct = &b
		g.rng = rng
	}
}

// New creates an idle generator
func New(fuel FuelSource, catalog FuelCatalog, opts ...Option) *Generator {
	g := &Generator{fuel: fuel, catalog: catalog, phase: PhaseIdle}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Phase returns the state reached on the last tick
func (g *Generator) Phase() Phase { return g.phase }

// BurnTime returns the remaining ticks of the current fuel unit
func (g *Generator) BurnTime() int { return g.burnTime }

// MaxBurnTime returns the burn time of the last consumed fuel unit
func (g *Generator) MaxBurnTime() int { return g.maxBurnTime }

// GeneratingTicks returns the number of ticks spent generating
func (g *Generator) GeneratingTicks() int { return g.generatingTicks }

// IsGenerating reports whether the last tick burned fuel
func (g *Generator) IsGenerating() bool { return g.phase == PhaseGenerating }

// Tick consumes fuel when needed and offers ratio x efficiency to buf.
// Byproducts go to the output slots of out, and are dropped when out is nil or full.
func (g *Generator) Tick(buf *energy.Buffer, efficiency float64, out *inventory.Inventory) TickResult {
	res := TickResult{Phase: PhaseIdle}

	if g.burnTime == 0 && buf.Headroom() > 0 {
		key := g.fuel.Current()
		if def, ok := g.lookup(key); ok && g.fuel.Consume(def) {
			g.burnTime = def.BurnTime
			g.maxBurnTime = def.BurnTime
			g.ratio = def.GenerationRatio
			res.Phase = PhaseFueling
			res.FuelConsumed = key
		}
	}

	if g.burnTime > 0 {
		g.burnTime--
		res.Phase = PhaseGenerating
		res.Generated = buf.Offer(g.ratio * efficiency)
		g.generatingTicks++
		res.Byproduct = g.trial(out)
	}

	g.phase = res.Phase
	return res
}

func (g *Generator) lookup(key shared.ResourceKey) (FuelDefinition, bool) {
	if key.IsEmpty() || g.catalog == nil {
		return FuelDefinition{}, false
	}
	def, ok := g.catalog.FuelFor(key)
	if !ok || def.BurnTime <= 0 {
		return FuelDefinition{}, false
	}
	return def, true
}

func (g *Generator) trial(out *inventory.Inventory) bool {
	b := g.byproduct
	if b == nil || g.generatingTicks%b.Interval != 0 {
		return false
	}
	if g.rng.Float64() >= b.Chance {
		return false
	}
	if out == nil {
		return false
	}
	return out.Output(inventory.NewStack(b.Key, 1))
}

// Serialize writes the burn state
func (g *Generator) Serialize(f shared.Fields) {
	f.Set(FieldBurnTime, g.burnTime)
	f.Set(FieldMaxBurnTime, g.maxBurnTime)
	f.Set(FieldGeneratingTicks, g.generatingTicks)
	f.Set(FieldGenerationRatio, g.ratio)
}

// Deserialize restores the burn state, clamping inconsistent values
func (g *Generator) Deserialize(f shared.Fields) {
	g.maxBurnTime = max(int(f.Int(FieldMaxBurnTime)), 0)
	g.burnTime = min(max(int(f.Int(FieldBurnTime)), 0), g.maxBurnTime)
	g.generatingTicks = max(int(f.Int(FieldGeneratingTicks)), 0)
	g.ratio = max(f.Float(FieldGenerationRatio), 0)
	g.phase = PhaseIdle
}

func (g *Generator) String() string {
	return fmt.Sprintf("Generator(%s burn %d/%d)", g.phase, g.burnTime, g.maxBurnTime)
}
