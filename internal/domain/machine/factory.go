package machine

import (
	"fmt"

	"github.com/andrescamacho/factorysim-go/internal/domain/boiler"
	"github.com/andrescamacho/factorysim-go/internal/domain/energy"
	"github.com/andrescamacho/factorysim-go/internal/domain/fluid"
	"github.com/andrescamacho/factorysim-go/internal/domain/generator"
	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/processing"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/sides"
	"github.com/andrescamacho/factorysim-go/internal/domain/structure"
	"github.com/andrescamacho/factorysim-go/internal/domain/thermal"
)

// DefaultTemperatureBoost multiplies generation inside the optimal band
const DefaultTemperatureBoost = 1.5

// structures maps catalog structure names to their definitions
var structures = map[string]func() *structure.Definition{
	"boiler": structure.BoilerDefinition,
}

// Factory builds machines from catalog specs
type Factory struct {
	catalog       Catalog
	rng           generator.Rand
	checkInterval uint32
	boost         float64
}

// FactoryOption customises a Factory
type FactoryOption func(*Factory)

// WithRand sets the random source for generator byproducts
func WithRand(rng generator.Rand) FactoryOption {
	return func(f *Factory) { f.rng = rng }
}

// WithCheckInterval sets the ticks between scheduled structure checks
func WithCheckInterval(ticks uint32) FactoryOption {
	return func(f *Factory) { f.checkInterval = ticks }
}

// WithTemperatureBoost sets the default optimal-band multiplier
func WithTemperatureBoost(boost float64) FactoryOption {
	return func(f *Factory) {
		if boost > 0 {
			f.boost = boost
		}
	}
}

// NewFactory creates a factory over catalog
func NewFactory(catalog Catalog, opts ...FactoryOption) *Factory {
	f := &Factory{
		catalog:       catalog,
		checkInterval: structure.DefaultCheckInterval,
		boost:         DefaultTemperatureBoost,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New places a fresh machine of kind at pos
func (f *Factory) New(kind Kind, pos shared.BlockPos, facing shared.Direction) (*Machine, error) {
	return f.build(NewID(), kind, pos, facing)
}

// Restore rebuilds a persisted machine and loads its blob
func (f *Factory) Restore(id ID, kind Kind, pos shared.BlockPos, facing shared.Direction, blob shared.Fields) (*Machine, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("machine id cannot be empty")
	}
	m, err := f.build(id, kind, pos, facing)
	if err != nil {
		return nil, err
	}
	m.Deserialize(blob)
	return m, nil
}

func (f *Factory) build(id ID, kind Kind, pos shared.BlockPos, facing shared.Direction) (*Machine, error) {
	spec, ok := f.catalog.MachineSpec(kind)
	if !ok {
		return nil, &ErrUnknownKind{Kind: kind}
	}
	if err := spec.Validate(); err != nil {
		return nil, shared.NewCatalogError(string(kind), err.Error())
	}

	m := &Machine{id: id, kind: kind, spec: spec, pos: pos, facing: facing, boost: f.boost}
	if spec.Temperature != nil && spec.Temperature.Boost > 0 {
		m.boost = spec.Temperature.Boost
	}

	var err error
	if m.c, err = f.components(spec); err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", kind, err)
	}
	m.resizeEnergy()
	m.behaviors = behaviorsFor(m.c)
	return m, nil
}

func (f *Factory) components(spec *Spec) (components, error) {
	var c components
	var err error

	if e := spec.Energy; e != nil {
		if c.energy, err = energy.NewBuffer(e.Capacity, e.MaxInput, e.MaxOutput); err != nil {
			return c, fmt.Errorf("energy: %w", err)
		}
	}

	if spec.Boiler {
		if c.fluids, err = boiler.NewTanks(boiler.DefaultConfig); err != nil {
			return c, fmt.Errorf("tanks: %w", err)
		}
		c.boiler = boiler.New(boiler.DefaultConfig)
	} else if len(spec.Tanks) > 0 {
		tanks := make([]*fluid.Tank, 0, len(spec.Tanks))
		for i, ts := range spec.Tanks {
			filter := fluid.AnyFluid
			if len(ts.Fluids) > 0 {
				filter = fluid.Only(ts.Fluids...)
			}
			t, err := fluid.NewTank(ts.Capacity, filter, ts.Role)
			if err != nil {
				return c, fmt.Errorf("tank %d: %w", i, err)
			}
			tanks = append(tanks, t)
		}
		c.fluids = fluid.NewContainer(tanks...)
	}

	if inv := spec.Inventory; inv != nil {
		if c.items, err = inventory.New(inv.Size, inv.Inputs, inv.Outputs,
			inventory.WithMaxStack(f.catalog.MaxStack)); err != nil {
			return c, fmt.Errorf("inventory: %w", err)
		}
	}

	if t := spec.Temperature; t != nil {
		opts := []thermal.Option{thermal.WithAmbient(t.Ambient)}
		if t.Ceiling > 0 {
			opts = append(opts, thermal.WithCeiling(t.Ceiling))
		}
		if c.temperature, err = thermal.NewModel(t.DriftRate, thermal.Range{Lo: t.OptimalLo, Hi: t.OptimalHi}, t.Overheat, opts...); err != nil {
			return c, fmt.Errorf("temperature: %w", err)
		}
	}

	if len(spec.Sides) > 0 {
		valid := make(map[sides.Kind][]sides.Mode, len(spec.Sides))
		defaults := make(map[sides.Kind]sides.Mode, len(spec.Sides))
		for kind, s := range spec.Sides {
			valid[kind] = s.Valid
			defaults[kind] = s.Default
		}
		c.sides = sides.New(valid, defaults)
		for kind, s := range spec.Sides {
			c.sides.SetAuto(kind, s.AutoPush, s.AutoPull)
		}
	}

	if spec.Structure != "" {
		def, ok := structures[spec.Structure]
		if !ok {
			return c, fmt.Errorf("unknown structure %q", spec.Structure)
		}
		c.structure = structure.NewValidator(def(), f.checkInterval)
	}

	if p := spec.Processing; p != nil {
		c.engine = processing.NewEngine(p.RecipeType, f.catalog, processing.NewEnhancers(p.Enhancers))
	}

	if g := spec.Generator; g != nil {
		var src generator.FuelSource
		if g.Fuel == FuelLiquid {
			src = generator.LiquidFuel{Fluids: c.fluids, Tank: g.Tank}
		} else {
			src = generator.SolidFuel{Items: c.items, Slot: g.Slot}
		}
		var opts []generator.Option
		if g.Byproduct != nil && f.rng != nil {
			opts = append(opts, generator.WithByproduct(*g.Byproduct, f.rng))
		}
		c.generator = generator.New(src, f.catalog, opts...)
	}

	return c, nil
}
