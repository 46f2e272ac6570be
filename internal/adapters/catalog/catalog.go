package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/factorysim-go/internal/domain/generator"
	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/processing"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/sides"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog is the YAML-backed source of recipes, fuels, stack limits and machine specs.
// It is read-only after loading.
type Catalog struct {
	maxStack map[shared.ResourceKey]int
	fuels    map[shared.ResourceKey]generator.FuelDefinition
	recipes  map[string][]*processing.Recipe
	machines map[machine.Kind]*machine.Spec
}

var _ machine.Catalog = (*Catalog)(nil)

// Default returns the built-in catalog
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file; an empty path loads the built-in catalog
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		maxStack: make(map[shared.ResourceKey]int, len(doc.Items)),
		fuels:    make(map[shared.ResourceKey]generator.FuelDefinition, len(doc.Fuels)),
		recipes:  make(map[string][]*processing.Recipe),
		machines: make(map[machine.Kind]*machine.Spec, len(doc.Machines)),
	}

	for _, it := range doc.Items {
		if it.ID == "" {
			return nil, shared.NewCatalogError("items", "item id is required")
		}
		if it.MaxStack < 0 {
			return nil, shared.NewCatalogError(it.ID, "max_stack cannot be negative")
		}
		c.maxStack[shared.ResourceKey(it.ID)] = it.MaxStack
	}

	for _, fd := range doc.Fuels {
		def, err := fd.toDomain()
		if err != nil {
			return nil, shared.NewCatalogError("fuel "+fd.Item+fd.Fluid, err.Error())
		}
		if _, dup := c.fuels[def.Key]; dup {
			return nil, shared.NewCatalogError("fuel "+string(def.Key), "duplicate definition")
		}
		c.fuels[def.Key] = def
	}

	seen := make(map[string]bool, len(doc.Recipes))
	for _, rd := range doc.Recipes {
		r := rd.toDomain()
		if err := r.Validate(); err != nil {
			return nil, shared.NewCatalogError("recipe "+rd.ID, err.Error())
		}
		if seen[r.ID] {
			return nil, shared.NewCatalogError("recipe "+r.ID, "duplicate id")
		}
		seen[r.ID] = true
		c.recipes[r.Type] = append(c.recipes[r.Type], r)
	}

	for name, md := range doc.Machines {
		spec, err := md.toDomain(machine.Kind(name))
		if err != nil {
			return nil, shared.NewCatalogError("machine "+name, err.Error())
		}
		if err := spec.Validate(); err != nil {
			return nil, shared.NewCatalogError("machine "+name, err.Error())
		}
		c.machines[spec.Kind] = spec
	}

	return c, nil
}

// RecipesFor returns the recipes of one processing type in declaration order
func (c *Catalog) RecipesFor(recipeType string) []*processing.Recipe {
	return c.recipes[recipeType]
}

// FuelFor looks up a fuel by item or fluid key
func (c *Catalog) FuelFor(key shared.ResourceKey) (generator.FuelDefinition, bool) {
	def, ok := c.fuels[key]
	return def, ok
}

// MaxStack returns the stack limit for an item; zero means the inventory default
func (c *Catalog) MaxStack(key shared.ResourceKey) int {
	return c.maxStack[key]
}

// MachineSpec returns the spec of a machine kind
func (c *Catalog) MachineSpec(kind machine.Kind) (*machine.Spec, bool) {
	s, ok := c.machines[kind]
	return s, ok
}

// Kinds returns the machine kinds in name order
func (c *Catalog) Kinds() []machine.Kind {
	kinds := make([]machine.Kind, 0, len(c.machines))
	for k := range c.machines {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// RecipeTypes returns the processing types in name order
func (c *Catalog) RecipeTypes() []string {
	types := make([]string, 0, len(c.recipes))
	for t := range c.recipes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Fuels returns every fuel definition in key order
func (c *Catalog) Fuels() []generator.FuelDefinition {
	out := make([]generator.FuelDefinition, 0, len(c.fuels))
	for _, def := range c.fuels {
		out = append(out, def)
	}
	slices.SortFunc(out, func(a, b generator.FuelDefinition) int {
		return strings.Compare(string(a.Key), string(b.Key))
	})
	return out
}

func (fd fuelDoc) toDomain() (generator.FuelDefinition, error) {
	if (fd.Item == "") == (fd.Fluid == "") {
		return generator.FuelDefinition{}, fmt.Errorf("exactly one of item or fluid is required")
	}
	def := generator.FuelDefinition{
		Key:             shared.ResourceKey(fd.Item + fd.Fluid),
		BurnTime:        fd.BurnTime,
		GenerationRatio: fd.GenerationRatio,
	}
	if fd.Item != "" {
		def.Count = max(fd.Count, 1)
	} else {
		def.Consumption = fd.Consumption.Amount
		if !def.Consumption.IsPositive() {
			return def, fmt.Errorf("liquid fuel needs a positive consumption")
		}
	}
	return def, def.Validate()
}

func (rd recipeDoc) toDomain() *processing.Recipe {
	r := &processing.Recipe{
		ID:            rd.ID,
		Type:          rd.Type,
		Duration:      rd.Duration,
		EnergyPerTick: rd.EnergyPerTick,
	}
	for _, in := range rd.Inputs {
		r.Inputs = append(r.Inputs, processing.Ingredient{Key: shared.ResourceKey(in.Item), Count: in.Count})
	}
	if rd.FluidInput != nil {
		r.FluidInput = &processing.FluidIngredient{
			Key:    shared.ResourceKey(rd.FluidInput.Fluid),
			Amount: rd.FluidInput.Amount.Amount,
		}
	}
	for _, out := range rd.Outputs {
		r.Outputs = append(r.Outputs, inventory.NewStack(shared.ResourceKey(out.Item), out.Count))
	}
	return r
}

func (md machineDoc) toDomain(kind machine.Kind) (*machine.Spec, error) {
	spec := &machine.Spec{
		Kind:      kind,
		Boiler:    md.Boiler,
		Structure: md.Structure,
		Transfer: machine.TransferSpec{
			FluidPerTick: md.Transfer.FluidPerTick.Amount,
			ItemsPerTick: md.Transfer.ItemsPerTick,
		},
	}

	if e := md.Energy; e != nil {
		spec.Energy = &machine.EnergySpec{Capacity: e.Capacity, MaxInput: e.MaxInput, MaxOutput: e.MaxOutput}
	}
	for _, t := range md.Tanks {
		ts := machine.TankSpec{Capacity: t.Capacity.Amount, Role: t.Role.Role}
		for _, f := range t.Fluids {
			ts.Fluids = append(ts.Fluids, shared.ResourceKey(f))
		}
		spec.Tanks = append(spec.Tanks, ts)
	}
	if inv := md.Inventory; inv != nil {
		spec.Inventory = &machine.InventorySpec{Size: inv.Size, Inputs: inv.Inputs, Outputs: inv.Outputs}
	}
	if t := md.Temperature; t != nil {
		spec.Temperature = &machine.TemperatureSpec{
			DriftRate: t.DriftRate,
			OptimalLo: t.Optimal[0],
			OptimalHi: t.Optimal[1],
			Overheat:  t.Overheat,
			Ceiling:   t.Ceiling,
			Ambient:   t.Ambient,
			Boost:     t.Boost,
		}
	}

	if len(md.Sides) > 0 {
		spec.Sides = make(map[sides.Kind]machine.SideSpec, len(md.Sides))
		for name, s := range md.Sides {
			kind, err := sides.ParseKind(name)
			if err != nil {
				return nil, err
			}
			ss := machine.SideSpec{Default: s.Default.Mode, AutoPush: s.AutoPush, AutoPull: s.AutoPull}
			for _, v := range s.Valid {
				ss.Valid = append(ss.Valid, v.Mode)
			}
			if !slices.Contains(ss.Valid, sides.None) {
				ss.Valid = append([]sides.Mode{sides.None}, ss.Valid...)
			}
			if ss.Default == "" {
				ss.Default = sides.None
			}
			spec.Sides[kind] = ss
		}
	}

	if p := md.Processing; p != nil {
		rules := processing.EnhancerRules{
			MaxCount:            make(map[processing.Enhancer]int, len(p.Enhancers.Max)),
			SpeedStepPercent:    p.Enhancers.SpeedStepPercent,
			MaxReductionPercent: p.Enhancers.MaxReductionPercent,
			BufferBonus:         p.Enhancers.BufferBonus,
		}
		for name, n := range p.Enhancers.Max {
			e, err := processing.ParseEnhancer(name)
			if err != nil {
				return nil, err
			}
			rules.MaxCount[e] = n
		}
		spec.Processing = &machine.ProcessingSpec{RecipeType: p.RecipeType, FluidTank: p.FluidTank, Enhancers: rules}
	}

	if g := md.Generator; g != nil {
		gs := &machine.GeneratorSpec{Fuel: machine.FuelForm(strings.ToLower(g.Fuel)), Slot: g.Slot, Tank: g.Tank}
		if b := g.Byproduct; b != nil {
			gs.Byproduct = &generator.Byproduct{Key: shared.ResourceKey(b.Item), Interval: b.Interval, Chance: b.Chance}
		}
		spec.Generator = gs
	}

	return spec, nil
}
