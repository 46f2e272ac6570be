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

// Environment is the world a machine ticks against
type Environment interface {
	structure.MaterialSource
	// MachineAt resolves a position to the machine occupying it, including multiblock members
	MachineAt(pos shared.BlockPos) (*Machine, bool)
	// NotifyStructureDirty tells multiblocks around pos to re-check on their next tick
	NotifyStructureDirty(pos shared.BlockPos)
}

// Catalog provides the data-driven definitions machines are built from
type Catalog interface {
	processing.RecipeSource
	generator.FuelCatalog
	MaxStack(key shared.ResourceKey) int
	MachineSpec(kind Kind) (*Spec, bool)
}

// components is the fixed capability table. A nil entry is an absent capability.
type components struct {
	energy      *energy.Buffer
	fluids      *fluid.Container
	items       *inventory.Inventory
	temperature *thermal.Model
	sides       *sides.Configuration
	structure   *structure.Validator
	engine      *processing.Engine
	generator   *generator.Generator
	boiler      *boiler.Boiler
}

// Machine is a placed simulation entity: a capability table plus the ordered
// behaviours its kind runs each tick.
type Machine struct {
	id     ID
	kind   Kind
	spec   *Spec
	pos    shared.BlockPos
	facing shared.Direction
	boost  float64

	c         components
	behaviors []behavior
	ticks     shared.Tick
}

func (m *Machine) ID() ID                   { return m.id }
func (m *Machine) Kind() Kind               { return m.kind }
func (m *Machine) Spec() *Spec              { return m.spec }
func (m *Machine) Pos() shared.BlockPos     { return m.pos }
func (m *Machine) Facing() shared.Direction { return m.facing }

// Ticks returns the number of completed ticks
func (m *Machine) Ticks() shared.Tick { return m.ticks }

// Energy returns the energy buffer if the machine has one
func (m *Machine) Energy() (*energy.Buffer, bool) { return m.c.energy, m.c.energy != nil }

// Fluids returns the tank container if the machine has one
func (m *Machine) Fluids() (*fluid.Container, bool) { return m.c.fluids, m.c.fluids != nil }

// Items returns the inventory if the machine has one
func (m *Machine) Items() (*inventory.Inventory, bool) { return m.c.items, m.c.items != nil }

// Temperature returns the thermal model if the machine has one
func (m *Machine) Temperature() (*thermal.Model, bool) {
	return m.c.temperature, m.c.temperature != nil
}

// Sides returns the side configuration if the machine has one
func (m *Machine) Sides() (*sides.Configuration, bool) { return m.c.sides, m.c.sides != nil }

// Structure returns the multiblock validator if the machine has one
func (m *Machine) Structure() (*structure.Validator, bool) {
	return m.c.structure, m.c.structure != nil
}

// Engine returns the processing engine if the machine has one
func (m *Machine) Engine() (*processing.Engine, bool) { return m.c.engine, m.c.engine != nil }

// Generator returns the fuel generator if the machine has one
func (m *Machine) Generator() (*generator.Generator, bool) {
	return m.c.generator, m.c.generator != nil
}

// Boiler returns the boiler logic if the machine has one
func (m *Machine) Boiler() (*boiler.Boiler, bool) { return m.c.boiler, m.c.boiler != nil }

// Operational reports whether the machine's structure, if any, is currently valid
func (m *Machine) Operational() bool {
	return m.c.structure == nil || m.c.structure.IsValid()
}

// TransferModeFor is the automation gate for face dir.
// Machines without a side table, or with an invalid structure, expose nothing.
func (m *Machine) TransferModeFor(dir shared.Direction, kind sides.Kind) sides.Mode {
	if m.c.sides == nil || !m.Operational() {
		return sides.None
	}
	return m.c.sides.ModeFor(dir, kind)
}

// SetTransferMode changes the mode on one face
func (m *Machine) SetTransferMode(dir shared.Direction, kind sides.Kind, mode sides.Mode) error {
	if m.c.sides == nil {
		return &sides.ErrInvalidMode{Kind: kind, Mode: mode}
	}
	return m.c.sides.Set(dir, kind, mode)
}

// InstallEnhancer installs count upgrades of kind and resizes the energy buffer
func (m *Machine) InstallEnhancer(kind processing.Enhancer, count int) error {
	if m.c.engine == nil {
		return shared.NewValidationError("enhancer", fmt.Sprintf("%s does not accept enhancers", m.kind))
	}
	if err := m.c.engine.Enhancers().Install(kind, count); err != nil {
		return err
	}
	m.resizeEnergy()
	return nil
}

func (m *Machine) resizeEnergy() {
	if m.c.energy == nil || m.c.engine == nil || m.spec.Energy == nil {
		return
	}
	m.c.energy.SetCapacity(m.c.engine.Enhancers().EnergyCapacity(m.spec.Energy.Capacity))
}

// efficiency is the temperature modifier applied to generation
func (m *Machine) efficiency() float64 {
	if m.c.temperature == nil {
		return 1.0
	}
	return m.c.temperature.EfficiencyModifier(m.boost)
}

// Tick runs one simulation step: structure, auto-transfer, specialisation, temperature
func (m *Machine) Tick(env Environment) Report {
	tc := &tickContext{env: env, report: Report{ID: m.id, Kind: m.kind}}
	for _, b := range m.behaviors {
		if tc.halted {
			break
		}
		b.run(m, tc)
	}
	m.ticks++
	tc.report.Tick = m.ticks
	return tc.report
}

// Serialize writes every present component into one blob
func (m *Machine) Serialize() shared.Fields {
	f := shared.NewFields()
	if m.c.energy != nil {
		m.c.energy.Serialize(f)
	}
	if m.c.fluids != nil {
		m.c.fluids.Serialize(f)
	}
	if m.c.items != nil {
		m.c.items.Serialize(f)
	}
	if m.c.temperature != nil {
		m.c.temperature.Serialize(f)
	}
	if m.c.sides != nil {
		m.c.sides.Serialize(f)
	}
	if m.c.structure != nil {
		m.c.structure.Serialize(f)
	}
	if m.c.engine != nil {
		m.c.engine.Serialize(f)
	}
	if m.c.generator != nil {
		m.c.generator.Serialize(f)
	}
	if m.c.boiler != nil {
		m.c.boiler.Serialize(f)
	}
	return f
}

// Deserialize restores components from a blob. Absent or malformed keys fall back to defaults.
func (m *Machine) Deserialize(f shared.Fields) {
	if f == nil {
		f = shared.NewFields()
	}
	if m.c.engine != nil {
		// enhancers size the buffer, so they go first
		m.c.engine.Enhancers().Deserialize(f)
		m.resizeEnergy()
	}
	if m.c.energy != nil {
		m.c.energy.Deserialize(f)
	}
	if m.c.fluids != nil {
		m.c.fluids.Deserialize(f)
	}
	if m.c.items != nil {
		m.c.items.Deserialize(f)
	}
	if m.c.temperature != nil {
		m.c.temperature.Deserialize(f)
	}
	if m.c.sides != nil {
		m.c.sides.Deserialize(f)
	}
	if m.c.structure != nil {
		m.c.structure.Deserialize(f)
	}
	if m.c.engine != nil {
		m.c.engine.Deserialize(f)
	}
	if m.c.generator != nil {
		m.c.generator.Deserialize(f)
	}
	if m.c.boiler != nil {
		m.c.boiler.Deserialize(f)
	}
}

func (m *Machine) String() string {
	return fmt.Sprintf("Machine(%s %s @ %s)", m.kind, m.id, m.pos)
}
