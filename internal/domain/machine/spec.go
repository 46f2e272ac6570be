package machine

import (
	"fmt"

	"github.com/andrescamacho/factorysim-go/internal/domain/fluid"
	"github.com/andrescamacho/factorysim-go/internal/domain/generator"
	"github.com/andrescamacho/factorysim-go/internal/domain/processing"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/sides"
)

// Kind names a machine type in the catalog
type Kind string

const (
	KindCoalGenerator       Kind = "coal_generator"
	KindGasBurningGenerator Kind = "gas_burning_generator"
	KindElectricFurnace     Kind = "electric_furnace"
	KindDistiller           Kind = "distiller"
	KindBoiler              Kind = "boiler"
	KindFluidTank           Kind = "fluid_tank"
)

// ErrUnknownKind is returned when the catalog has no spec for a kind
type ErrUnknownKind struct {
	Kind Kind
}

func (e *ErrUnknownKind) Error() string {
	return fmt.Sprintf("unknown machine kind: %s", e.Kind)
}

// Spec is the catalog description of a machine kind. Nil sections are absent capabilities.
type Spec struct {
	Kind        Kind
	Energy      *EnergySpec
	Tanks       []TankSpec
	Inventory   *InventorySpec
	Temperature *TemperatureSpec
	Sides       map[sides.Kind]SideSpec
	Processing  *ProcessingSpec
	Generator   *GeneratorSpec
	Boiler      bool
	// Structure names a multiblock definition ("boiler")
	Structure string
	Transfer  TransferSpec
}

// EnergySpec sizes the energy buffer
type EnergySpec struct {
	Capacity  float64
	MaxInput  float64
	MaxOutput float64
}

// TankSpec describes one fluid tank
type TankSpec struct {
	Capacity shared.Amount
	// Fluids restricts the accepted kinds; empty accepts any fluid
	Fluids []shared.ResourceKey
	Role   fluid.Role
}

// InventorySpec describes the item slots
type InventorySpec struct {
	Size    int
	Inputs  []int
	Outputs []int
}

// TemperatureSpec configures the thermal model
type TemperatureSpec struct {
	DriftRate float64
	OptimalLo float64
	OptimalHi float64
	Overheat  float64
	// Ceiling defaults to Overheat x 1.25 when zero
	Ceiling float64
	Ambient float64
	// Boost multiplies generation inside the optimal band; zero uses the simulation default
	Boost float64
}

// SideSpec is the valid and default transfer modes for one resource kind
type SideSpec struct {
	Valid   []sides.Mode
	Default sides.Mode
	// AutoPush and AutoPull start enabled when true
	AutoPush bool
	AutoPull bool
}

// ProcessingSpec configures the recipe engine
type ProcessingSpec struct {
	RecipeType string
	// FluidTank is the tank a fluid-input recipe drains
	FluidTank int
	Enhancers processing.EnhancerRules
}

// FuelForm selects where a generator takes fuel from
type FuelForm string

const (
	FuelSolid  FuelForm = "solid"
	FuelLiquid FuelForm = "liquid"
)

// GeneratorSpec configures fuel burning
type GeneratorSpec struct {
	Fuel FuelForm
	// Slot or Tank holds the fuel, depending on Fuel
	Slot      int
	Tank      int
	Byproduct *generator.Byproduct
}

// TransferSpec bounds per-tick automatic transfers
type TransferSpec struct {
	// FluidPerTick limits each fluid move; zero moves as much as fits
	FluidPerTick shared.Amount
	// ItemsPerTick limits each item move; zero moves as much as fits
	ItemsPerTick int
}

// Validate checks the spec for internal consistency
func (s *Spec) Validate() error {
	if s.Kind == "" {
		return fmt.Errorf("machine kind is required")
	}
	if s.Processing != nil {
		if s.Energy == nil {
			return fmt.Errorf("%s: processing requires an energy buffer", s.Kind)
		}
		if s.Inventory == nil {
			return fmt.Errorf("%s: processing requires an inventory", s.Kind)
		}
		if s.Processing.RecipeType == "" {
			return fmt.Errorf("%s: processing requires a recipe type", s.Kind)
		}
	}
	if g := s.Generator; g != nil {
		if s.Energy == nil {
			return fmt.Errorf("%s: generator requires an energy buffer", s.Kind)
		}
		switch g.Fuel {
		case FuelSolid:
			if s.Inventory == nil || g.Slot < 0 || g.Slot >= s.Inventory.Size {
				return fmt.Errorf("%s: solid fuel slot %d is not in the inventory", s.Kind, g.Slot)
			}
		case FuelLiquid:
			if g.Tank < 0 || g.Tank >= len(s.Tanks) {
				return fmt.Errorf("%s: liquid fuel tank %d does not exist", s.Kind, g.Tank)
			}
		default:
			return fmt.Errorf("%s: unknown fuel form %q", s.Kind, g.Fuel)
		}
	}
	if s.Boiler && (s.Temperature == nil || s.Structure == "") {
		return fmt.Errorf("%s: a boiler requires temperature and a structure", s.Kind)
	}
	return nil
}
