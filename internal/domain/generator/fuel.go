package generator

import (
	"fmt"

	"github.com/andrescamacho/factorysim-go/internal/domain/fluid"
	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// FuelDefinition describes how one fuel kind burns
type FuelDefinition struct {
	Key shared.ResourceKey
	// Count is the number of items consumed per burn for solid fuel
	Count int
	// Consumption is the fluid amount consumed per burn for liquid fuel
	Consumption     shared.Amount
	BurnTime        int
	GenerationRatio float64
}

// Validate checks the definition
func (d FuelDefinition) Validate() error {
	if d.Key.IsEmpty() {
		return fmt.Errorf("fuel key is required")
	}
	if d.BurnTime <= 0 {
		return fmt.Errorf("fuel %s: burn time must be positive", d.Key)
	}
	if d.GenerationRatio < 0 {
		return fmt.Errorf("fuel %s: generation ratio cannot be negative", d.Key)
	}
	if d.Count < 0 || d.Consumption.IsNegative() || d.Consumption.IsOverflow() {
		return fmt.Errorf("fuel %s: consumption cannot be negative", d.Key)
	}
	return nil
}

// FuelCatalog looks up fuel definitions
type FuelCatalog interface {
	FuelFor(key shared.ResourceKey) (FuelDefinition, bool)
}

// FuelSource is where a generator takes its fuel from
type FuelSource interface {
	// Current returns the fuel kind available right now, or EmptyKey
	Current() shared.ResourceKey
	// Consume removes one burn's worth of fuel, or nothing
	Consume(def FuelDefinition) bool
}

// SolidFuel burns items from one inventory slot
type SolidFuel struct {
	Items *inventory.Inventory
	Slot  int
}

func (s SolidFuel) Current() shared.ResourceKey {
	stack, ok := s.Items.Slot(s.Slot)
	if !ok || stack.IsEmpty() {
		return shared.EmptyKey
	}
	return stack.Key
}

func (s SolidFuel) Consume(def FuelDefinition) bool {
	n := max(def.Count, 1)
	stack, ok := s.Items.Slot(s.Slot)
	if !ok || stack.Key != def.Key || stack.Count < n {
		return false
	}
	s.Items.Extract(s.Slot, n)
	return true
}

// LiquidFuel burns fluid from one tank
type LiquidFuel struct {
	Fluids *fluid.Container
	Tank   int
}

func (l LiquidFuel) Current() shared.ResourceKey {
	tank, ok := l.Fluids.Tank(l.Tank)
	if !ok {
		return shared.EmptyKey
	}
	return tank.Key()
}

func (l LiquidFuel) Consume(def FuelDefinition) bool {
	if !def.Consumption.IsPositive() {
		return false
	}
	return l.Fluids.Use(l.Tank, fluid.NewVolume(def.Key, def.Consumption))
}
