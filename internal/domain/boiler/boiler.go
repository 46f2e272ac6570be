package boiler

import (
	"fmt"

	"github.com/andrescamacho/factorysim-go/internal/domain/fluid"
	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// FieldSolidifiedSalt is the persisted key for the salt accumulator
const FieldSolidifiedSalt = "SolidifiedSalt"

// Tank indices
const (
	TankMoltenSalt = 0
	TankWater      = 1
	TankSteam      = 2
)

// Config names the resources a boiler works with
type Config struct {
	MoltenSalt shared.ResourceKey
	Water      shared.ResourceKey
	Steam      shared.ResourceKey
	Salt       shared.ResourceKey
}

// DefaultConfig is the standard molten-salt boiler
var DefaultConfig = Config{
	MoltenSalt: "molten_salt",
	Water:      "water",
	Steam:      "steam",
	Salt:       "salt",
}

var (
	moltenSaltCapacity = shared.AmountOfWhole(1)
	fluidCapacity      = shared.AmountOfWhole(8)
	// drainPerTick is a third of a milli-unit
	drainPerTick = shared.AmountOfMilli(1).Div(3)
	// saltPerItem is 2.5 batches of 0.25 units
	saltPerItem = shared.AmountOfMilli(250).Mul(5).Div(2)
	// steamBaseline is the temperature below which no water boils
	steamBaseline = shared.AmountOfWhole(100)
)

const steamDivisor = 2500

// NewTanks creates the boiler's molten-salt, water and steam tanks
func NewTanks(cfg Config) (*fluid.Container, error) {
	salt, err := fluid.NewTank(moltenSaltCapacity, fluid.Only(cfg.MoltenSalt), fluid.RoleInput)
	if err != nil {
		return nil, fmt.Errorf("molten salt tank: %w", err)
	}
	water, err := fluid.NewTank(fluidCapacity, fluid.Only(cfg.Water), fluid.RoleInput)
	if err != nil {
		return nil, fmt.Errorf("water tank: %w", err)
	}
	steam, err := fluid.NewTank(fluidCapacity, fluid.Only(cfg.Steam), fluid.RoleOutput)
	if err != nil {
		return nil, fmt.Errorf("steam tank: %w", err)
	}
	return fluid.NewContainer(salt, water, steam), nil
}

// TickResult reports one boiler tick
type TickResult struct {
	// Heating is true while molten salt is present
	Heating       bool
	SaltDrained   shared.Amount
	SaltEmitted   bool
	SteamProduced shared.Amount
}

// Boiler turns water into steam while molten salt keeps it hot
type Boiler struct {
	cfg        Config
	solidified shared.Amount
}

// New creates a boiler
func New(cfg Config) *Boiler {
	return &Boiler{cfg: cfg}
}

// Config returns the resource names
func (b *Boiler) Config() Config { return b.cfg }

// Solidified returns the salt drained since the last emitted item
func (b *Boiler) Solidified() shared.Amount { return b.solidified }

// Tick drains molten salt, emits salt items and boils water at the given temperature.
// The caller feeds Heating into the temperature model afterwards.
func (b *Boiler) Tick(tanks *fluid.Container, items *inventory.Inventory, temperature float64) TickResult {
	var res TickResult

	if salt, ok := tanks.Tank(TankMoltenSalt); ok && !salt.IsEmpty() && salt.Key() == b.cfg.MoltenSalt {
		res.Heating = true
		drained := tanks.Extract(TankMoltenSalt, drainPerTick)
		res.SaltDrained = drained.Amount
		b.solidified = b.solidified.Add(drained.Amount)
	}
	if b.solidified.Cmp(saltPerItem) >= 0 {
		b.solidified = b.solidified.Sub(saltPerItem)
		if items != nil {
			res.SaltEmitted = items.Output(inventory.NewStack(b.cfg.Salt, 1))
		}
	}

	res.SteamProduced = b.boil(tanks, temperature)
	return res
}

func (b *Boiler) boil(tanks *fluid.Container, temperature float64) shared.Amount {
	water, ok := tanks.Tank(TankWater)
	if !ok || water.IsEmpty() {
		return shared.ZeroAmount
	}
	steam, ok := tanks.Tank(TankSteam)
	if !ok || steam.IsFull() {
		return shared.ZeroAmount
	}

	rate := shared.AmountOfWhole(int64(temperature)).Sub(steamBaseline).Div(steamDivisor)
	if rate.IsNegative() || rate.IsOverflow() {
		return shared.ZeroAmount
	}
	amount := water.Amount().CoerceAtMost(steam.Headroom()).CoerceAtMost(rate)
	if !amount.IsPositive() {
		return shared.ZeroAmount
	}

	boiled := tanks.Extract(TankWater, amount)
	rest := tanks.Insert(TankSteam, fluid.NewVolume(b.cfg.Steam, boiled.Amount))
	if !rest.IsEmpty() {
		tanks.Insert(TankWater, fluid.NewVolume(boiled.Key, rest.Amount))
	}
	return boiled.Amount.Sub(rest.Amount)
}

// Serialize writes the salt accumulator
func (b *Boiler) Serialize(f shared.Fields) {
	f.SetAmount(FieldSolidifiedSalt, b.solidified)
}

// Deserialize restores the salt accumulator, clamped to one item's worth
func (b *Boiler) Deserialize(f shared.Fields) {
	b.solidified = f.Amount(FieldSolidifiedSalt).CoerceAtLeast(shared.ZeroAmount).CoerceAtMost(saltPerItem)
}
