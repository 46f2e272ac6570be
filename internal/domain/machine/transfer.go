package machine

import (
	"math"

	"github.com/andrescamacho/factorysim-go/internal/domain/fluid"
	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/sides"
	"github.com/andrescamacho/factorysim-go/internal/domain/structure"
)

// transferFaces moves resources across the six faces.
// Each move is a single insert/extract pair so neighbour tick order does not matter.
func (m *Machine) transferFaces(tc *tickContext) {
	cfg := m.c.sides
	for _, dir := range shared.AllDirections {
		nb, ok := tc.env.MachineAt(m.pos.Offset(dir))
		if !ok || nb == m {
			continue
		}
		face := dir.Opposite()

		if m.c.fluids != nil && nb.c.fluids != nil {
			if cfg.AutoPush(sides.Fluid) && cfg.CanOutput(dir, sides.Fluid) && nb.TransferModeFor(face, sides.Fluid).AllowsInput() {
				tc.report.FluidMoved = tc.report.FluidMoved.Add(fluid.MoveExternal(m.c.fluids, nb.c.fluids, m.spec.Transfer.FluidPerTick))
			}
			if cfg.AutoPull(sides.Fluid) && cfg.CanInput(dir, sides.Fluid) && nb.TransferModeFor(face, sides.Fluid).AllowsOutput() {
				tc.report.FluidMoved = tc.report.FluidMoved.Add(fluid.MoveExternal(nb.c.fluids, m.c.fluids, m.spec.Transfer.FluidPerTick))
			}
		}

		if m.c.items != nil && nb.c.items != nil {
			if cfg.AutoPush(sides.Item) && cfg.CanOutput(dir, sides.Item) && nb.TransferModeFor(face, sides.Item).AllowsInput() {
				tc.report.ItemsMoved += inventory.MoveExternal(m.c.items, nb.c.items, m.spec.Transfer.ItemsPerTick)
			}
			if cfg.AutoPull(sides.Item) && cfg.CanInput(dir, sides.Item) && nb.TransferModeFor(face, sides.Item).AllowsOutput() {
				tc.report.ItemsMoved += inventory.MoveExternal(nb.c.items, m.c.items, m.spec.Transfer.ItemsPerTick)
			}
		}

		if m.c.energy != nil && nb.c.energy != nil {
			if cfg.AutoPush(sides.Energy) && cfg.CanOutput(dir, sides.Energy) && nb.TransferModeFor(face, sides.Energy).AllowsInput() {
				tc.report.EnergyMoved += pushEnergy(m, nb)
			}
		}
	}
}

// transferPorts moves fluid through a multiblock's derived ports.
// Input ports are pulled from and the steam port is pushed to, each gated by the
// neighbour's face toward the adjacent valve.
func (m *Machine) transferPorts(tc *tickContext) {
	v := m.c.structure
	if m.c.fluids == nil || !v.IsValid() {
		return
	}
	valves := v.Ports(structure.PortValves)
	limit := m.spec.Transfer.FluidPerTick

	for _, port := range v.Ports(structure.PortInputTanks) {
		nb, face, ok := portNeighbour(tc.env, m, port, valves)
		if !ok || nb.c.fluids == nil || !nb.TransferModeFor(face, sides.Fluid).AllowsOutput() {
			continue
		}
		tc.report.FluidMoved = tc.report.FluidMoved.Add(fluid.MoveExternal(nb.c.fluids, m.c.fluids, limit))
	}
	for _, port := range v.Ports(structure.PortSteamOutput) {
		nb, face, ok := portNeighbour(tc.env, m, port, valves)
		if !ok || nb.c.fluids == nil || !nb.TransferModeFor(face, sides.Fluid).AllowsInput() {
			continue
		}
		tc.report.FluidMoved = tc.report.FluidMoved.Add(fluid.MoveExternal(m.c.fluids, nb.c.fluids, limit))
	}
}

// portNeighbour finds the machine at port and the face it shows to the adjacent valve
func portNeighbour(env Environment, m *Machine, port shared.BlockPos, valves []shared.BlockPos) (*Machine, shared.Direction, bool) {
	nb, ok := env.MachineAt(port)
	if !ok || nb == m {
		return nil, 0, false
	}
	for _, valve := range valves {
		if dir, ok := directionBetween(port, valve); ok {
			return nb, dir, true
		}
	}
	return nil, 0, false
}

// directionBetween returns the direction from a to an adjacent b
func directionBetween(a, b shared.BlockPos) (shared.Direction, bool) {
	for _, dir := range shared.AllDirections {
		if a.Offset(dir) == b {
			return dir, true
		}
	}
	return 0, false
}

// pushEnergy moves as much energy as both rate limits and the destination headroom allow
func pushEnergy(src, dst *Machine) float64 {
	amount := math.Min(
		math.Min(src.c.energy.Stored(), src.c.energy.MaxOutput()),
		math.Min(dst.c.energy.Headroom(), dst.c.energy.MaxInput()),
	)
	if amount <= 0 {
		return 0
	}
	// amount is within the destination's limits, so everything drawn is accepted
	return dst.c.energy.Offer(src.c.energy.Draw(amount))
}
