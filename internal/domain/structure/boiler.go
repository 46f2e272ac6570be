package structure

import "github.com/andrescamacho/factorysim-go/internal/domain/shared"

// Boiler materials
const (
	MaterialBoilerController Signature = "boiler"
	MaterialBoilerCasing     Signature = "boiler_casing"
	MaterialFluidValve       Signature = "fluid_valve"
)

// Boiler derived queries
const (
	PortInputTanks  = "input_tanks"
	PortSteamOutput = "steam_output"
	PortValves      = "valves"
)

// BoilerDefinition is a 3x3x3 casing shell behind the controller with a hollow core.
// Two side valves feed from adjacent tanks and a top valve pushes steam upward.
//
//	layer y=1 (seen from above, controller faces north):
//	  C C C      front row, behind the controller
//	T V . V T    V = fluid valve, . = air, T = input tank (outside the shell)
//	  C C C      C = casing
func BoilerDefinition() *Definition {
	sideValves := []shared.BlockPos{{X: -1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}}
	topValve := shared.BlockPos{X: 0, Y: 2, Z: 1}

	b := NewBuilder("boiler").
		Cell(shared.BlockPos{}, Is(MaterialBoilerController)).
		Cell(shared.BlockPos{X: 0, Y: 1, Z: 1}, IsAir())
	for _, v := range sideValves {
		b.Cell(v, Is(MaterialFluidValve))
	}
	b.Cell(topValve, Is(MaterialFluidValve))
	b.Box(shared.BlockPos{X: -1, Y: 0, Z: 0}, shared.BlockPos{X: 1, Y: 2, Z: 2}, Is(MaterialBoilerCasing))

	b.Derived(PortValves, append(sideValves, topValve)...)
	b.Derived(PortInputTanks, shared.BlockPos{X: -2, Y: 1, Z: 1}, shared.BlockPos{X: 2, Y: 1, Z: 1})
	b.Derived(PortSteamOutput, shared.BlockPos{X: 0, Y: 3, Z: 1})

	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// BoilerFootprint returns the materials a complete boiler needs around anchor.
// Air cells are omitted.
func BoilerFootprint(anchor shared.BlockPos, facing shared.Direction) map[shared.BlockPos]Signature {
	cells := make(map[shared.BlockPos]Signature, 27)
	for x := int32(-1); x <= 1; x++ {
		for y := int32(0); y <= 2; y++ {
			for z := int32(0); z <= 2; z++ {
				cells[shared.BlockPos{X: x, Y: y, Z: z}] = MaterialBoilerCasing
			}
		}
	}
	cells[shared.BlockPos{}] = MaterialBoilerController
	delete(cells, shared.BlockPos{X: 0, Y: 1, Z: 1})
	for _, v := range []shared.BlockPos{{X: -1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 2, Z: 1}} {
		cells[v] = MaterialFluidValve
	}

	out := make(map[shared.BlockPos]Signature, len(cells))
	for off, sig := range cells {
		out[anchor.Add(shared.Rotate(off, facing))] = sig
	}
	return out
}
