package structure

import (
	"fmt"
	"slices"

	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// Signature identifies the material occupying a grid cell. The empty signature is air.
type Signature string

// Air is the signature of an unoccupied cell
const Air Signature = ""

// Predicate decides whether a material satisfies a structure cell
type Predicate func(Signature) bool

// Is matches any of the listed materials
func Is(materials ...Signature) Predicate {
	return func(s Signature) bool {
		return slices.Contains(materials, s)
	}
}

// IsAir matches an unoccupied cell
func IsAir() Predicate {
	return func(s Signature) bool { return s == Air }
}

// Anything matches every material, including air
func Anything() Predicate {
	return func(Signature) bool { return true }
}

// Cell is one required position of a structure, relative to a north-facing anchor
type Cell struct {
	Offset    shared.BlockPos
	Predicate Predicate
}

// Definition is a declarative multiblock shape
type Definition struct {
	id      string
	cells   []Cell
	derived map[string][]shared.BlockPos
}

// ID returns the structure identifier
func (d *Definition) ID() string { return d.id }

// Cells returns the required cells in check order
func (d *Definition) Cells() []Cell { return slices.Clone(d.cells) }

// DerivedNames returns the names of the derived offset queries, sorted
func (d *Definition) DerivedNames() []string {
	names := make([]string, 0, len(d.derived))
	for name := range d.derived {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Derived returns the offsets of a named query rotated for facing and placed at anchor
func (d *Definition) Derived(name string, anchor shared.BlockPos, facing shared.Direction) []shared.BlockPos {
	offsets := d.derived[name]
	out := make([]shared.BlockPos, 0, len(offsets))
	for _, o := range offsets {
		out = append(out, anchor.Add(shared.Rotate(o, facing)))
	}
	return out
}

// Builder assembles a Definition
type Builder struct {
	def  *Definition
	seen map[shared.BlockPos]struct{}
	err  error
}

// NewBuilder starts a definition with the given id
func NewBuilder(id string) *Builder {
	return &Builder{
		def:  &Definition{id: id, derived: make(map[string][]shared.BlockPos)},
		seen: make(map[shared.BlockPos]struct{}),
	}
}

// Cell requires the material at offset to satisfy p
func (b *Builder) Cell(offset shared.BlockPos, p Predicate) *Builder {
	if b.err != nil {
		return b
	}
	if p == nil {
		b.err = fmt.Errorf("structure %s: cell %s has no predicate", b.def.id, offset)
		return b
	}
	if _, dup := b.seen[offset]; dup {
		b.err = fmt.Errorf("structure %s: cell %s declared twice", b.def.id, offset)
		return b
	}
	b.seen[offset] = struct{}{}
	b.def.cells = append(b.def.cells, Cell{Offset: offset, Predicate: p})
	return b
}

// Box requires every cell of the inclusive box [from, to] to satisfy p, skipping cells already declared
func (b *Builder) Box(from, to shared.BlockPos, p Predicate) *Builder {
	for y := from.Y; y <= to.Y; y++ {
		for z := from.Z; z <= to.Z; z++ {
			for x := from.X; x <= to.X; x++ {
				pos := shared.BlockPos{X: x, Y: y, Z: z}
				if _, dup := b.seen[pos]; dup {
					continue
				}
				b.Cell(pos, p)
			}
		}
	}
	return b
}

// Derived registers a named offset query
func (b *Builder) Derived(name string, offsets ...shared.BlockPos) *Builder {
	b.def.derived[name] = append(b.def.derived[name], offsets...)
	return b
}

// Build returns the definition or the first builder error
func (b *Builder) Build() (*Definition, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.def.cells) == 0 {
		return nil, fmt.Errorf("structure %s: no cells", b.def.id)
	}
	return b.def, nil
}
