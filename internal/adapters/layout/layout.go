package layout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/fluid"
	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/processing"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/sides"
	"github.com/andrescamacho/factorysim-go/internal/domain/structure"
)

// footprints maps structure names to the materials stamped around their controller
var footprints = map[string]func(shared.BlockPos, shared.Direction) map[shared.BlockPos]structure.Signature{
	"boiler": structure.BoilerFootprint,
}

// Layout is a parsed world description: loose materials, stamped structures and machines
type Layout struct {
	Materials  []MaterialDoc  `yaml:"materials"`
	Structures []StructureDoc `yaml:"structures"`
	Machines   []MachineDoc   `yaml:"machines"`
}

// MaterialDoc places one block
type MaterialDoc struct {
	Material string `yaml:"material"`
	At       pos    `yaml:"at"`
}

// StructureDoc stamps a multiblock footprint around a controller position
type StructureDoc struct {
	Type   string    `yaml:"type"`
	Anchor pos       `yaml:"anchor"`
	Facing direction `yaml:"facing"`
}

// MachineDoc places one machine with optional starting contents
type MachineDoc struct {
	Kind      string         `yaml:"kind"`
	Pos       pos            `yaml:"pos"`
	Facing    direction      `yaml:"facing"`
	Items     []ItemDoc      `yaml:"items"`
	Fluids    []FluidDoc     `yaml:"fluids"`
	Sides     []SideDoc      `yaml:"sides"`
	Enhancers map[string]int `yaml:"enhancers"`
}

// ItemDoc is a starting stack
type ItemDoc struct {
	Key   string `yaml:"key"`
	Count int    `yaml:"count"`
}

// FluidDoc is a starting fluid volume
type FluidDoc struct {
	Key    string `yaml:"key"`
	Amount string `yaml:"amount"`
}

// SideDoc overrides the default transfer mode of one face
type SideDoc struct {
	Direction string `yaml:"direction"`
	Kind      string `yaml:"kind"`
	Mode      string `yaml:"mode"`
}

type pos struct {
	shared.BlockPos
}

func (p *pos) UnmarshalYAML(node *yaml.Node) error {
	var xyz []int32
	if err := node.Decode(&xyz); err != nil || len(xyz) != 3 {
		return fmt.Errorf("line %d: position must be [x, y, z]", node.Line)
	}
	p.BlockPos = shared.BlockPos{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	return nil
}

type direction struct {
	shared.Direction
}

func (d *direction) UnmarshalYAML(node *yaml.Node) error {
	v, err := shared.ParseDirection(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	d.Direction = v
	return nil
}

// Load reads a layout file
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}
	return Parse(data)
}

// Parse decodes a layout document
func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	for i, s := range l.Structures {
		if _, ok := footprints[s.Type]; !ok {
			return nil, shared.NewValidationError("structures", fmt.Sprintf("entry %d: unknown structure %q", i, s.Type))
		}
	}
	for i, m := range l.Machines {
		if m.Kind == "" {
			return nil, shared.NewValidationError("machines", fmt.Sprintf("entry %d: kind is required", i))
		}
	}
	return &l, nil
}

// Apply places the layout into w. Materials go down first so multiblocks validate on their first check.
// It returns the placed machines in layout order.
func (l *Layout) Apply(w *simulation.World, f *machine.Factory) ([]*machine.Machine, error) {
	for _, md := range l.Materials {
		w.SetMaterial(md.At.BlockPos, structure.Signature(md.Material))
	}
	for _, sd := range l.Structures {
		for p, sig := range footprints[sd.Type](sd.Anchor.BlockPos, sd.Facing.Direction) {
			w.SetMaterial(p, sig)
		}
	}

	placed := make([]*machine.Machine, 0, len(l.Machines))
	for i, md := range l.Machines {
		m, err := f.New(machine.Kind(md.Kind), md.Pos.BlockPos, md.Facing.Direction)
		if err != nil {
			return nil, fmt.Errorf("machine %d (%s): %w", i, md.Kind, err)
		}
		if err := md.configure(m); err != nil {
			return nil, fmt.Errorf("machine %d (%s): %w", i, md.Kind, err)
		}
		if err := w.Place(m); err != nil {
			return nil, fmt.Errorf("machine %d (%s): %w", i, md.Kind, err)
		}
		placed = append(placed, m)
	}
	return placed, nil
}

func (md MachineDoc) configure(m *machine.Machine) error {
	for _, s := range md.Sides {
		dir, err := shared.ParseDirection(s.Direction)
		if err != nil {
			return err
		}
		kind, err := sides.ParseKind(s.Kind)
		if err != nil {
			return err
		}
		mode, err := sides.ParseMode(s.Mode)
		if err != nil {
			return err
		}
		if err := m.SetTransferMode(dir, kind, mode); err != nil {
			return err
		}
	}

	for name, count := range md.Enhancers {
		kind, err := processing.ParseEnhancer(name)
		if err != nil {
			return err
		}
		if err := m.InstallEnhancer(kind, count); err != nil {
			return err
		}
	}

	if len(md.Items) > 0 {
		items, ok := m.Items()
		if !ok {
			return shared.NewValidationError("items", "machine has no inventory")
		}
		for _, it := range md.Items {
			if rest := items.InsertExternal(inventory.NewStack(shared.ResourceKey(it.Key), it.Count)); !rest.IsEmpty() {
				return shared.NewValidationError("items", fmt.Sprintf("%d %s do not fit", rest.Count, it.Key))
			}
		}
	}

	if len(md.Fluids) > 0 {
		fluids, ok := m.Fluids()
		if !ok {
			return shared.NewValidationError("fluids", "machine has no tanks")
		}
		for _, fd := range md.Fluids {
			amount, err := shared.ParseAmount(fd.Amount)
			if err != nil {
				return err
			}
			if rest := fluids.InsertExternal(fluid.NewVolume(shared.ResourceKey(fd.Key), amount)); !rest.IsEmpty() {
				return shared.NewValidationError("fluids", fmt.Sprintf("%s of %s does not fit", rest.Amount, fd.Key))
			}
		}
	}
	return nil
}
