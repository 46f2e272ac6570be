package sides

import (
	"fmt"
	"slices"
	"strings"

	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// Kind is the resource kind a side rule applies to
type Kind string

const (
	Item   Kind = "ITEM"
	Fluid  Kind = "FLUID"
	Energy Kind = "ENERGY"
)

// AllKinds lists the resource kinds in persistence order
var AllKinds = []Kind{Item, Fluid, Energy}

// ParseKind parses a resource kind name
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if slices.Contains(AllKinds, k) {
		return k, nil
	}
	return "", shared.NewValidationError("kind", fmt.Sprintf("unknown resource kind %q", s))
}

// Mode is the transfer permission on one face for one resource kind
type Mode string

const (
	None        Mode = "NONE"
	Input       Mode = "INPUT"
	Output      Mode = "OUTPUT"
	InputOutput Mode = "INPUT_OUTPUT"
)

// AllowsInput reports whether the mode lets resources in
func (m Mode) AllowsInput() bool {
	return m == Input || m == InputOutput
}

// AllowsOutput reports whether the mode lets resources out
func (m Mode) AllowsOutput() bool {
	return m == Output || m == InputOutput
}

// ParseMode parses a mode name
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case None, Input, Output, InputOutput:
		return m, nil
	}
	return None, shared.NewValidationError("mode", fmt.Sprintf("unknown transfer mode %q", s))
}

// ErrInvalidMode indicates a mode the machine does not support for a kind
type ErrInvalidMode struct {
	Kind Kind
	Mode Mode
}

func (e *ErrInvalidMode) Error() string {
	return fmt.Sprintf("transfer mode %s is not valid for %s on this machine", e.Mode, e.Kind)
}

// Persisted keys
const (
	FieldItemConfig   = "ItemConfig"
	FieldFluidConfig  = "FluidConfig"
	FieldEnergyConfig = "EnergyConfig"
	FieldAutoPush     = "AutoPush"
	FieldAutoPull     = "AutoPull"
)

func fieldFor(kind Kind) string {
	switch kind {
	case Item:
		return FieldItemConfig
	case Fluid:
		return FieldFluidConfig
	}
	return FieldEnergyConfig
}

// Configuration is the per-direction, per-kind transfer table of one machine.
//
// Invariants:
// - every stored mode is one of the machine's valid modes for that kind
// - kinds the machine does not handle are always None
type Configuration struct {
	valid    map[Kind][]Mode
	modes    map[Kind]*[6]Mode
	autoPush map[Kind]bool
	autoPull map[Kind]bool
}

// New creates a configuration where every face starts at the kind's default.
// Kinds absent from valid are not handled by the machine.
func New(valid map[Kind][]Mode, defaults map[Kind]Mode) *Configuration {
	c := &Configuration{
		valid:    make(map[Kind][]Mode, len(valid)),
		modes:    make(map[Kind]*[6]Mode, len(valid)),
		autoPush: make(map[Kind]bool),
		autoPull: make(map[Kind]bool),
	}
	for kind, modes := range valid {
		c.valid[kind] = slices.Clone(modes)
		table := &[6]Mode{}
		def := defaults[kind]
		if !slices.Contains(modes, def) {
			def = None
		}
		for i := range table {
			table[i] = def
		}
		c.modes[kind] = table
	}
	return c
}

// Handles reports whether the machine exposes the kind at all
func (c *Configuration) Handles(kind Kind) bool {
	_, ok := c.modes[kind]
	return ok
}

// ValidModes returns the modes the machine accepts for kind
func (c *Configuration) ValidModes(kind Kind) []Mode {
	return slices.Clone(c.valid[kind])
}

// ModeFor returns the transfer mode on face dir for kind
func (c *Configuration) ModeFor(dir shared.Direction, kind Kind) Mode {
	table, ok := c.modes[kind]
	if !ok || int(dir) >= len(table) {
		return None
	}
	return table[dir]
}

// CanInput reports whether kind may enter through dir
func (c *Configuration) CanInput(dir shared.Direction, kind Kind) bool {
	return c.ModeFor(dir, kind).AllowsInput()
}

// CanOutput reports whether kind may leave through dir
func (c *Configuration) CanOutput(dir shared.Direction, kind Kind) bool {
	return c.ModeFor(dir, kind).AllowsOutput()
}

// Set changes the mode on one face
func (c *Configuration) Set(dir shared.Direction, kind Kind, mode Mode) error {
	table, ok := c.modes[kind]
	if !ok || !slices.Contains(c.valid[kind], mode) {
		return &ErrInvalidMode{Kind: kind, Mode: mode}
	}
	if int(dir) >= len(table) {
		return shared.NewValidationError("direction", fmt.Sprintf("unknown direction %d", dir))
	}
	table[dir] = mode
	return nil
}

// AutoPush reports whether the machine pushes kind to neighbours each tick
func (c *Configuration) AutoPush(kind Kind) bool { return c.autoPush[kind] }

// AutoPull reports whether the machine pulls kind from neighbours each tick
func (c *Configuration) AutoPull(kind Kind) bool { return c.autoPull[kind] }

// SetAuto toggles automatic pushing and pulling for kind
func (c *Configuration) SetAuto(kind Kind, push, pull bool) {
	c.autoPush[kind] = push
	c.autoPull[kind] = pull
}

// Serialize writes every handled kind as direction -> mode
func (c *Configuration) Serialize(f shared.Fields) {
	push := shared.NewFields()
	pull := shared.NewFields()
	for _, kind := range AllKinds {
		table, ok := c.modes[kind]
		if !ok {
			continue
		}
		entry := shared.NewFields()
		for _, dir := range shared.AllDirections {
			entry.Set(dir.String(), string(table[dir]))
		}
		f.Set(fieldFor(kind), entry)
		push.Set(string(kind), c.autoPush[kind])
		pull.Set(string(kind), c.autoPull[kind])
	}
	f.Set(FieldAutoPush, push)
	f.Set(FieldAutoPull, pull)
}

// Deserialize restores modes; unknown or invalid entries keep the current value
func (c *Configuration) Deserialize(f shared.Fields) {
	push := f.Fields(FieldAutoPush)
	pull := f.Fields(FieldAutoPull)
	for _, kind := range AllKinds {
		if !c.Handles(kind) {
			continue
		}
		entry := f.Fields(fieldFor(kind))
		for _, dir := range shared.AllDirections {
			mode, err := ParseMode(entry.String(dir.String()))
			if err != nil {
				continue
			}
			_ = c.Set(dir, kind, mode)
		}
		c.autoPush[kind] = push.Bool(string(kind))
		c.autoPull[kind] = pull.Bool(string(kind))
	}
}
