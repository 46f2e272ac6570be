package structure

import (
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// FieldStructure is the persisted key for the last validation state
const FieldStructure = "Structure"

// DefaultCheckInterval is the number of ticks between scheduled checks
const DefaultCheckInterval = 20

// MaterialSource answers material queries for grid positions
type MaterialSource interface {
	MaterialAt(pos shared.BlockPos) Signature
}

// State is the validator's cached result
type State string

const (
	StateUnchecked State = "UNCHECKED"
	StateValid     State = "VALID"
	StateInvalid   State = "INVALID"
)

// Validator checks a Definition around an anchor on a fixed cadence.
//
// Derived ports are only exposed while the last check was Valid.
type Validator struct {
	def      *Definition
	interval uint32
	wait     uint32
	state    State
	dirty    bool

	placed   bool
	anchor   shared.BlockPos
	facing   shared.Direction
	min, max shared.BlockPos
	cells    map[shared.BlockPos]struct{}
	ports    map[string][]shared.BlockPos
	failedAt *shared.BlockPos
}

// NewValidator creates an unchecked validator. A zero interval checks every tick.
func NewValidator(def *Definition, interval uint32) *Validator {
	return &Validator{def: def, interval: interval, state: StateUnchecked}
}

// Definition returns the validated shape
func (v *Validator) Definition() *Definition { return v.def }

// State returns the last validation result
func (v *Validator) State() State { return v.state }

// IsValid reports whether the last check passed
func (v *Validator) IsValid() bool { return v.state == StateValid }

// FailedAt returns the first cell that failed the last check
func (v *Validator) FailedAt() (shared.BlockPos, bool) {
	if v.failedAt == nil {
		return shared.BlockPos{}, false
	}
	return *v.failedAt, true
}

// Tick re-checks the structure when a check is due and returns the current state
func (v *Validator) Tick(env MaterialSource, anchor shared.BlockPos, facing shared.Direction) State {
	moved := !v.placed || anchor != v.anchor || facing != v.facing
	if moved {
		v.place(anchor, facing)
	}
	if moved || v.dirty || v.state == StateUnchecked || v.wait == 0 {
		v.check(env)
		v.wait = v.interval
		v.dirty = false
		return v.state
	}
	v.wait--
	return v.state
}

// NotifyChanged forces a check on the next tick when pos lies inside the structure bounds
func (v *Validator) NotifyChanged(pos shared.BlockPos) {
	if v.Contains(pos) {
		v.dirty = true
	}
}

// Contains reports whether pos lies inside the structure's bounding box
func (v *Validator) Contains(pos shared.BlockPos) bool {
	if !v.placed {
		return false
	}
	return pos.X >= v.min.X && pos.X <= v.max.X &&
		pos.Y >= v.min.Y && pos.Y <= v.max.Y &&
		pos.Z >= v.min.Z && pos.Z <= v.max.Z
}

// Owns reports whether pos is a cell of this structure while it is valid
func (v *Validator) Owns(pos shared.BlockPos) bool {
	if v.state != StateValid {
		return false
	}
	_, ok := v.cells[pos]
	return ok
}

// Ports returns the cached positions of a derived query, or nil unless Valid
func (v *Validator) Ports(name string) []shared.BlockPos {
	if v.state != StateValid {
		return nil
	}
	return v.ports[name]
}

func (v *Validator) place(anchor shared.BlockPos, facing shared.Direction) {
	v.placed = true
	v.anchor = anchor
	v.facing = facing
	v.cells = make(map[shared.BlockPos]struct{}, len(v.def.cells))
	for i, c := range v.def.cells {
		pos := anchor.Add(shared.Rotate(c.Offset, facing))
		v.cells[pos] = struct{}{}
		if i == 0 {
			v.min, v.max = pos, pos
			continue
		}
		v.min = shared.BlockPos{X: min(v.min.X, pos.X), Y: min(v.min.Y, pos.Y), Z: min(v.min.Z, pos.Z)}
		v.max = shared.BlockPos{X: max(v.max.X, pos.X), Y: max(v.max.Y, pos.Y), Z: max(v.max.Z, pos.Z)}
	}
}

func (v *Validator) check(env MaterialSource) {
	v.ports = nil
	v.failedAt = nil
	for _, c := range v.def.cells {
		pos := v.anchor.Add(shared.Rotate(c.Offset, v.facing))
		if !c.Predicate(env.MaterialAt(pos)) {
			v.state = StateInvalid
			v.failedAt = &pos
			return
		}
	}
	v.state = StateValid
	v.ports = make(map[string][]shared.BlockPos, len(v.def.derived))
	for name := range v.def.derived {
		v.ports[name] = v.def.Derived(name, v.anchor, v.facing)
	}
}

// Serialize writes the last state for diagnostics
func (v *Validator) Serialize(f shared.Fields) {
	f.Set(FieldStructure, string(v.state))
}

// Deserialize ignores the stored state; a loaded structure is always re-checked
func (v *Validator) Deserialize(shared.Fields) {
	v.state = StateUnchecked
	v.ports = nil
	v.failedAt = nil
}
