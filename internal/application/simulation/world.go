package simulation

import (
	"fmt"
	"slices"

	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/structure"
)

// World is the in-memory grid: placed materials plus the machines ticking on it.
// It is not safe for concurrent use; the Runner owns it while stepping.
type World struct {
	materials map[shared.BlockPos]structure.Signature
	machines  map[shared.BlockPos]*machine.Machine
	byID      map[machine.ID]*machine.Machine
	// order is placement order, which is also tick order
	order []*machine.Machine
}

var _ machine.Environment = (*World)(nil)

// NewWorld creates an empty world
func NewWorld() *World {
	return &World{
		materials: make(map[shared.BlockPos]structure.Signature),
		machines:  make(map[shared.BlockPos]*machine.Machine),
		byID:      make(map[machine.ID]*machine.Machine),
	}
}

// MaterialAt returns the material at pos; empty cells are air
func (w *World) MaterialAt(pos shared.BlockPos) structure.Signature {
	return w.materials[pos]
}

// SetMaterial places or clears (with structure.Air) a material and notifies nearby multiblocks
func (w *World) SetMaterial(pos shared.BlockPos, sig structure.Signature) {
	if sig == structure.Air {
		delete(w.materials, pos)
	} else {
		w.materials[pos] = sig
	}
	w.NotifyStructureDirty(pos)
}

// MachineAt returns the machine at pos. Cells of a valid multiblock resolve to its controller.
func (w *World) MachineAt(pos shared.BlockPos) (*machine.Machine, bool) {
	if m, ok := w.machines[pos]; ok {
		return m, true
	}
	for _, m := range w.order {
		if v, ok := m.Structure(); ok && v.Owns(pos) {
			return m, true
		}
	}
	return nil, false
}

// NotifyStructureDirty forces multiblocks whose bounds contain pos to re-check
func (w *World) NotifyStructureDirty(pos shared.BlockPos) {
	for _, m := range w.order {
		if v, ok := m.Structure(); ok {
			v.NotifyChanged(pos)
		}
	}
}

// Place adds a machine; its position must be free
func (w *World) Place(m *machine.Machine) error {
	if existing, ok := w.machines[m.Pos()]; ok {
		return shared.NewValidationError("position", fmt.Sprintf("%s is occupied by %s", m.Pos(), existing.Kind()))
	}
	if _, ok := w.byID[m.ID()]; ok {
		return shared.NewValidationError("id", fmt.Sprintf("machine %s is already placed", m.ID()))
	}
	w.machines[m.Pos()] = m
	w.byID[m.ID()] = m
	w.order = append(w.order, m)
	w.NotifyStructureDirty(m.Pos())
	return nil
}

// Remove takes a machine out of the world
func (w *World) Remove(id machine.ID) error {
	m, ok := w.byID[id]
	if !ok {
		return shared.NewNotFoundError("machine", id.String())
	}
	delete(w.machines, m.Pos())
	delete(w.byID, id)
	w.order = slices.DeleteFunc(w.order, func(o *machine.Machine) bool { return o == m })
	w.NotifyStructureDirty(m.Pos())
	return nil
}

// Machine looks a machine up by id
func (w *World) Machine(id machine.ID) (*machine.Machine, error) {
	m, ok := w.byID[id]
	if !ok {
		return nil, shared.NewNotFoundError("machine", id.String())
	}
	return m, nil
}

// Machines returns the machines in tick order
func (w *World) Machines() []*machine.Machine {
	return slices.Clone(w.order)
}

// Len returns the number of placed machines
func (w *World) Len() int {
	return len(w.order)
}
