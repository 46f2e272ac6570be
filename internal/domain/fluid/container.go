package fluid

import (
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// Persisted keys
const (
	FieldTanks      = "Tanks"
	fieldTankIndex  = "Tank"
	fieldTankFluid  = "Fluid"
	fieldTankAmount = "Amount"
)

// Container is an ordered set of tanks owned by one machine
type Container struct {
	tanks []*Tank
}

// NewContainer creates a container over the given tanks
func NewContainer(tanks ...*Tank) *Container {
	return &Container{tanks: tanks}
}

// Len returns the number of tanks
func (c *Container) Len() int { return len(c.tanks) }

// Tank returns tank i
func (c *Container) Tank(i int) (*Tank, bool) {
	if i < 0 || i >= len(c.tanks) {
		return nil, false
	}
	return c.tanks[i], true
}

// Insert offers v to tank i and returns the unaccepted remainder.
// A filter or kind mismatch refuses the whole volume.
func (c *Container) Insert(i int, v Volume) Volume {
	t, ok := c.Tank(i)
	if !ok {
		return v
	}
	return t.insert(v)
}

// Extract removes up to max from tank i and returns what was removed
func (c *Container) Extract(i int, max shared.Amount) Volume {
	t, ok := c.Tank(i)
	if !ok {
		return EmptyVolume
	}
	return t.extract(max)
}

// Use removes exactly v from tank i, or nothing if the tank cannot supply all of it
func (c *Container) Use(i int, v Volume) bool {
	t, ok := c.Tank(i)
	if !ok || v.IsEmpty() {
		return false
	}
	if t.Key() != v.Key || t.Amount().Cmp(v.Amount) < 0 {
		return false
	}
	t.extract(v.Amount)
	return true
}

// InsertExternal offers v to the input-role tanks in order and returns the remainder
func (c *Container) InsertExternal(v Volume) Volume {
	// Prefer a tank already holding the same kind so a second empty tank is not split into.
	for _, t := range c.tanks {
		if t.role&RoleInput != 0 && !t.IsEmpty() && t.Key() == v.Key {
			v = t.insert(v)
			if v.IsEmpty() {
				return v
			}
		}
	}
	for _, t := range c.tanks {
		if t.role&RoleInput != 0 && t.IsEmpty() {
			v = t.insert(v)
			if v.IsEmpty() {
				return v
			}
		}
	}
	return v
}

// AcceptableExternal returns how much of v the input-role tanks would take, without mutating
func (c *Container) AcceptableExternal(v Volume) shared.Amount {
	total := shared.ZeroAmount
	remaining := v
	for _, t := range c.tanks {
		if t.role&RoleInput == 0 || remaining.IsEmpty() {
			continue
		}
		a := t.acceptable(remaining)
		if !a.IsPositive() {
			continue
		}
		total = total.Add(a)
		remaining.Amount = remaining.Amount.Sub(a)
	}
	return total
}

// OutputTanks returns the indices of tanks automation may drain
func (c *Container) OutputTanks() []int {
	var out []int
	for i, t := range c.tanks {
		if t.role&RoleOutput != 0 {
			out = append(out, i)
		}
	}
	return out
}

// IsEmpty reports whether every tank is empty
func (c *Container) IsEmpty() bool {
	for _, t := range c.tanks {
		if !t.IsEmpty() {
			return false
		}
	}
	return true
}

// Total returns the sum of all tank contents
func (c *Container) Total() shared.Amount {
	total := shared.ZeroAmount
	for _, t := range c.tanks {
		total = total.Add(t.Amount())
	}
	return total
}

// Serialize writes every tank
func (c *Container) Serialize(f shared.Fields) {
	list := make([]shared.Fields, 0, len(c.tanks))
	for i, t := range c.tanks {
		entry := shared.NewFields()
		entry.Set(fieldTankIndex, i)
		entry.Set(fieldTankFluid, string(t.Key()))
		entry.SetAmount(fieldTankAmount, t.Amount())
		list = append(list, entry)
	}
	f.Set(FieldTanks, list)
}

// Deserialize restores tank contents. Unknown indices and filtered kinds are dropped.
func (c *Container) Deserialize(f shared.Fields) {
	for _, t := range c.tanks {
		t.content = EmptyVolume
	}
	for _, entry := range f.List(FieldTanks) {
		t, ok := c.Tank(int(entry.Int(fieldTankIndex)))
		if !ok {
			continue
		}
		amount := entry.Amount(fieldTankAmount)
		if !amount.IsPositive() {
			continue
		}
		t.restore(Volume{Key: shared.ResourceKey(entry.String(fieldTankFluid)), Amount: amount})
	}
}
