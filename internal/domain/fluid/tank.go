package fluid

import (
	"fmt"

	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// Volume is a quantity of one fluid kind
type Volume struct {
	Key    shared.ResourceKey
	Amount shared.Amount
}

// EmptyVolume is the unset volume
var EmptyVolume = Volume{}

// NewVolume creates a volume of key
func NewVolume(key shared.ResourceKey, amount shared.Amount) Volume {
	return Volume{Key: key, Amount: amount}
}

// IsEmpty reports whether the volume carries no fluid
func (v Volume) IsEmpty() bool {
	return v.Key.IsEmpty() || !v.Amount.IsPositive()
}

func (v Volume) String() string {
	if v.IsEmpty() {
		return "Volume(empty)"
	}
	return fmt.Sprintf("Volume(%s %s)", v.Key, v.Amount)
}

// Filter decides which fluid kinds a tank accepts
type Filter func(key shared.ResourceKey) bool

// AnyFluid accepts every fluid kind
func AnyFluid(shared.ResourceKey) bool { return true }

// Only accepts the listed fluid kinds
func Only(keys ...shared.ResourceKey) Filter {
	set := make(map[shared.ResourceKey]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return func(key shared.ResourceKey) bool {
		_, ok := set[key]
		return ok
	}
}

// Role marks which side of automation may touch a tank
type Role uint8

const (
	// RoleInternal tanks are only touched by the owning machine
	RoleInternal Role = 0
	// RoleInput tanks accept fluid from outside
	RoleInput Role = 1
	// RoleOutput tanks give fluid to the outside
	RoleOutput Role = 2
)

// RoleInputOutput allows both directions
const RoleInputOutput = RoleInput | RoleOutput

func (r Role) String() string {
	switch r {
	case RoleInternal:
		return "internal"
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	case RoleInputOutput:
		return "input_output"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Tank is a single fluid slot.
//
// Invariants:
// - 0 <= content.Amount <= capacity
// - a non-empty tank holds a key its filter accepts
type Tank struct {
	content  Volume
	capacity shared.Amount
	filter   Filter
	role     Role
}

// NewTank creates an empty tank
func NewTank(capacity shared.Amount, filter Filter, role Role) (*Tank, error) {
	if capacity.IsNegative() || capacity.IsOverflow() {
		return nil, fmt.Errorf("tank capacity must be a non-negative amount")
	}
	if filter == nil {
		filter = AnyFluid
	}
	return &Tank{capacity: capacity, filter: filter, role: role}, nil
}

// Content returns the stored volume
func (t *Tank) Content() Volume { return t.content }

// Amount returns the stored amount
func (t *Tank) Amount() shared.Amount { return t.content.Amount }

// Key returns the stored fluid kind, or EmptyKey
func (t *Tank) Key() shared.ResourceKey { return t.content.Key }

// Capacity returns the tank capacity
func (t *Tank) Capacity() shared.Amount { return t.capacity }

// Headroom returns capacity - amount
func (t *Tank) Headroom() shared.Amount {
	return t.capacity.Sub(t.content.Amount)
}

// Role returns the automation role
func (t *Tank) Role() Role { return t.role }

// IsEmpty reports whether the tank holds no fluid
func (t *Tank) IsEmpty() bool { return t.content.IsEmpty() }

// IsFull reports whether the tank is at capacity
func (t *Tank) IsFull() bool {
	return t.content.Amount.Cmp(t.capacity) >= 0
}

// Accepts reports whether key may enter the tank right now
func (t *Tank) Accepts(key shared.ResourceKey) bool {
	if key.IsEmpty() || !t.filter(key) {
		return false
	}
	return t.content.Key.IsEmpty() || t.content.Key == key
}

// acceptable returns how much of v the tank would take
func (t *Tank) acceptable(v Volume) shared.Amount {
	if v.IsEmpty() || !t.Accepts(v.Key) {
		return shared.ZeroAmount
	}
	return v.Amount.CoerceAtMost(t.Headroom())
}

func (t *Tank) insert(v Volume) Volume {
	accepted := t.acceptable(v)
	if !accepted.IsPositive() || accepted.IsOverflow() {
		return v
	}
	sum := t.content.Amount.Add(accepted)
	if sum.IsOverflow() {
		return v
	}
	t.content = Volume{Key: v.Key, Amount: sum}
	return Volume{Key: v.Key, Amount: v.Amount.Sub(accepted)}
}

func (t *Tank) extract(max shared.Amount) Volume {
	if t.IsEmpty() || !max.IsPositive() {
		return EmptyVolume
	}
	removed := max.CoerceAtMost(t.content.Amount)
	out := Volume{Key: t.content.Key, Amount: removed}
	left := t.content.Amount.Sub(removed)
	if left.IsPositive() {
		t.content.Amount = left
	} else {
		t.content = EmptyVolume
	}
	return out
}

func (t *Tank) restore(v Volume) {
	if v.IsEmpty() || !t.filter(v.Key) {
		t.content = EmptyVolume
		return
	}
	t.content = Volume{Key: v.Key, Amount: v.Amount.CoerceAtMost(t.capacity)}
}
