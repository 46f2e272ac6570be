package inventory

import (
	"fmt"
	"slices"

	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// FieldInventory is the persisted key for the slot list
const FieldInventory = "Inventory"

const (
	fieldSlot  = "Slot"
	fieldID    = "Id"
	fieldCount = "Count"
)

// DefaultMaxStack is the stack limit for items the catalog does not override
const DefaultMaxStack = 64

// Stack is a count of one item kind
type Stack struct {
	Key   shared.ResourceKey
	Count int
}

// NewStack creates a stack
func NewStack(key shared.ResourceKey, count int) Stack {
	return Stack{Key: key, Count: count}
}

// IsEmpty reports whether the stack holds nothing
func (s Stack) IsEmpty() bool {
	return s.Key.IsEmpty() || s.Count <= 0
}

func (s Stack) String() string {
	if s.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%dx%s", s.Count, s.Key)
}

// SlotFilter decides whether key may be placed into an input slot
type SlotFilter func(slot int, key shared.ResourceKey) bool

// MaxStackFunc returns the stack limit for an item kind
type MaxStackFunc func(key shared.ResourceKey) int

// Option customises an Inventory
type Option func(*Inventory)

// WithSlotFilter restricts what external insertion may put into input slots
func WithSlotFilter(filter SlotFilter) Option {
	return func(inv *Inventory) { inv.filter = filter }
}

// WithMaxStack sets the per-kind stack limit
func WithMaxStack(fn MaxStackFunc) Option {
	return func(inv *Inventory) { inv.maxStack = fn }
}

// Inventory is a fixed set of item slots split into input and output roles.
//
// Invariants:
// - a slot never holds more than the kind's stack limit
// - an emptied slot resets to the empty stack
type Inventory struct {
	slots    []Stack
	inputs   []int
	outputs  []int
	filter   SlotFilter
	maxStack MaxStackFunc
}

// New creates an empty inventory of size slots
func New(size int, inputs, outputs []int, opts ...Option) (*Inventory, error) {
	if size < 0 {
		return nil, fmt.Errorf("inventory size cannot be negative")
	}
	for _, s := range append(slices.Clone(inputs), outputs...) {
		if s < 0 || s >= size {
			return nil, fmt.Errorf("slot %d out of range for inventory of size %d", s, size)
		}
	}
	inv := &Inventory{
		slots:   make([]Stack, size),
		inputs:  slices.Clone(inputs),
		outputs: slices.Clone(outputs),
		filter:  func(int, shared.ResourceKey) bool { return true },
		maxStack: func(shared.ResourceKey) int {
			return DefaultMaxStack
		},
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv, nil
}

// Size returns the number of slots
func (inv *Inventory) Size() int { return len(inv.slots) }

// InputSlots returns the input slot indices
func (inv *Inventory) InputSlots() []int { return slices.Clone(inv.inputs) }

// OutputSlots returns the output slot indices
func (inv *Inventory) OutputSlots() []int { return slices.Clone(inv.outputs) }

// Slot returns the stack in slot i
func (inv *Inventory) Slot(i int) (Stack, bool) {
	if i < 0 || i >= len(inv.slots) {
		return Stack{}, false
	}
	return inv.slots[i], true
}

// MaxStack returns the stack limit for key
func (inv *Inventory) MaxStack(key shared.ResourceKey) int {
	if n := inv.maxStack(key); n > 0 {
		return n
	}
	return DefaultMaxStack
}

// Insert places s into input slot i and returns the remainder
func (inv *Inventory) Insert(i int, s Stack) Stack {
	if s.IsEmpty() || !slices.Contains(inv.inputs, i) || !inv.filter(i, s.Key) {
		return s
	}
	return inv.merge(i, s)
}

// Put places s into any slot regardless of role and filter, returning the remainder
func (inv *Inventory) Put(i int, s Stack) Stack {
	if s.IsEmpty() || i < 0 || i >= len(inv.slots) {
		return s
	}
	return inv.merge(i, s)
}

// InsertExternal offers s to the input slots in order and returns the remainder
func (inv *Inventory) InsertExternal(s Stack) Stack {
	for _, i := range inv.inputs {
		if s.IsEmpty() {
			break
		}
		s = inv.Insert(i, s)
	}
	return s
}

// Extract removes up to n items from slot i
func (inv *Inventory) Extract(i int, n int) Stack {
	if i < 0 || i >= len(inv.slots) || n <= 0 || inv.slots[i].IsEmpty() {
		return Stack{}
	}
	taken := min(n, inv.slots[i].Count)
	out := Stack{Key: inv.slots[i].Key, Count: taken}
	inv.slots[i].Count -= taken
	if inv.slots[i].Count <= 0 {
		inv.slots[i] = Stack{}
	}
	return out
}

// ExtractExternal removes up to n items from the first non-empty output slot
func (inv *Inventory) ExtractExternal(n int) Stack {
	for _, i := range inv.outputs {
		if !inv.slots[i].IsEmpty() {
			return inv.Extract(i, n)
		}
	}
	return Stack{}
}

// Fits reports whether every stack could be output together, without mutating
func (inv *Inventory) Fits(stacks ...Stack) bool {
	scratch := inv.clone()
	for _, s := range stacks {
		if !scratch.output(s) {
			return false
		}
	}
	return true
}

// Output places s into the output slots or places nothing.
// Partial stacks of the same kind are topped up first, then empty slots are used.
func (inv *Inventory) Output(s Stack) bool {
	if !inv.Fits(s) {
		return false
	}
	return inv.output(s)
}

// OutputAll places every stack or none of them
func (inv *Inventory) OutputAll(stacks ...Stack) bool {
	if !inv.Fits(stacks...) {
		return false
	}
	for _, s := range stacks {
		inv.output(s)
	}
	return true
}

// InputsEmpty reports whether every input slot is empty
func (inv *Inventory) InputsEmpty() bool {
	for _, i := range inv.inputs {
		if !inv.slots[i].IsEmpty() {
			return false
		}
	}
	return true
}

// CountInputs returns how many items of key sit in the input slots
func (inv *Inventory) CountInputs(key shared.ResourceKey) int {
	total := 0
	for _, i := range inv.inputs {
		if inv.slots[i].Key == key {
			total += inv.slots[i].Count
		}
	}
	return total
}

// ConsumeInputs removes exactly n items of key from the input slots, or nothing
func (inv *Inventory) ConsumeInputs(key shared.ResourceKey, n int) bool {
	if n <= 0 {
		return true
	}
	if inv.CountInputs(key) < n {
		return false
	}
	for _, i := range inv.inputs {
		if inv.slots[i].Key != key {
			continue
		}
		n -= inv.Extract(i, n).Count
		if n == 0 {
			break
		}
	}
	return true
}

func (inv *Inventory) merge(i int, s Stack) Stack {
	cur := inv.slots[i]
	if !cur.IsEmpty() && cur.Key != s.Key {
		return s
	}
	room := inv.MaxStack(s.Key) - max(cur.Count, 0)
	if room <= 0 {
		return s
	}
	moved := min(room, s.Count)
	inv.slots[i] = Stack{Key: s.Key, Count: max(cur.Count, 0) + moved}
	s.Count -= moved
	if s.Count == 0 {
		return Stack{}
	}
	return s
}

func (inv *Inventory) output(s Stack) bool {
	if s.IsEmpty() {
		return true
	}
	for _, i := range inv.outputs {
		if inv.slots[i].Key == s.Key && !inv.slots[i].IsEmpty() {
			s = inv.merge(i, s)
			if s.IsEmpty() {
				return true
			}
		}
	}
	for _, i := range inv.outputs {
		if inv.slots[i].IsEmpty() {
			s = inv.merge(i, s)
			if s.IsEmpty() {
				return true
			}
		}
	}
	return false
}

func (inv *Inventory) clone() *Inventory {
	c := *inv
	c.slots = slices.Clone(inv.slots)
	return &c
}

// Serialize writes the non-empty slots
func (inv *Inventory) Serialize(f shared.Fields) {
	list := make([]shared.Fields, 0, len(inv.slots))
	for i, s := range inv.slots {
		if s.IsEmpty() {
			continue
		}
		entry := shared.NewFields()
		entry.Set(fieldSlot, i)
		entry.Set(fieldID, string(s.Key))
		entry.Set(fieldCount, s.Count)
		list = append(list, entry)
	}
	f.Set(FieldInventory, list)
}

// Deserialize restores slots. Out-of-range slots and malformed entries are dropped.
func (inv *Inventory) Deserialize(f shared.Fields) {
	for i := range inv.slots {
		inv.slots[i] = Stack{}
	}
	for _, entry := range f.List(FieldInventory) {
		i := int(entry.Int(fieldSlot))
		s := Stack{Key: shared.ResourceKey(entry.String(fieldID)), Count: int(entry.Int(fieldCount))}
		if s.IsEmpty() || i < 0 || i >= len(inv.slots) {
			continue
		}
		s.Count = min(s.Count, inv.MaxStack(s.Key))
		inv.slots[i] = s
	}
}

// MoveExternal moves up to limit items from src's output slots into dst's input slots.
// It returns the number of items moved; nothing is created or destroyed.
func MoveExternal(src, dst *Inventory, limit int) int {
	moved := 0
	for _, i := range src.outputs {
		if limit > 0 && moved >= limit {
			break
		}
		s := src.slots[i]
		if s.IsEmpty() {
			continue
		}
		offer := s.Count
		if limit > 0 {
			offer = min(offer, limit-moved)
		}
		rest := dst.InsertExternal(Stack{Key: s.Key, Count: offer})
		n := offer - max(rest.Count, 0)
		if n > 0 {
			src.Extract(i, n)
			moved += n
		}
	}
	return moved
}
