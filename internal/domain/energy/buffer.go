package energy

import (
	"fmt"
	"math"

	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// FieldEnergy is the persisted key for the stored energy
const FieldEnergy = "Energy"

// Buffer is a machine's energy store.
//
// Invariants:
// - 0 <= stored <= capacity
// - stored changes only through Offer, Draw and TryDraw, each clamped to rate and headroom
type Buffer struct {
	capacity  float64
	stored    float64
	maxInput  float64
	maxOutput float64
}

// NewBuffer creates an empty energy buffer with validation
func NewBuffer(capacity, maxInput, maxOutput float64) (*Buffer, error) {
	if capacity < 0 || math.IsNaN(capacity) {
		return nil, fmt.Errorf("energy capacity cannot be negative")
	}
	if maxInput < 0 || math.IsNaN(maxInput) {
		return nil, fmt.Errorf("max input rate cannot be negative")
	}
	if maxOutput < 0 || math.IsNaN(maxOutput) {
		return nil, fmt.Errorf("max output rate cannot be negative")
	}

	return &Buffer{
		capacity:  capacity,
		maxInput:  maxInput,
		maxOutput: maxOutput,
	}, nil
}

// Capacity returns the maximum storable energy
func (b *Buffer) Capacity() float64 { return b.capacity }

// Stored returns the current energy
func (b *Buffer) Stored() float64 { return b.stored }

// MaxInput returns the per-call input rate limit
func (b *Buffer) MaxInput() float64 { return b.maxInput }

// MaxOutput returns the per-call output rate limit
func (b *Buffer) MaxOutput() float64 { return b.maxOutput }

// Headroom returns capacity - stored
func (b *Buffer) Headroom() float64 {
	return b.capacity - b.stored
}

// IsFull checks if the buffer is at capacity
func (b *Buffer) IsFull() bool {
	return b.stored >= b.capacity
}

// IsEmpty checks if the buffer holds no energy
func (b *Buffer) IsEmpty() bool {
	return b.stored <= 0
}

// Offer inserts up to requested energy and returns the accepted amount
func (b *Buffer) Offer(requested float64) float64 {
	if !(requested > 0) {
		return 0
	}
	accepted := math.Min(requested, math.Min(b.maxInput, b.Headroom()))
	if accepted <= 0 {
		return 0
	}
	b.stored = math.Min(b.stored+accepted, b.capacity)
	return accepted
}

// Draw removes up to requested energy and returns the provided amount
func (b *Buffer) Draw(requested float64) float64 {
	if !(requested > 0) {
		return 0
	}
	provided := math.Min(requested, math.Min(b.maxOutput, b.stored))
	if provided <= 0 {
		return 0
	}
	b.stored = math.Max(b.stored-provided, 0)
	return provided
}

// TryDraw removes exactly amount if it can be provided in full, otherwise nothing
func (b *Buffer) TryDraw(amount float64) bool {
	if amount <= 0 {
		return true
	}
	if amount > b.maxOutput || amount > b.stored {
		return false
	}
	b.stored = math.Max(b.stored-amount, 0)
	return true
}

// SetCapacity changes the capacity, clamping the stored energy
func (b *Buffer) SetCapacity(capacity float64) {
	if capacity < 0 || math.IsNaN(capacity) {
		capacity = 0
	}
	b.capacity = capacity
	if b.stored > capacity {
		b.stored = capacity
	}
}

// Serialize writes the buffer state
func (b *Buffer) Serialize(f shared.Fields) {
	f.Set(FieldEnergy, b.stored)
}

// Deserialize restores the buffer state, clamping out-of-range values
func (b *Buffer) Deserialize(f shared.Fields) {
	stored := f.Float(FieldEnergy)
	if stored < 0 {
		stored = 0
	}
	if stored > b.capacity {
		stored = b.capacity
	}
	b.stored = stored
}

func (b *Buffer) String() string {
	return fmt.Sprintf("Energy(%.1f/%.1f)", b.stored, b.capacity)
}
