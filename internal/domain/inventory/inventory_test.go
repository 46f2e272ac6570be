package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

const (
	ore   = shared.ResourceKey("iron_ore")
	ingot = shared.ResourceKey("iron_ingot")
	salt  = shared.ResourceKey("salt")
)

func newInventory(t *testing.T, opts ...inventory.Option) *inventory.Inventory {
	t.Helper()
	inv, err := inventory.New(3, []int{0}, []int{1, 2}, opts...)
	require.NoError(t, err)
	return inv
}

func TestNew_RejectsOutOfRangeSlots(t *testing.T) {
	_, err := inventory.New(2, []int{0}, []int{2})

	assert.Error(t, err)
}

func TestInventory_InsertOnlyIntoInputSlots(t *testing.T) {
	inv := newInventory(t)

	rest := inv.Insert(1, inventory.NewStack(ore, 5))
	assert.Equal(t, 5, rest.Count)

	rest = inv.Insert(0, inventory.NewStack(ore, 5))
	assert.True(t, rest.IsEmpty())
	assert.Equal(t, 5, inv.CountInputs(ore))
}

func TestInventory_InsertHonoursSlotFilter(t *testing.T) {
	inv := newInventory(t, inventory.WithSlotFilter(func(_ int, key shared.ResourceKey) bool {
		return key == ore
	}))

	rest := inv.Insert(0, inventory.NewStack(salt, 1))

	assert.Equal(t, 1, rest.Count)
	assert.True(t, inv.InputsEmpty())
}

func TestInventory_InsertClampsToMaxStack(t *testing.T) {
	inv := newInventory(t, inventory.WithMaxStack(func(shared.ResourceKey) int { return 16 }))

	rest := inv.InsertExternal(inventory.NewStack(ore, 20))

	assert.Equal(t, 4, rest.Count)
	s, _ := inv.Slot(0)
	assert.Equal(t, 16, s.Count)
}

func TestInventory_OutputMergesPartialStackFirst(t *testing.T) {
	// Arrange
	inv := newInventory(t)
	inv.Put(2, inventory.NewStack(ingot, 60))

	// Act
	ok := inv.Output(inventory.NewStack(ingot, 10))

	// Assert
	require.True(t, ok)
	first, _ := inv.Slot(1)
	second, _ := inv.Slot(2)
	assert.Equal(t, 64, second.Count)
	assert.Equal(t, inventory.NewStack(ingot, 6), first)
}

func TestInventory_OutputIsAllOrNothing(t *testing.T) {
	// Arrange
	inv := newInventory(t)
	inv.Put(1, inventory.NewStack(salt, 64))
	inv.Put(2, inventory.NewStack(ingot, 60))

	// Act
	ok := inv.Output(inventory.NewStack(ingot, 10))

	// Assert
	assert.False(t, ok)
	s, _ := inv.Slot(2)
	assert.Equal(t, 60, s.Count, "a refused output leaves slots untouched")
}

func TestInventory_FitsDoesNotMutate(t *testing.T) {
	inv := newInventory(t)

	assert.True(t, inv.Fits(inventory.NewStack(ingot, 64), inventory.NewStack(salt, 64)))
	assert.False(t, inv.Fits(inventory.NewStack(ingot, 64), inventory.NewStack(salt, 64), inventory.NewStack(ore, 1)))

	s, _ := inv.Slot(1)
	assert.True(t, s.IsEmpty())
}

func TestInventory_ConsumeInputsIsExact(t *testing.T) {
	inv := newInventory(t)
	inv.Insert(0, inventory.NewStack(ore, 3))

	assert.False(t, inv.ConsumeInputs(ore, 4))
	assert.Equal(t, 3, inv.CountInputs(ore))
	assert.True(t, inv.ConsumeInputs(ore, 3))
	assert.True(t, inv.InputsEmpty())
}

func TestInventory_ExtractExternalDrainsOutputs(t *testing.T) {
	inv := newInventory(t)
	inv.Insert(0, inventory.NewStack(ore, 3))
	inv.Put(2, inventory.NewStack(ingot, 5))

	got := inv.ExtractExternal(2)

	assert.Equal(t, inventory.NewStack(ingot, 2), got)
	assert.Equal(t, 3, inv.CountInputs(ore))
}

func TestInventory_SerializeRoundTrip(t *testing.T) {
	// Arrange
	inv := newInventory(t)
	inv.Insert(0, inventory.NewStack(ore, 7))
	inv.Put(2, inventory.NewStack(ingot, 3))
	f := shared.NewFields()

	// Act
	inv.Serialize(f)
	restored := newInventory(t)
	restored.Deserialize(f)

	// Assert
	for i := 0; i < inv.Size(); i++ {
		want, _ := inv.Slot(i)
		got, _ := restored.Slot(i)
		assert.Equal(t, want, got, "slot %d", i)
	}
}

func TestInventory_DeserializeDropsBadEntries(t *testing.T) {
	inv := newInventory(t)
	f := shared.Fields{inventory.FieldInventory: []any{
		map[string]any{"Slot": 7, "Id": "iron_ore", "Count": 1},
		map[string]any{"Slot": 0, "Id": "", "Count": 1},
		map[string]any{"Slot": 1, "Id": "iron_ingot", "Count": 500},
	}}

	inv.Deserialize(f)

	assert.True(t, inv.InputsEmpty())
	s, _ := inv.Slot(1)
	assert.Equal(t, inventory.DefaultMaxStack, s.Count)
}

func TestMoveExternal_ConservesItems(t *testing.T) {
	// Arrange
	src := newInventory(t)
	dst := newInventory(t, inventory.WithMaxStack(func(shared.ResourceKey) int { return 10 }))
	src.Put(1, inventory.NewStack(ingot, 8))
	src.Put(2, inventory.NewStack(ingot, 8))

	// Act
	moved := inventory.MoveExternal(src, dst, 12)

	// Assert
	assert.Equal(t, 10, moved, "destination slot holds at most 10")
	assert.Equal(t, 10, dst.CountInputs(ingot))
	a, _ := src.Slot(1)
	b, _ := src.Slot(2)
	assert.Equal(t, 6, a.Count+b.Count)
}
