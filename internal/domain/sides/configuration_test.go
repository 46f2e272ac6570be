package sides_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/sides"
)

func furnaceSides() *sides.Configuration {
	return sides.New(
		map[sides.Kind][]sides.Mode{
			sides.Item:   {sides.None, sides.Input, sides.Output, sides.InputOutput},
			sides.Energy: {sides.None, sides.Input},
		},
		map[sides.Kind]sides.Mode{
			sides.Item:   sides.None,
			sides.Energy: sides.Input,
		},
	)
}

func TestConfiguration_DefaultsApplyToEveryFace(t *testing.T) {
	c := furnaceSides()

	for _, d := range shared.AllDirections {
		assert.Equal(t, sides.None, c.ModeFor(d, sides.Item))
		assert.Equal(t, sides.Input, c.ModeFor(d, sides.Energy))
		assert.Equal(t, sides.None, c.ModeFor(d, sides.Fluid), "unhandled kinds are None")
	}
}

func TestConfiguration_SetRejectsInvalidMode(t *testing.T) {
	c := furnaceSides()

	err := c.Set(shared.North, sides.Energy, sides.Output)

	var invalid *sides.ErrInvalidMode
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, sides.Energy, invalid.Kind)
	assert.Equal(t, sides.Input, c.ModeFor(shared.North, sides.Energy))

	err = c.Set(shared.North, sides.Fluid, sides.Input)
	assert.ErrorAs(t, err, &invalid)
}

func TestConfiguration_SetChangesOneFace(t *testing.T) {
	c := furnaceSides()

	require.NoError(t, c.Set(shared.East, sides.Item, sides.InputOutput))

	assert.True(t, c.CanInput(shared.East, sides.Item))
	assert.True(t, c.CanOutput(shared.East, sides.Item))
	assert.False(t, c.CanOutput(shared.West, sides.Item))
}

func TestConfiguration_SerializeRoundTrip(t *testing.T) {
	// Arrange
	c := furnaceSides()
	require.NoError(t, c.Set(shared.Up, sides.Item, sides.Output))
	require.NoError(t, c.Set(shared.Down, sides.Energy, sides.None))
	c.SetAuto(sides.Item, true, false)
	f := shared.NewFields()

	// Act
	c.Serialize(f)
	restored := furnaceSides()
	restored.Deserialize(f)

	// Assert
	assert.Equal(t, sides.Output, restored.ModeFor(shared.Up, sides.Item))
	assert.Equal(t, sides.None, restored.ModeFor(shared.Down, sides.Energy))
	assert.True(t, restored.AutoPush(sides.Item))
	assert.False(t, restored.AutoPull(sides.Item))
	assert.False(t, f.Has(sides.FieldFluidConfig))
}

func TestConfiguration_DeserializeIgnoresInvalidEntries(t *testing.T) {
	c := furnaceSides()
	f := shared.Fields{
		sides.FieldEnergyConfig: map[string]any{"north": "OUTPUT", "south": "bogus", "up": "none"},
	}

	c.Deserialize(f)

	assert.Equal(t, sides.Input, c.ModeFor(shared.North, sides.Energy))
	assert.Equal(t, sides.Input, c.ModeFor(shared.South, sides.Energy))
	assert.Equal(t, sides.None, c.ModeFor(shared.Up, sides.Energy))
}

func TestParseMode(t *testing.T) {
	m, err := sides.ParseMode("input_output")
	require.NoError(t, err)
	assert.Equal(t, sides.InputOutput, m)

	_, err = sides.ParseMode("sideways")
	assert.Error(t, err)
}
