package thermal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/thermal"
)

func newModel(t *testing.T, opts ...thermal.Option) *thermal.Model {
	t.Helper()
	m, err := thermal.NewModel(10, thermal.Range{Lo: 30, Hi: 50}, 80, opts...)
	require.NoError(t, err)
	return m
}

func TestNewModel_Validation(t *testing.T) {
	_, err := thermal.NewModel(0, thermal.Range{Lo: 1, Hi: 2}, 3)
	assert.Error(t, err)

	_, err = thermal.NewModel(1, thermal.Range{Lo: 5, Hi: 2}, 10)
	assert.Error(t, err)

	_, err = thermal.NewModel(1, thermal.Range{Lo: 1, Hi: 20}, 10)
	assert.Error(t, err)
}

func TestModel_HeatingWalksThroughStatuses(t *testing.T) {
	m := newModel(t)

	var statuses []thermal.Status
	for i := 0; i < 9; i++ {
		statuses = append(statuses, m.Tick(true).Status)
	}

	assert.Equal(t, []thermal.Status{
		thermal.StatusCold, thermal.StatusCold,
		thermal.StatusOptimal, thermal.StatusOptimal, thermal.StatusOptimal,
		thermal.StatusWarm, thermal.StatusWarm,
		thermal.StatusOverheating, thermal.StatusOverheating,
	}, statuses)
}

func TestModel_CrossedOverheatReportedOnce(t *testing.T) {
	m := newModel(t)

	crossings := 0
	for i := 0; i < 20; i++ {
		if m.Tick(true).CrossedOverheat {
			crossings++
		}
	}

	assert.Equal(t, 1, crossings)
}

func TestModel_ClampsToCeilingAndAmbient(t *testing.T) {
	m := newModel(t, thermal.WithAmbient(5))

	for i := 0; i < 100; i++ {
		m.Tick(true)
	}
	assert.Equal(t, 100.0, m.Current(), "default ceiling is overheat * 1.25")

	for i := 0; i < 100; i++ {
		m.Tick(false)
	}
	assert.Equal(t, 5.0, m.Current())
}

func TestModel_DriftIsBoundedPerTick(t *testing.T) {
	m := newModel(t, thermal.WithCeiling(95))

	prev := m.Current()
	for i := 0; i < 50; i++ {
		m.Tick(i%7 < 4)
		assert.LessOrEqual(t, abs(m.Current()-prev), 10.0)
		prev = m.Current()
	}
}

func TestModel_EfficiencyModifier(t *testing.T) {
	m := newModel(t)
	assert.Equal(t, 1.0, m.EfficiencyModifier(1.5))

	m.Tick(true)
	m.Tick(true)
	m.Tick(true)

	assert.True(t, m.IsFullEfficiency())
	assert.Equal(t, 1.5, m.EfficiencyModifier(1.5))
}

func TestModel_DeserializeClamps(t *testing.T) {
	m := newModel(t)

	m.Deserialize(shared.Fields{thermal.FieldTemperature: 5000.0})
	assert.Equal(t, m.Ceiling(), m.Current())

	m.Deserialize(shared.Fields{thermal.FieldTemperature: -3.0})
	assert.Equal(t, 0.0, m.Current())

	m.Deserialize(shared.Fields{})
	assert.Equal(t, 0.0, m.Current())
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
