package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/factorysim-go/internal/application/mediator"
	"github.com/andrescamacho/factorysim-go/internal/domain/generator"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/processing"
	"github.com/andrescamacho/factorysim-go/internal/domain/thermal"
)

func TestSimulationMetrics_RecordMachineTick(t *testing.T) {
	// Arrange
	c := NewSimulationMetricsCollector()
	id := machine.NewID()

	// Act
	c.RecordMachineTick(machine.Report{
		ID:          id,
		Kind:        machine.KindCoalGenerator,
		Generator:   &generator.TickResult{Generated: 8, Byproduct: true},
		EnergyMoved: 4,
		Temperature: &thermal.TickResult{Current: 75, CrossedOverheat: true},
	})
	c.RecordMachineTick(machine.Report{
		Kind:       machine.KindElectricFurnace,
		Processing: &processing.TickResult{Event: processing.EventCompleted, RecipeID: "iron_ingot"},
	})
	c.RecordMachineTick(machine.Report{Kind: machine.KindBoiler, Halted: true})

	// Assert
	assert.Equal(t, 8.0, testutil.ToFloat64(c.energyGeneratedTotal.WithLabelValues("coal_generator")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.byproductsTotal.WithLabelValues("coal_generator")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.energyMovedTotal.WithLabelValues("coal_generator")))
	assert.Equal(t, 75.0, testutil.ToFloat64(c.machineTemperature.WithLabelValues(id.String(), "coal_generator")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.overheatEventsTotal.WithLabelValues("coal_generator")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.recipesCompletedTotal.WithLabelValues("electric_furnace", "iron_ingot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.haltedTicksTotal.WithLabelValues("boiler")))
	assert.Equal(t, 3, testutil.CollectAndCount(c.machineTicksTotal))
}

func TestSimulationMetrics_RecordStepAndSnapshot(t *testing.T) {
	c := NewSimulationMetricsCollector()

	c.RecordStep("main", 4, 2*time.Millisecond)
	c.RecordSnapshot("main", 4, nil)
	c.RecordSnapshot("main", 4, errors.New("down"))

	assert.Equal(t, 4.0, testutil.ToFloat64(c.worldMachines.WithLabelValues("main")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.snapshotsTotal.WithLabelValues("main", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.snapshotsTotal.WithLabelValues("main", "error")))
}

func TestRegister_NoopWhileDisabled(t *testing.T) {
	Registry = nil
	assert.NoError(t, NewSimulationMetricsCollector().Register())
	assert.False(t, IsEnabled())

	InitRegistry()
	t.Cleanup(func() { Registry = nil })
	require.NoError(t, NewSimulationMetricsCollector().Register())
	require.NoError(t, NewCommandMetricsCollector().Register())
	assert.True(t, IsEnabled())
}

type pingCommand struct{}

type pingHandler struct{ err error }

func (h pingHandler) Handle(context.Context, mediator.Request) (mediator.Response, error) {
	return "pong", h.err
}

func TestPrometheusMiddleware_RecordsOutcome(t *testing.T) {
	collector := NewCommandMetricsCollector()
	m := mediator.NewMediator()
	m.Use(PrometheusMiddleware(collector))
	require.NoError(t, mediator.RegisterHandler[*pingCommand](m, pingHandler{}))

	resp, err := m.Send(context.Background(), &pingCommand{})

	require.NoError(t, err)
	assert.Equal(t, "pong", resp)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.commandsTotal.WithLabelValues("pingCommand", "success")))
}
