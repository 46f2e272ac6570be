package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/processing"
)

var _ simulation.MetricsRecorder = (*SimulationMetricsCollector)(nil)

// SimulationMetricsCollector records machine and world tick metrics
type SimulationMetricsCollector struct {
	// Machine metrics
	machineTicksTotal     *prometheus.CounterVec
	haltedTicksTotal      *prometheus.CounterVec
	energyGeneratedTotal  *prometheus.CounterVec
	energyMovedTotal      *prometheus.CounterVec
	fluidMovedTotal       *prometheus.CounterVec
	itemsMovedTotal       *prometheus.CounterVec
	recipesCompletedTotal *prometheus.CounterVec
	processingStallsTotal *prometheus.CounterVec
	byproductsTotal       *prometheus.CounterVec
	steamProducedTotal    *prometheus.CounterVec
	overheatEventsTotal   *prometheus.CounterVec
	machineTemperature    *prometheus.GaugeVec

	// World metrics
	worldMachines       *prometheus.GaugeVec
	stepDurationSeconds *prometheus.HistogramVec
	snapshotsTotal      *prometheus.CounterVec
}

// NewSimulationMetricsCollector creates a new simulation metrics collector
func NewSimulationMetricsCollector() *SimulationMetricsCollector {
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, labels)
	}

	return &SimulationMetricsCollector{
		machineTicksTotal:     counter("machine_ticks_total", "Machine ticks executed", "kind"),
		haltedTicksTotal:      counter("machine_halted_ticks_total", "Ticks stopped by an invalid structure", "kind"),
		energyGeneratedTotal:  counter("energy_generated_total", "Energy produced by generators", "kind"),
		energyMovedTotal:      counter("energy_pushed_total", "Energy pushed to neighbours", "kind"),
		fluidMovedTotal:       counter("fluid_moved_units_total", "Fluid units moved by automation", "kind"),
		itemsMovedTotal:       counter("items_moved_total", "Items moved by automation", "kind"),
		recipesCompletedTotal: counter("recipes_completed_total", "Recipes completed", "kind", "recipe"),
		processingStallsTotal: counter("processing_stalled_ticks_total", "Ticks a finished process waited for output space", "kind"),
		byproductsTotal:       counter("byproducts_total", "Byproducts emitted by generators", "kind"),
		steamProducedTotal:    counter("steam_produced_units_total", "Steam units produced by boilers", "kind"),
		overheatEventsTotal:   counter("overheat_events_total", "Times a machine crossed its overheat threshold", "kind"),

		machineTemperature: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "machine_temperature",
				Help:      "Current machine temperature",
			},
			[]string{"machine", "kind"},
		),

		worldMachines: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "world_machines",
				Help:      "Machines placed in the world",
			},
			[]string{"world"},
		),

		stepDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "step_duration_seconds",
				Help:      "Wall time spent ticking every machine once",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"world"},
		),

		snapshotsTotal: counter("snapshots_total", "Checkpoints written by status", "world", "status"),
	}
}

// Register registers all simulation metrics with the Prometheus registry
func (c *SimulationMetricsCollector) Register() error {
	return register(
		c.machineTicksTotal,
		c.haltedTicksTotal,
		c.energyGeneratedTotal,
		c.energyMovedTotal,
		c.fluidMovedTotal,
		c.itemsMovedTotal,
		c.recipesCompletedTotal,
		c.processingStallsTotal,
		c.byproductsTotal,
		c.steamProducedTotal,
		c.overheatEventsTotal,
		c.machineTemperature,
		c.worldMachines,
		c.stepDurationSeconds,
		c.snapshotsTotal,
	)
}

// RecordMachineTick records one machine tick report
func (c *SimulationMetricsCollector) RecordMachineTick(r machine.Report) {
	kind := string(r.Kind)
	c.machineTicksTotal.WithLabelValues(kind).Inc()
	if r.Halted {
		c.haltedTicksTotal.WithLabelValues(kind).Inc()
		return
	}

	if r.EnergyMoved > 0 {
		c.energyMovedTotal.WithLabelValues(kind).Add(r.EnergyMoved)
	}
	if r.FluidMoved.IsPositive() {
		c.fluidMovedTotal.WithLabelValues(kind).Add(r.FluidMoved.Float64())
	}
	if r.ItemsMoved > 0 {
		c.itemsMovedTotal.WithLabelValues(kind).Add(float64(r.ItemsMoved))
	}

	if g := r.Generator; g != nil {
		if g.Generated > 0 {
			c.energyGeneratedTotal.WithLabelValues(kind).Add(g.Generated)
		}
		if g.Byproduct {
			c.byproductsTotal.WithLabelValues(kind).Inc()
		}
	}
	if p := r.Processing; p != nil {
		switch p.Event {
		case processing.EventCompleted:
			c.recipesCompletedTotal.WithLabelValues(kind, p.RecipeID).Inc()
		case processing.EventStalled:
			c.processingStallsTotal.WithLabelValues(kind).Inc()
		}
	}
	if b := r.Boiler; b != nil && b.SteamProduced.IsPositive() {
		c.steamProducedTotal.WithLabelValues(kind).Add(b.SteamProduced.Float64())
	}
	if t := r.Temperature; t != nil {
		c.machineTemperature.WithLabelValues(r.ID.String(), kind).Set(t.Current)
		if t.CrossedOverheat {
			c.overheatEventsTotal.WithLabelValues(kind).Inc()
		}
	}
}

// RecordStep records the duration of one world tick
func (c *SimulationMetricsCollector) RecordStep(world string, machines int, duration time.Duration) {
	c.worldMachines.WithLabelValues(world).Set(float64(machines))
	c.stepDurationSeconds.WithLabelValues(world).Observe(duration.Seconds())
}

// RecordSnapshot records the outcome of one checkpoint
func (c *SimulationMetricsCollector) RecordSnapshot(world string, _ int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.snapshotsTotal.WithLabelValues(world, status).Inc()
}
