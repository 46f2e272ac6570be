package machine

import (
	"github.com/andrescamacho/factorysim-go/internal/domain/boiler"
	"github.com/andrescamacho/factorysim-go/internal/domain/generator"
	"github.com/andrescamacho/factorysim-go/internal/domain/processing"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/structure"
	"github.com/andrescamacho/factorysim-go/internal/domain/thermal"
)

// Report summarises one machine tick
type Report struct {
	ID   ID
	Kind Kind
	Tick shared.Tick
	// Halted is set when an invalid structure stopped the tick after validation
	Halted    bool
	Structure structure.State

	FluidMoved  shared.Amount
	ItemsMoved  int
	EnergyMoved float64

	Generator   *generator.TickResult
	Processing  *processing.TickResult
	Boiler      *boiler.TickResult
	Temperature *thermal.TickResult
}

// tickContext carries state between the stages of one tick
type tickContext struct {
	env    Environment
	report Report
	halted bool
	// heating is raised by the specialisation stage and read by the temperature stage
	heating bool
}

type behavior struct {
	name string
	run  func(m *Machine, tc *tickContext)
}

var (
	structureStage = behavior{name: "structure", run: func(m *Machine, tc *tickContext) {
		state := m.c.structure.Tick(tc.env, m.pos, m.facing)
		tc.report.Structure = state
		if state != structure.StateValid {
			tc.halted = true
			tc.report.Halted = true
			if m.c.engine != nil && m.c.engine.IsActive() {
				m.c.engine.Interrupt()
			}
		}
	}}

	transferStage = behavior{name: "transfer", run: func(m *Machine, tc *tickContext) {
		if m.c.structure != nil {
			m.transferPorts(tc)
			return
		}
		m.transferFaces(tc)
	}}

	generatorStage = behavior{name: "generator", run: func(m *Machine, tc *tickContext) {
		res := m.c.generator.Tick(m.c.energy, m.efficiency(), m.c.items)
		tc.report.Generator = &res
		tc.heating = tc.heating || res.Phase == generator.PhaseGenerating
	}}

	processingStage = behavior{name: "processing", run: func(m *Machine, tc *tickContext) {
		res := m.c.engine.Tick(processing.Workspace{
			Energy:    m.c.energy,
			Items:     m.c.items,
			Fluids:    m.c.fluids,
			FluidTank: m.spec.Processing.FluidTank,
		})
		tc.report.Processing = &res
		switch res.Event {
		case processing.EventStarted, processing.EventProgressed, processing.EventCompleted:
			tc.heating = true
		}
	}}

	boilerStage = behavior{name: "boiler", run: func(m *Machine, tc *tickContext) {
		res := m.c.boiler.Tick(m.c.fluids, m.c.items, m.c.temperature.Current())
		tc.report.Boiler = &res
		tc.heating = tc.heating || res.Heating
	}}

	temperatureStage = behavior{name: "temperature", run: func(m *Machine, tc *tickContext) {
		res := m.c.temperature.Tick(tc.heating)
		tc.report.Temperature = &res
	}}
)

// behaviorsFor selects the ordered stage list for the machine's capability set
func behaviorsFor(c components) []behavior {
	var list []behavior
	if c.structure != nil {
		list = append(list, structureStage)
	}
	if c.sides != nil || c.structure != nil {
		list = append(list, transferStage)
	}
	if c.generator != nil {
		list = append(list, generatorStage)
	}
	if c.engine != nil {
		list = append(list, processingStage)
	}
	if c.boiler != nil {
		list = append(list, boilerStage)
	}
	if c.temperature != nil {
		list = append(list, temperatureStage)
	}
	return list
}

// Stages returns the names of the machine's behaviours in tick order
func (m *Machine) Stages() []string {
	names := make([]string, len(m.behaviors))
	for i, b := range m.behaviors {
		names[i] = b.name
	}
	return names
}
