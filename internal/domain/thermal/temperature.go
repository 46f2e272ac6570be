package thermal

import (
	"fmt"
	"math"

	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// FieldTemperature is the persisted key for the current temperature
const FieldTemperature = "Temperature"

// defaultCeilingFactor places the hard ceiling above the overheat threshold when none is configured
const defaultCeilingFactor = 1.25

// Range is an inclusive temperature band
type Range struct {
	Lo float64
	Hi float64
}

// Contains reports whether t lies in the band
func (r Range) Contains(t float64) bool {
	return t >= r.Lo && t <= r.Hi
}

// Status classifies the current temperature
type Status string

const (
	StatusCold        Status = "COLD"
	StatusOptimal     Status = "OPTIMAL"
	StatusWarm        Status = "WARM"
	StatusOverheating Status = "OVERHEATING"
)

// TickResult reports the outcome of one temperature update
type TickResult struct {
	Current float64
	Status  Status
	// CrossedOverheat is true only on the tick the threshold was first reached
	CrossedOverheat bool
}

// Model is a machine's heat state.
//
// Invariants:
// - current moves by at most driftRate per tick
// - ambient <= current <= ceiling
type Model struct {
	current   float64
	driftRate float64
	optimal   Range
	overheat  float64
	ceiling   float64
	ambient   float64
}

// Option customises a Model
type Option func(*Model)

// WithCeiling sets the hard ceiling
func WithCeiling(ceiling float64) Option {
	return func(m *Model) { m.ceiling = ceiling }
}

// WithAmbient sets the floor temperature and the starting temperature
func WithAmbient(ambient float64) Option {
	return func(m *Model) {
		m.ambient = ambient
		m.current = ambient
	}
}

// NewModel creates a temperature model at ambient
func NewModel(driftRate float64, optimal Range, overheat float64, opts ...Option) (*Model, error) {
	if driftRate <= 0 || math.IsNaN(driftRate) {
		return nil, fmt.Errorf("drift rate must be positive")
	}
	if optimal.Lo > optimal.Hi {
		return nil, fmt.Errorf("optimal range %v..%v is inverted", optimal.Lo, optimal.Hi)
	}
	if overheat < optimal.Hi {
		return nil, fmt.Errorf("overheat threshold %v is below the optimal range", overheat)
	}

	m := &Model{
		driftRate: driftRate,
		optimal:   optimal,
		overheat:  overheat,
		ceiling:   overheat * defaultCeilingFactor,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.ceiling < m.overheat {
		m.ceiling = m.overheat
	}
	return m, nil
}

// Current returns the current temperature
func (m *Model) Current() float64 { return m.current }

// Optimal returns the full-efficiency band
func (m *Model) Optimal() Range { return m.optimal }

// OverheatThreshold returns the hazard threshold
func (m *Model) OverheatThreshold() float64 { return m.overheat }

// Ceiling returns the hard maximum
func (m *Model) Ceiling() float64 { return m.ceiling }

// Tick moves the temperature one step toward heating or ambient
func (m *Model) Tick(heating bool) TickResult {
	wasOverheating := m.IsOverheating()
	if heating {
		m.current = math.Min(m.current+m.driftRate, m.ceiling)
	} else {
		m.current = math.Max(m.current-m.driftRate, m.ambient)
	}
	return TickResult{
		Current:         m.current,
		Status:          m.Status(),
		CrossedOverheat: !wasOverheating && m.IsOverheating(),
	}
}

// Status classifies the current temperature
func (m *Model) Status() Status {
	switch {
	case m.IsOverheating():
		return StatusOverheating
	case m.optimal.Contains(m.current):
		return StatusOptimal
	case m.current < m.optimal.Lo:
		return StatusCold
	}
	return StatusWarm
}

// IsOverheating reports whether the hazard threshold has been reached
func (m *Model) IsOverheating() bool {
	return m.current >= m.overheat
}

// IsFullEfficiency reports whether the temperature lies in the optimal band
func (m *Model) IsFullEfficiency() bool {
	return m.optimal.Contains(m.current)
}

// EfficiencyModifier returns boost inside the optimal band and 1.0 outside
func (m *Model) EfficiencyModifier(boost float64) float64 {
	if m.IsFullEfficiency() {
		return boost
	}
	return 1.0
}

// Serialize writes the temperature
func (m *Model) Serialize(f shared.Fields) {
	f.Set(FieldTemperature, m.current)
}

// Deserialize restores the temperature clamped to [ambient, ceiling]
func (m *Model) Deserialize(f shared.Fields) {
	t := f.Float(FieldTemperature)
	m.current = math.Min(math.Max(t, m.ambient), m.ceiling)
}

func (m *Model) String() string {
	return fmt.Sprintf("Temperature(%.1f %s)", m.current, m.Status())
}
