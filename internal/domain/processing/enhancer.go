package processing

import (
	"fmt"
	"strings"

	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// FieldEnhancers is the persisted key for installed enhancers
const FieldEnhancers = "Enhancers"

// Enhancer is an upgrade that modifies a processing machine
type Enhancer string

const (
	// Speed shortens recipe duration and raises energy per tick
	Speed Enhancer = "SPEED"
	// Buffer raises the energy buffer capacity
	Buffer Enhancer = "BUFFER"
)

// ParseEnhancer parses an enhancer name
func ParseEnhancer(s string) (Enhancer, error) {
	e := Enhancer(strings.ToUpper(strings.TrimSpace(s)))
	switch e {
	case Speed, Buffer:
		return e, nil
	}
	return "", shared.NewValidationError("enhancer", fmt.Sprintf("unknown enhancer %q", s))
}

// EnhancerRules are the machine-specific enhancer limits
type EnhancerRules struct {
	// MaxCount caps how many of each enhancer count toward the effect
	MaxCount map[Enhancer]int
	// SpeedStepPercent is the duration reduction per speed enhancer
	SpeedStepPercent int
	// MaxReductionPercent caps the total duration reduction
	MaxReductionPercent int
	// BufferBonus is the energy capacity added per buffer enhancer
	BufferBonus float64
}

// Enhancers is the set of upgrades installed in one machine
type Enhancers struct {
	rules  EnhancerRules
	counts map[Enhancer]int
}

// NewEnhancers creates an empty enhancer set
func NewEnhancers(rules EnhancerRules) *Enhancers {
	return &Enhancers{rules: rules, counts: make(map[Enhancer]int)}
}

// Rules returns the machine limits
func (e *Enhancers) Rules() EnhancerRules { return e.rules }

// Install sets the number of installed enhancers of one kind
func (e *Enhancers) Install(kind Enhancer, count int) error {
	limit, ok := e.rules.MaxCount[kind]
	if !ok {
		return shared.NewValidationError("enhancer", fmt.Sprintf("%s is not accepted by this machine", kind))
	}
	if count < 0 || count > limit {
		return shared.NewValidationError("enhancer", fmt.Sprintf("%s count %d outside 0..%d", kind, count, limit))
	}
	e.counts[kind] = count
	return nil
}

// Count returns the installed enhancers of one kind, capped at the machine limit
func (e *Enhancers) Count(kind Enhancer) int {
	return min(e.counts[kind], e.rules.MaxCount[kind])
}

// Duration applies the speed reduction to a base duration. The result is at least one tick.
func (e *Enhancers) Duration(base int) int {
	reduction := min(e.Count(Speed)*e.rules.SpeedStepPercent, e.rules.MaxReductionPercent)
	d := base - base*reduction/100
	return max(d, 1)
}

// EnergyPerTick scales a base cost by the installed speed enhancers
func (e *Enhancers) EnergyPerTick(base float64) float64 {
	reduction := min(e.Count(Speed)*e.rules.SpeedStepPercent, e.rules.MaxReductionPercent)
	return base * (1 + float64(reduction)/100)
}

// EnergyCapacity adds the buffer enhancer bonus to a base capacity
func (e *Enhancers) EnergyCapacity(base float64) float64 {
	return base + float64(e.Count(Buffer))*e.rules.BufferBonus
}

// Serialize writes installed counts
func (e *Enhancers) Serialize(f shared.Fields) {
	entry := shared.NewFields()
	for kind, n := range e.counts {
		if n > 0 {
			entry.Set(string(kind), n)
		}
	}
	f.Set(FieldEnhancers, entry)
}

// Deserialize restores installed counts, dropping kinds the machine does not accept
func (e *Enhancers) Deserialize(f shared.Fields) {
	e.counts = make(map[Enhancer]int)
	for name := range f.Fields(FieldEnhancers) {
		kind, err := ParseEnhancer(name)
		if err != nil {
			continue
		}
		n := int(f.Fields(FieldEnhancers).Int(name))
		_ = e.Install(kind, min(max(n, 0), e.rules.MaxCount[kind]))
	}
}
