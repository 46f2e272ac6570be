package queries

import (
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/sides"
)

// MachineView is a read-only projection of one machine, shaped for JSON and terminal output
type MachineView struct {
	ID          string              `json:"id"`
	Kind        string              `json:"kind"`
	Pos         shared.BlockPos     `json:"pos"`
	Facing      string              `json:"facing"`
	Ticks       uint64              `json:"ticks"`
	Operational bool                `json:"operational"`
	Energy      *EnergyView         `json:"energy,omitempty"`
	Tanks       []TankView          `json:"tanks,omitempty"`
	Slots       []SlotView          `json:"slots,omitempty"`
	Temperature *TemperatureView    `json:"temperature,omitempty"`
	Processing  *ProcessingView     `json:"processing,omitempty"`
	Generator   *GeneratorView      `json:"generator,omitempty"`
	Structure   string              `json:"structure,omitempty"`
	Sides       map[string][]string `json:"sides,omitempty"`
}

type EnergyView struct {
	Stored   float64 `json:"stored"`
	Capacity float64 `json:"capacity"`
}

type TankView struct {
	Index    int    `json:"index"`
	Fluid    string `json:"fluid,omitempty"`
	Amount   string `json:"amount"`
	Capacity string `json:"capacity"`
	Role     string `json:"role"`
}

type SlotView struct {
	Index int    `json:"index"`
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type TemperatureView struct {
	Current float64 `json:"current"`
	Status  string  `json:"status"`
}

type ProcessingView struct {
	Phase    string         `json:"phase"`
	Recipe   string         `json:"recipe,omitempty"`
	Progress int            `json:"progress"`
	Total    int            `json:"total"`
	Enhancer map[string]int `json:"enhancers,omitempty"`
}

type GeneratorView struct {
	Phase       string `json:"phase"`
	BurnTime    int    `json:"burn_time"`
	MaxBurnTime int    `json:"max_burn_time"`
}

// NewMachineView projects m
func NewMachineView(m *machine.Machine) *MachineView {
	v := &MachineView{
		ID:          m.ID().String(),
		Kind:        string(m.Kind()),
		Pos:         m.Pos(),
		Facing:      m.Facing().String(),
		Ticks:       uint64(m.Ticks()),
		Operational: m.Operational(),
	}

	if buf, ok := m.Energy(); ok {
		v.Energy = &EnergyView{Stored: buf.Stored(), Capacity: buf.Capacity()}
	}
	if tanks, ok := m.Fluids(); ok {
		for i := 0; i < tanks.Len(); i++ {
			t, _ := tanks.Tank(i)
			v.Tanks = append(v.Tanks, TankView{
				Index:    i,
				Fluid:    string(t.Key()),
				Amount:   t.Amount().String(),
				Capacity: t.Capacity().String(),
				Role:     t.Role().String(),
			})
		}
	}
	if items, ok := m.Items(); ok {
		for i := 0; i < items.Size(); i++ {
			if s, ok := items.Slot(i); ok && !s.IsEmpty() {
				v.Slots = append(v.Slots, SlotView{Index: i, Item: string(s.Key), Count: s.Count})
			}
		}
	}
	if t, ok := m.Temperature(); ok {
		v.Temperature = &TemperatureView{Current: t.Current(), Status: string(t.Status())}
	}
	if e, ok := m.Engine(); ok {
		state := e.State()
		pv := &ProcessingView{
			Phase:    string(e.Phase()),
			Recipe:   state.RecipeID,
			Progress: state.Progress,
			Total:    state.TotalDuration,
		}
		for kind := range e.Enhancers().Rules().MaxCount {
			if n := e.Enhancers().Count(kind); n > 0 {
				if pv.Enhancer == nil {
					pv.Enhancer = make(map[string]int)
				}
				pv.Enhancer[string(kind)] = n
			}
		}
		v.Processing = pv
	}
	if g, ok := m.Generator(); ok {
		v.Generator = &GeneratorView{Phase: string(g.Phase()), BurnTime: g.BurnTime(), MaxBurnTime: g.MaxBurnTime()}
	}
	if s, ok := m.Structure(); ok {
		v.Structure = string(s.State())
	}
	if cfg, ok := m.Sides(); ok {
		v.Sides = make(map[string][]string)
		for _, kind := range sides.AllKinds {
			if !cfg.Handles(kind) {
				continue
			}
			modes := make([]string, 0, 6)
			for _, d := range shared.AllDirections {
				modes = append(modes, string(cfg.ModeFor(d, kind)))
			}
			v.Sides[string(kind)] = modes
		}
	}
	return v
}
