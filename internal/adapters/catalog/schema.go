package catalog

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/factorysim-go/internal/domain/fluid"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/sides"
)

// amount decodes "1.25" or 1.25 into an exact Amount
type amount struct {
	shared.Amount
}

func (a *amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", node.Line)
	}
	v, err := shared.ParseAmount(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	a.Amount = v
	return nil
}

// role decodes input/output/input_output/internal into a tank role
type role struct {
	fluid.Role
}

func (r *role) UnmarshalYAML(node *yaml.Node) error {
	switch strings.ToLower(node.Value) {
	case "", "internal":
		r.Role = fluid.RoleInternal
	case "input":
		r.Role = fluid.RoleInput
	case "output":
		r.Role = fluid.RoleOutput
	case "input_output", "inputoutput", "both":
		r.Role = fluid.RoleInputOutput
	default:
		return fmt.Errorf("line %d: unknown tank role %q", node.Line, node.Value)
	}
	return nil
}

// mode decodes a side mode name
type mode struct {
	sides.Mode
}

func (m *mode) UnmarshalYAML(node *yaml.Node) error {
	v, err := sides.ParseMode(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	m.Mode = v
	return nil
}

type fileDoc struct {
	Items    []itemDoc             `yaml:"items"`
	Fuels    []fuelDoc             `yaml:"fuels"`
	Recipes  []recipeDoc           `yaml:"recipes"`
	Machines map[string]machineDoc `yaml:"machines"`
}

type itemDoc struct {
	ID       string `yaml:"id"`
	MaxStack int    `yaml:"max_stack"`
}

type fuelDoc struct {
	Item            string  `yaml:"item"`
	Fluid           string  `yaml:"fluid"`
	Count           int     `yaml:"count"`
	Consumption     amount  `yaml:"consumption"`
	BurnTime        int     `yaml:"burn_time"`
	GenerationRatio float64 `yaml:"generation_ratio"`
}

type stackDoc struct {
	Item  string `yaml:"item"`
	Count int    `yaml:"count"`
}

type fluidStackDoc struct {
	Fluid  string `yaml:"fluid"`
	Amount amount `yaml:"amount"`
}

type recipeDoc struct {
	ID            string         `yaml:"id"`
	Type          string         `yaml:"type"`
	Inputs        []stackDoc     `yaml:"inputs"`
	FluidInput    *fluidStackDoc `yaml:"fluid_input"`
	Outputs       []stackDoc     `yaml:"outputs"`
	Duration      int            `yaml:"duration"`
	EnergyPerTick float64        `yaml:"energy_per_tick"`
}

type machineDoc struct {
	Energy *struct {
		Capacity  float64 `yaml:"capacity"`
		MaxInput  float64 `yaml:"max_input"`
		MaxOutput float64 `yaml:"max_output"`
	} `yaml:"energy"`
	Tanks []struct {
		Capacity amount   `yaml:"capacity"`
		Fluids   []string `yaml:"fluids"`
		Role     role     `yaml:"role"`
	} `yaml:"tanks"`
	Inventory *struct {
		Size    int   `yaml:"size"`
		Inputs  []int `yaml:"inputs"`
		Outputs []int `yaml:"outputs"`
	} `yaml:"inventory"`
	Temperature *struct {
		DriftRate float64    `yaml:"drift_rate"`
		Optimal   [2]float64 `yaml:"optimal"`
		Overheat  float64    `yaml:"overheat"`
		Ceiling   float64    `yaml:"ceiling"`
		Ambient   float64    `yaml:"ambient"`
		Boost     float64    `yaml:"boost"`
	} `yaml:"temperature"`
	Sides map[string]struct {
		Valid    []mode `yaml:"valid"`
		Default  mode   `yaml:"default"`
		AutoPush bool   `yaml:"auto_push"`
		AutoPull bool   `yaml:"auto_pull"`
	} `yaml:"sides"`
	Processing *struct {
		RecipeType string `yaml:"recipe_type"`
		FluidTank  int    `yaml:"fluid_tank"`
		Enhancers  struct {
			Max                 map[string]int `yaml:"max"`
			SpeedStepPercent    int            `yaml:"speed_step_percent"`
			MaxReductionPercent int            `yaml:"max_reduction_percent"`
			BufferBonus         float64        `yaml:"buffer_bonus"`
		} `yaml:"enhancers"`
	} `yaml:"processing"`
	Generator *struct {
		Fuel      string `yaml:"fuel"`
		Slot      int    `yaml:"slot"`
		Tank      int    `yaml:"tank"`
		Byproduct *struct {
			Item     string  `yaml:"item"`
			Interval int     `yaml:"interval"`
			Chance   float64 `yaml:"chance"`
		} `yaml:"byproduct"`
	} `yaml:"generator"`
	Boiler    bool   `yaml:"boiler"`
	Structure string `yaml:"structure"`
	Transfer  struct {
		FluidPerTick amount `yaml:"fluid_per_tick"`
		ItemsPerTick int    `yaml:"items_per_tick"`
	} `yaml:"transfer"`
}
