package processing

import (
	"fmt"

	"github.com/andrescamacho/factorysim-go/internal/domain/inventory"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
)

// Ingredient is a required count of one item kind
type Ingredient struct {
	Key   shared.ResourceKey
	Count int
}

// FluidIngredient is a required amount of one fluid kind
type FluidIngredient struct {
	Key    shared.ResourceKey
	Amount shared.Amount
}

// Recipe converts inputs into outputs over a number of ticks
type Recipe struct {
	ID            string
	Type          string
	Inputs        []Ingredient
	FluidInput    *FluidIngredient
	Outputs       []inventory.Stack
	Duration      int
	EnergyPerTick float64
}

// Validate checks the recipe definition
func (r *Recipe) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("recipe id is required")
	}
	if r.Type == "" {
		return fmt.Errorf("recipe %s: type is required", r.ID)
	}
	if r.Duration <= 0 {
		return fmt.Errorf("recipe %s: duration must be positive", r.ID)
	}
	if r.EnergyPerTick < 0 {
		return fmt.Errorf("recipe %s: energy per tick cannot be negative", r.ID)
	}
	if len(r.Inputs) == 0 && r.FluidInput == nil {
		return fmt.Errorf("recipe %s: at least one input is required", r.ID)
	}
	for _, in := range r.Inputs {
		if in.Key.IsEmpty() || in.Count <= 0 {
			return fmt.Errorf("recipe %s: invalid input %q x%d", r.ID, in.Key, in.Count)
		}
	}
	if r.FluidInput != nil && (r.FluidInput.Key.IsEmpty() || !r.FluidInput.Amount.IsPositive()) {
		return fmt.Errorf("recipe %s: invalid fluid input", r.ID)
	}
	if len(r.Outputs) == 0 {
		return fmt.Errorf("recipe %s: at least one output is required", r.ID)
	}
	for _, out := range r.Outputs {
		if out.IsEmpty() {
			return fmt.Errorf("recipe %s: invalid output %s", r.ID, out)
		}
	}
	return nil
}

// requirements sums the item inputs per kind
func (r *Recipe) requirements() map[shared.ResourceKey]int {
	req := make(map[shared.ResourceKey]int, len(r.Inputs))
	for _, in := range r.Inputs {
		req[in.Key] += in.Count
	}
	return req
}

// RecipeSource supplies the recipes of a processing type in catalog order
type RecipeSource interface {
	RecipesFor(recipeType string) []*Recipe
}

// findRecipe looks a recipe up by id within a type
func findRecipe(src RecipeSource, recipeType, id string) (*Recipe, bool) {
	if src == nil || id == "" {
		return nil, false
	}
	for _, r := range src.RecipesFor(recipeType) {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}
