package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/factorysim-go/internal/application/mediator"
	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
)

// RunSimulationCommand steps the world Ticks times, or until cancelled when Ticks is zero
type RunSimulationCommand struct {
	Ticks uint64
}

// RunSimulationResponse reports what happened during the run
type RunSimulationResponse struct {
	World   string
	Tick    uint64
	Summary simulation.Summary
}

// RunSimulationHandler handles the RunSimulation command
type RunSimulationHandler struct {
	runner *simulation.Runner
}

// NewRunSimulationHandler creates a new RunSimulationHandler
func NewRunSimulationHandler(runner *simulation.Runner) *RunSimulationHandler {
	return &RunSimulationHandler{runner: runner}
}

// Handle executes the RunSimulation command
func (h *RunSimulationHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*RunSimulationCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *RunSimulationCommand")
	}

	summary, err := h.runner.Run(ctx, cmd.Ticks)
	if err != nil {
		return nil, fmt.Errorf("failed to run simulation: %w", err)
	}

	return &RunSimulationResponse{
		World:   h.runner.Name(),
		Tick:    h.runner.Tick(),
		Summary: summary,
	}, nil
}
