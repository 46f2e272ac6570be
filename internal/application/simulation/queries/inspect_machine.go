package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/factorysim-go/internal/application/mediator"
	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
)

// InspectMachineQuery looks up one machine by id
type InspectMachineQuery struct {
	MachineID string
}

// InspectMachineResponse carries the projected machine
type InspectMachineResponse struct {
	Tick    uint64
	Machine *MachineView
}

// InspectMachineHandler handles the InspectMachine query
type InspectMachineHandler struct {
	runner *simulation.Runner
}

// NewInspectMachineHandler creates a new InspectMachineHandler
func NewInspectMachineHandler(runner *simulation.Runner) *InspectMachineHandler {
	return &InspectMachineHandler{runner: runner}
}

// Handle executes the InspectMachine query
func (h *InspectMachineHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*InspectMachineQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *InspectMachineQuery")
	}

	id, err := machine.ParseID(query.MachineID)
	if err != nil {
		return nil, err
	}

	resp := &InspectMachineResponse{}
	err = h.runner.View(func(w *simulation.World, tick uint64) error {
		m, err := w.Machine(id)
		if err != nil {
			return err
		}
		resp.Tick = tick
		resp.Machine = NewMachineView(m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
