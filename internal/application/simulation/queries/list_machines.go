package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/factorysim-go/internal/application/mediator"
	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
)

// ListMachinesQuery lists every machine of the world in tick order, optionally filtered by kind
type ListMachinesQuery struct {
	Kind string
}

// ListMachinesResponse carries the projected machines
type ListMachinesResponse struct {
	World    string
	Tick     uint64
	Status   string
	Machines []*MachineView
}

// ListMachinesHandler handles the ListMachines query
type ListMachinesHandler struct {
	runner *simulation.Runner
}

// NewListMachinesHandler creates a new ListMachinesHandler
func NewListMachinesHandler(runner *simulation.Runner) *ListMachinesHandler {
	return &ListMachinesHandler{runner: runner}
}

// Handle executes the ListMachines query
func (h *ListMachinesHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*ListMachinesQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListMachinesQuery")
	}

	resp := &ListMachinesResponse{World: h.runner.Name(), Status: string(h.runner.Status())}
	_ = h.runner.View(func(w *simulation.World, tick uint64) error {
		resp.Tick = tick
		for _, m := range w.Machines() {
			if query.Kind != "" && string(m.Kind()) != query.Kind {
				continue
			}
			resp.Machines = append(resp.Machines, NewMachineView(m))
		}
		return nil
	})
	return resp, nil
}
