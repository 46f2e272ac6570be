package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/andrescamacho/factorysim-go/internal/application/mediator"
	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/processing"
)

// InstallEnhancerCommand sets the installed count of one enhancer on a processing machine
type InstallEnhancerCommand struct {
	MachineID string
	Enhancer  string
	Count     int
}

// InstallEnhancerResponse reports the buffer capacity after the change
type InstallEnhancerResponse struct {
	MachineID      string
	Enhancer       processing.Enhancer
	Count          int
	EnergyCapacity float64
}

// InstallEnhancerHandler handles the InstallEnhancer command
type InstallEnhancerHandler struct {
	runner *simulation.Runner
}

// NewInstallEnhancerHandler creates a new InstallEnhancerHandler
func NewInstallEnhancerHandler(runner *simulation.Runner) *InstallEnhancerHandler {
	return &InstallEnhancerHandler{runner: runner}
}

// Handle executes the InstallEnhancer command
func (h *InstallEnhancerHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*InstallEnhancerCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *InstallEnhancerCommand")
	}

	id, err := machine.ParseID(cmd.MachineID)
	if err != nil {
		return nil, err
	}
	kind := processing.Enhancer(strings.ToUpper(strings.TrimSpace(cmd.Enhancer)))

	resp := &InstallEnhancerResponse{MachineID: id.String(), Enhancer: kind, Count: cmd.Count}
	err = h.runner.View(func(w *simulation.World, _ uint64) error {
		m, err := w.Machine(id)
		if err != nil {
			return err
		}
		if err := m.InstallEnhancer(kind, cmd.Count); err != nil {
			return err
		}
		if buf, ok := m.Energy(); ok {
			resp.EnergyCapacity = buf.Capacity()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to install enhancer: %w", err)
	}
	return resp, nil
}
