package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/factorysim-go/internal/application/common"
	"github.com/andrescamacho/factorysim-go/internal/application/mediator"
	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	"github.com/andrescamacho/factorysim-go/internal/domain/machine"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/sides"
)

// SetTransferModeCommand changes one face's transfer mode for one resource kind
type SetTransferModeCommand struct {
	MachineID string
	Direction string // north, south, east, west, up, down
	Kind      string // item, fluid, energy
	Mode      string // none, input, output, input_output
}

// SetTransferModeResponse echoes the applied setting
type SetTransferModeResponse struct {
	MachineID string
	Direction shared.Direction
	Kind      sides.Kind
	Mode      sides.Mode
}

// SetTransferModeHandler handles the SetTransferMode command
type SetTransferModeHandler struct {
	runner *simulation.Runner
}

// NewSetTransferModeHandler creates a new SetTransferModeHandler
func NewSetTransferModeHandler(runner *simulation.Runner) *SetTransferModeHandler {
	return &SetTransferModeHandler{runner: runner}
}

// Handle executes the SetTransferMode command
func (h *SetTransferModeHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*SetTransferModeCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *SetTransferModeCommand")
	}

	id, err := machine.ParseID(cmd.MachineID)
	if err != nil {
		return nil, err
	}
	dir, err := shared.ParseDirection(cmd.Direction)
	if err != nil {
		return nil, err
	}
	kind, err := sides.ParseKind(cmd.Kind)
	if err != nil {
		return nil, err
	}
	mode, err := sides.ParseMode(cmd.Mode)
	if err != nil {
		return nil, err
	}

	err = h.runner.View(func(w *simulation.World, _ uint64) error {
		m, err := w.Machine(id)
		if err != nil {
			return err
		}
		return m.SetTransferMode(dir, kind, mode)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set transfer mode: %w", err)
	}

	common.LoggerFromContext(ctx).Log(common.LevelInfo, "Transfer mode changed", map[string]interface{}{
		"machine":   id.String(),
		"direction": dir.String(),
		"kind":      string(kind),
		"mode":      string(mode),
	})

	return &SetTransferModeResponse{MachineID: id.String(), Direction: dir, Kind: kind, Mode: mode}, nil
}
