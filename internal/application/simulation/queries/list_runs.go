package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/factorysim-go/internal/application/mediator"
	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
)

// DefaultRunLimit caps ListRunsQuery when no limit is given
const DefaultRunLimit = 20

// ListRunsQuery lists the most recent runs of the world, newest first
type ListRunsQuery struct {
	Limit int
}

// RunView is the JSON projection of a finished run
type RunView struct {
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	StoppedAt       *time.Time `json:"stopped_at,omitempty"`
	Ticks           uint64     `json:"ticks"`
	Completed       int        `json:"recipes_completed"`
	EnergyGenerated float64    `json:"energy_generated"`
	SnapshotErrors  int        `json:"snapshot_errors"`
	Error           string     `json:"error,omitempty"`
}

// ListRunsResponse carries the projected runs
type ListRunsResponse struct {
	World string
	Runs  []RunView
}

// ListRunsHandler handles the ListRuns query
type ListRunsHandler struct {
	world   string
	history simulation.RunHistory
}

// NewListRunsHandler creates a new ListRunsHandler
func NewListRunsHandler(world string, history simulation.RunHistory) *ListRunsHandler {
	return &ListRunsHandler{world: world, history: history}
}

// Handle executes the ListRuns query
func (h *ListRunsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*ListRunsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListRunsQuery")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	runs, err := h.history.Recent(ctx, h.world, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	resp := &ListRunsResponse{World: h.world, Runs: make([]RunView, 0, len(runs))}
	for _, run := range runs {
		v := RunView{
			Status:          string(run.Status),
			StartedAt:       run.StartedAt,
			Ticks:           run.Summary.Ticks,
			Completed:       run.Summary.Completed,
			EnergyGenerated: run.Summary.EnergyGenerated,
			SnapshotErrors:  run.Summary.SnapshotErrors,
		}
		if !run.StoppedAt.IsZero() {
			stopped := run.StoppedAt
			v.StoppedAt = &stopped
		}
		if run.Err != nil {
			v.Error = run.Err.Error()
		}
		resp.Runs = append(resp.Runs, v)
	}
	return resp, nil
}
