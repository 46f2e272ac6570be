package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andrescamacho/factorysim-go/internal/application/common"
	"github.com/andrescamacho/factorysim-go/internal/application/mediator"
	simCommands "github.com/andrescamacho/factorysim-go/internal/application/simulation/commands"
	simQueries "github.com/andrescamacho/factorysim-go/internal/application/simulation/queries"
	"github.com/andrescamacho/factorysim-go/internal/domain/shared"
	"github.com/andrescamacho/factorysim-go/internal/domain/sides"
)

// transferModeRequest is the body of PUT /machines/{id}/sides
type transferModeRequest struct {
	Direction string `json:"direction"`
	Kind      string `json:"kind"`
	Mode      string `json:"mode"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter exposes world status and the metrics registry.
// A nil registry leaves /metrics unrouted.
func NewRouter(med mediator.Mediator, registry *prometheus.Registry) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/machines", listMachines(med)).Methods(http.MethodGet)
	r.HandleFunc("/machines/{id}", getMachine(med)).Methods(http.MethodGet)
	r.HandleFunc("/machines/{id}/sides", setTransferMode(med)).Methods(http.MethodPut)
	r.HandleFunc("/runs", listRuns(med)).Methods(http.MethodGet)
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})).Methods(http.MethodGet)
	}

	return r
}

// Serve runs the router on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	common.LoggerFromContext(ctx).Log(common.LevelInfo, "HTTP server listening", map[string]interface{}{
		"addr": addr,
	})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func listMachines(med mediator.Mediator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := med.Send(r.Context(), &simQueries.ListMachinesQuery{Kind: r.URL.Query().Get("kind")})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getMachine(med mediator.Mediator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := med.Send(r.Context(), &simQueries.InspectMachineQuery{MachineID: mux.Vars(r)["id"]})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listRuns(med mediator.Mediator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := &simQueries.ListRunsQuery{}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
				return
			}
			query.Limit = limit
		}
		resp, err := med.Send(r.Context(), query)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func setTransferMode(med mediator.Mediator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body transferModeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
		resp, err := med.Send(r.Context(), &simCommands.SetTransferModeCommand{
			MachineID: mux.Vars(r)["id"],
			Direction: body.Direction,
			Kind:      body.Kind,
			Mode:      body.Mode,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// writeError maps domain errors onto HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	var (
		notFound    *shared.NotFoundError
		invalid     *shared.ValidationError
		invalidMode *sides.ErrInvalidMode
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &invalid), errors.As(err, &invalidMode):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
