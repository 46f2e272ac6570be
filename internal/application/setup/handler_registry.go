package setup

import (
	"reflect"

	"github.com/andrescamacho/factorysim-go/internal/application/mediator"
	"github.com/andrescamacho/factorysim-go/internal/application/simulation"
	simCommands "github.com/andrescamacho/factorysim-go/internal/application/simulation/commands"
	simQueries "github.com/andrescamacho/factorysim-go/internal/application/simulation/queries"
)

// HandlerRegistry holds the application dependencies handlers are built from
type HandlerRegistry struct {
	runner      *simulation.Runner
	history     simulation.RunHistory
	middlewares []mediator.Middleware
}

// NewHandlerRegistry creates a new handler registry for runner's world
func NewHandlerRegistry(runner *simulation.Runner, middlewares ...mediator.Middleware) *HandlerRegistry {
	return &HandlerRegistry{runner: runner, middlewares: middlewares}
}

// WithRunHistory makes ListRunsQuery available
func (r *HandlerRegistry) WithRunHistory(history simulation.RunHistory) *HandlerRegistry {
	r.history = history
	return r
}

// RegisterSimulationHandlers registers the simulation command and query handlers
//
// This method registers:
//   - RunSimulationCommand → RunSimulationHandler
//   - SetTransferModeCommand → SetTransferModeHandler
//   - InstallEnhancerCommand → InstallEnhancerHandler
//   - InspectMachineQuery → InspectMachineHandler
//   - ListMachinesQuery → ListMachinesHandler
//   - ListRunsQuery → ListRunsHandler (only with a run history)
func (r *HandlerRegistry) RegisterSimulationHandlers(m mediator.Mediator) error {
	handlers := []struct {
		request reflect.Type
		handler mediator.RequestHandler
	}{
		{reflect.TypeOf(&simCommands.RunSimulationCommand{}), simCommands.NewRunSimulationHandler(r.runner)},
		{reflect.TypeOf(&simCommands.SetTransferModeCommand{}), simCommands.NewSetTransferModeHandler(r.runner)},
		{reflect.TypeOf(&simCommands.InstallEnhancerCommand{}), simCommands.NewInstallEnhancerHandler(r.runner)},
		{reflect.TypeOf(&simQueries.InspectMachineQuery{}), simQueries.NewInspectMachineHandler(r.runner)},
		{reflect.TypeOf(&simQueries.ListMachinesQuery{}), simQueries.NewListMachinesHandler(r.runner)},
	}
	if r.history != nil {
		handlers = append(handlers, struct {
			request reflect.Type
			handler mediator.RequestHandler
		}{reflect.TypeOf(&simQueries.ListRunsQuery{}), simQueries.NewListRunsHandler(r.runner.Name(), r.history)})
	}
	for _, h := range handlers {
		if err := m.Register(h.request, h.handler); err != nil {
			return err
		}
	}
	return nil
}

// CreateConfiguredMediator creates a mediator with every simulation handler and middleware registered
func (r *HandlerRegistry) CreateConfiguredMediator() (mediator.Mediator, error) {
	m := mediator.NewMediator()
	for _, mw := range r.middlewares {
		m.Use(mw)
	}
	if err := r.RegisterSimulationHandlers(m); err != nil {
		return nil, err
	}
	return m, nil
}
