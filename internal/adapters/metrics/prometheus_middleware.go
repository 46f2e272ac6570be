package metrics

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/andrescamacho/factorysim-go/internal/application/mediator"
)

// PrometheusMiddleware records the duration and outcome of every command and query.
// A nil collector disables recording.
func PrometheusMiddleware(collector *CommandMetricsCollector) mediator.Middleware {
	return func(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) (mediator.Response, error) {
		if collector == nil {
			return next(ctx, request)
		}

		start := time.Now()
		response, err := next(ctx, request)
		collector.RecordCommandExecution(commandName(request), time.Since(start).Seconds(), err == nil)
		return response, err
	}
}

// commandName strips the pointer and package prefix:
// "*commands.RunSimulationCommand" becomes "RunSimulationCommand"
func commandName(request mediator.Request) string {
	if request == nil {
		return "UnknownCommand"
	}
	name := strings.TrimPrefix(reflect.TypeOf(request).String(), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
