package mediator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/factorysim-go/internal/application/mediator"
)

type pingQuery struct{ N int }

type pingHandler struct{}

func (pingHandler) Handle(_ context.Context, request mediator.Request) (mediator.Response, error) {
	return request.(*pingQuery).N + 1, nil
}

func TestMediator_DispatchesByRequestType(t *testing.T) {
	m := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*pingQuery](m, pingHandler{}))

	resp, err := m.Send(context.Background(), &pingQuery{N: 1})

	require.NoError(t, err)
	assert.Equal(t, 2, resp)
}

func TestMediator_RejectsDuplicateAndUnknown(t *testing.T) {
	m := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*pingQuery](m, pingHandler{}))

	assert.Error(t, mediator.RegisterHandler[*pingQuery](m, pingHandler{}))
	_, err := m.Send(context.Background(), struct{}{})
	assert.Error(t, err)
	_, err = m.Send(context.Background(), nil)
	assert.Error(t, err)
}

func TestMediator_MiddlewareRunsOutermostFirst(t *testing.T) {
	m := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*pingQuery](m, pingHandler{}))
	var order []string
	for _, name := range []string{"outer", "inner"} {
		m.Use(func(ctx context.Context, req mediator.Request, next mediator.HandlerFunc) (mediator.Response, error) {
			order = append(order, name)
			return next(ctx, req)
		})
	}

	_, err := m.Send(context.Background(), &pingQuery{})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}
