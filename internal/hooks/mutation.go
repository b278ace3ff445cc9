package hooks

import (
	"context"
	"sync"

	"tradepost/internal/booking"
	"tradepost/internal/models"
)

// MutationState is a snapshot of a mutation.
type MutationState[Out any] struct {
	Data    Out
	Loading bool
	Err     string
}

// Mutation wraps one write operation on a fixed entity type.
type Mutation[In, Out any] struct {
	source      AdapterSource
	entity      models.EntityType
	call        func(ctx context.Context, adapter booking.Adapter, in In) (Out, error)
	fallbackErr string

	mu    sync.Mutex
	state MutationState[Out]
}

// Run performs the mutation. The error is recorded in the state and also
// returned.
func (m *Mutation[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	m.mu.Lock()
	m.state.Loading = true
	m.state.Err = ""
	m.mu.Unlock()

	out, err := m.do(ctx, in)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Loading = false
	if err != nil {
		m.state.Err = errorText(err, m.fallbackErr)
		return out, err
	}
	m.state.Data = out
	return out, nil
}

// State returns the latest snapshot.
func (m *Mutation[In, Out]) State() MutationState[Out] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mutation[In, Out]) do(ctx context.Context, in In) (Out, error) {
	var zero Out
	adapter, err := m.source.AdapterFor(m.entity)
	if err != nil {
		return zero, err
	}
	return m.call(ctx, adapter, in)
}
