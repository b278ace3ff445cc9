// Package hooks holds stateful wrappers over the booking adapters for
// interactive callers: each tracks data, loading and error state and knows
// when to refetch.
package hooks

import (
	"context"
	"sync"

	"tradepost/internal/booking"
	"tradepost/internal/httpclient"
	"tradepost/internal/models"
)

// AdapterSource resolves the adapter for an entity type. It is consulted on
// every call so an entity type change takes effect immediately.
type AdapterSource interface {
	AdapterFor(t models.EntityType) (booking.Adapter, error)
}

// SourceFunc adapts a plain function to AdapterSource.
type SourceFunc func(t models.EntityType) (booking.Adapter, error)

func (f SourceFunc) AdapterFor(t models.EntityType) (booking.Adapter, error) {
	return f(t)
}

// Deps are the inputs a query depends on. A change in any of them triggers a
// refetch on the next Sync.
type Deps struct {
	EntityType models.EntityType
	ID         int64
	ContextID  int64
	Enabled    bool
}

// State is a snapshot of a query.
type State[T any] struct {
	Data    T
	Loading bool
	Err     string
	Fetched bool
}

type fetchFunc[T any] func(ctx context.Context, adapter booking.Adapter, deps Deps) (T, error)

// Query caches the result of one read operation.
type Query[T any] struct {
	source      AdapterSource
	fetch       fetchFunc[T]
	ready       func(Deps) bool
	fallbackErr string

	mu     sync.Mutex
	deps   Deps
	synced bool
	gen    uint64
	state  State[T]
}

func newQuery[T any](source AdapterSource, fallbackErr string, ready func(Deps) bool, fetch fetchFunc[T]) *Query[T] {
	return &Query[T]{source: source, fetch: fetch, ready: ready, fallbackErr: fallbackErr}
}

// Sync fetches when deps differ from the previous Sync and returns the
// resulting state.
func (q *Query[T]) Sync(ctx context.Context, deps Deps) State[T] {
	q.mu.Lock()
	if q.synced && q.deps == deps {
		st := q.state
		q.mu.Unlock()
		return st
	}
	q.deps = deps
	q.synced = true
	q.mu.Unlock()
	return q.Refresh(ctx)
}

// Refresh always refetches with the current deps unless the query is
// disabled. Responses to requests superseded by a later Refresh are dropped.
func (q *Query[T]) Refresh(ctx context.Context) State[T] {
	q.mu.Lock()
	deps := q.deps
	if !deps.Enabled || (q.ready != nil && !q.ready(deps)) {
		q.state.Loading = false
		st := q.state
		q.mu.Unlock()
		return st
	}
	q.gen++
	gen := q.gen
	q.state.Loading = true
	q.state.Err = ""
	q.mu.Unlock()

	data, err := q.do(ctx, deps)

	q.mu.Lock()
	defer q.mu.Unlock()
	if gen != q.gen {
		return q.state
	}
	if err != nil {
		q.state.Err = errorText(err, q.fallbackErr)
	} else {
		q.state.Data = data
		q.state.Fetched = true
	}
	q.state.Loading = false
	return q.state
}

// State returns the latest snapshot without fetching.
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// do always reads past the response cache: a fetch issued by a hook is how
// callers pick up changes made elsewhere.
func (q *Query[T]) do(ctx context.Context, deps Deps) (T, error) {
	var zero T
	adapter, err := q.source.AdapterFor(deps.EntityType)
	if err != nil {
		return zero, err
	}
	return q.fetch(httpclient.WithFreshRead(ctx), adapter, deps)
}

func errorText(err error, fallback string) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
