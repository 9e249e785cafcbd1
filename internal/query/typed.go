package query

import (
	"context"
	"time"
)

// Result is the typed view a caller renders: data plus the loading and error
// flags.
type Result[T any] struct {
	Status    Status
	Data      T
	IsLoading bool
	IsError   bool
	Error     *Error
	UpdatedAt time.Time
}

// ResultOf converts an untyped state. Data falls back to empty until the
// first successful fetch, or when the payload has an unexpected type.
func ResultOf[T any](st State, empty T) Result[T] {
	data := empty
	if v, ok := st.Data.(T); ok && st.HasData() {
		data = v
	}
	return Result[T]{
		Status:    st.Status,
		Data:      data,
		IsLoading: st.IsLoading(),
		IsError:   st.IsError(),
		Error:     st.Err,
		UpdatedAt: st.UpdatedAt,
	}
}

// Query is a typed subscription.
type Query[T any] struct {
	sub   *Subscription
	empty T
}

// NewQuery subscribes to key with a typed fetch function.
func NewQuery[T any](c *Client, key Key, fetch func(context.Context) (T, error), enabled bool, empty T) *Query[T] {
	return &Query[T]{
		sub:   c.Ensure(key, Erase(fetch), enabled),
		empty: empty,
	}
}

// Erase adapts a typed fetch function to a FetchFunc.
func Erase[T any](fetch func(context.Context) (T, error)) FetchFunc {
	if fetch == nil {
		return nil
	}
	return func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}
}

// Result returns the current typed result.
func (q *Query[T]) Result() Result[T] {
	return ResultOf(q.sub.State(), q.empty)
}

// Typed converts a state received from Changes.
func (q *Query[T]) Typed(st State) Result[T] {
	return ResultOf(st, q.empty)
}

// Changes delivers state transitions; see Subscription.Changes.
func (q *Query[T]) Changes() <-chan State { return q.sub.Changes() }

// Key returns the key the query is bound to.
func (q *Query[T]) Key() Key { return q.sub.Key() }

// Retarget rebinds the query to another key or enabled predicate.
func (q *Query[T]) Retarget(key Key, fetch func(context.Context) (T, error), enabled bool) {
	q.sub.Retarget(key, Erase(fetch), enabled)
}

// Refetch forces a new fetch unless one is in flight.
func (q *Query[T]) Refetch() { q.sub.Refetch() }

// Close deregisters the query.
func (q *Query[T]) Close() { q.sub.Close() }
