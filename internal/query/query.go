package query

import (
	"context"
	"sync"
	"time"
)

// Never marks data that does not go stale once fetched.
const Never time.Duration = -1

// State is what a screen renders for one query.
type State[T any] struct {
	Data      T
	IsLoading bool
	Err       string
	UpdatedAt time.Time
}

// FetchFunc performs the actual request with the current token.
type FetchFunc[T any] func(ctx context.Context, token string) (T, error)

// Query is one cached resource bound to a key.
type Query[T any] struct {
	client    *Client
	tokens    TokenSource
	key       string
	staleTime time.Duration
	fetchFn   FetchFunc[T]

	mu    sync.Mutex
	state State[T]
}

// NewQuery binds fetch to key. staleTime 0 means every load after the first
// triggers a background refresh; Never means cached data is always fresh.
func NewQuery[T any](c *Client, tokens TokenSource, key string, staleTime time.Duration, fetch FetchFunc[T]) *Query[T] {
	return &Query[T]{
		client:    c,
		tokens:    tokens,
		key:       key,
		staleTime: staleTime,
		fetchFn:   fetch,
	}
}

// Key returns the cache key.
func (q *Query[T]) Key() string {
	return q.key
}

// State returns the latest state, including results of background refreshes.
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Load returns cached data when present and fetches otherwise. Without a token
// nothing is requested and the state is empty.
func (q *Query[T]) Load(ctx context.Context) State[T] {
	token := q.tokens.Token()
	if token == "" {
		return q.reset()
	}

	if e, ok := q.client.lookup(q.key); ok {
		st := q.adopt(e)
		if q.stale(e) {
			q.client.background(ctx, q.key, q.bind(token), func(e entry, err error) {
				q.settle(token, e, err)
			})
		}
		return st
	}
	return q.fetch(ctx, token)
}

// Refetch requests the resource regardless of freshness.
func (q *Query[T]) Refetch(ctx context.Context) State[T] {
	token := q.tokens.Token()
	if token == "" {
		return q.reset()
	}
	return q.fetch(ctx, token)
}

func (q *Query[T]) fetch(ctx context.Context, token string) State[T] {
	q.mu.Lock()
	q.state.IsLoading = true
	q.state.Err = ""
	q.mu.Unlock()

	e, err := q.client.fetch(ctx, q.key, q.bind(token))
	return q.settle(token, e, err)
}

// settle records a finished request unless the session changed meanwhile.
func (q *Query[T]) settle(token string, e entry, err error) State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.tokens.Token() != token {
		q.state = State[T]{}
		return q.state
	}
	q.state.IsLoading = false
	if err != nil {
		q.state.Err = err.Error()
		return q.state
	}
	q.state.Err = ""
	q.state.Data, _ = e.value.(T)
	q.state.UpdatedAt = e.fetchedAt
	return q.state
}

func (q *Query[T]) bind(token string) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return q.fetchFn(ctx, token)
	}
}

func (q *Query[T]) adopt(e entry) State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.state.Data, _ = e.value.(T)
	q.state.UpdatedAt = e.fetchedAt
	q.state.IsLoading = false
	q.state.Err = ""
	return q.state
}

func (q *Query[T]) reset() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.state = State[T]{}
	return q.state
}

func (q *Query[T]) stale(e entry) bool {
	if q.staleTime < 0 {
		return false
	}
	return q.client.now().Sub(e.fetchedAt) >= q.staleTime
}
