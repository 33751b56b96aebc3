// Package query caches backend reads the way the chat screens consume them.
//
// Entries are keyed by resource name plus the JSON encoding of the request
// parameters. A fresh entry is served without a request; a stale one is served
// immediately while a single background refresh runs. Concurrent loads of the
// same key share one request.
package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// gcAfter is how long an entry survives after its last fetch. It is unrelated
// to freshness; it only bounds memory for resources nobody asks for anymore.
const gcAfter = 30 * time.Minute

// TokenSource supplies the bearer token for the current session.
// session.Store satisfies it.
type TokenSource interface {
	Token() string
}

// Client owns the cache shared by every Query.
type Client struct {
	cache  *gocache.Cache
	group  singleflight.Group
	wg     sync.WaitGroup
	gen    atomic.Uint64
	now    func() time.Time
	logger *slog.Logger
}

// entry is what the cache stores per key.
type entry struct {
	value     any
	fetchedAt time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger sets the logger used for background refresh failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates an empty query cache.
func NewClient(opts ...Option) *Client {
	c := &Client{
		cache:  gocache.New(gcAfter, 5*time.Minute),
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the cache key for resource and params. Equal params always
// produce equal keys because encoding/json sorts map keys.
func Key(resource string, params any) string {
	if params == nil {
		return resource + ":null"
	}
	b, err := json.Marshal(params)
	if err != nil {
		return resource + ":!" + err.Error()
	}
	return resource + ":" + string(b)
}

// Clear drops every entry. Requests already in flight finish but their
// results are discarded.
func (c *Client) Clear() {
	c.gen.Add(1)
	c.cache.Flush()
}

// Invalidate drops every entry of resource so the next load fetches again.
func (c *Client) Invalidate(resource string) {
	prefix := resource + ":"
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}

// Wait blocks until all background refreshes have finished.
func (c *Client) Wait() {
	c.wg.Wait()
}

// Len returns the number of cached entries.
func (c *Client) Len() int {
	return c.cache.ItemCount()
}

func (c *Client) lookup(key string) (entry, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return entry{}, false
	}
	e, ok := v.(entry)
	return e, ok
}

// fetch runs fn once per key at a time and stores a successful result unless
// the cache was cleared while the request was in flight. The shared request
// outlives any one caller; each caller stops waiting when its own ctx ends.
func (c *Client) fetch(ctx context.Context, key string, fn func(context.Context) (any, error)) (entry, error) {
	gen := c.gen.Load()
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		value, err := fn(shared)
		if err != nil {
			return nil, err
		}
		e := entry{value: value, fetchedAt: c.now()}
		if c.gen.Load() == gen {
			c.cache.Set(key, e, gocache.DefaultExpiration)
		}
		return e, nil
	})

	select {
	case <-ctx.Done():
		return entry{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return entry{}, res.Err
		}
		return res.Val.(entry), nil
	}
}

// background refreshes key without blocking the caller. The caller's
// cancellation does not abort the refresh.
func (c *Client) background(ctx context.Context, key string, fn func(context.Context) (any, error), done func(entry, error)) {
	ctx = context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		e, err := c.fetch(ctx, key, fn)
		if err != nil {
			c.logger.Debug("background refresh failed", "key", key, "error", err)
		}
		done(e, err)
	}()
}
