package query

import (
	"context"
)

// Query pairs a cache key with the function that loads its data
type Query[T any] struct {
	Key   Key
	Fetch func(ctx context.Context) (T, error)
}

// Result is the outcome of running a query. On failure Data is the zero
// value and Err is set; on success Err is nil.
type Result[T any] struct {
	Data      T
	Err       error
	FromCache bool
}

// Fetch returns fresh cached data for q or loads it. Concurrent calls for
// the same key share one in-flight load. Errors from q.Fetch are returned
// as-is and never retried.
func Fetch[T any](ctx context.Context, c *Client, q Query[T]) (T, error) {
	res := Run(ctx, c, q)
	return res.Data, res.Err
}

// Prefetch warms the cache for q, discarding the data
func Prefetch[T any](ctx context.Context, c *Client, q Query[T]) error {
	return Run(ctx, c, q).Err
}

// Run executes q through the cache.
//
// The load itself runs detached from ctx: a caller that gives up (ctx
// cancelled) gets ctx.Err() back immediately, while the shared load keeps
// going and still populates the cache for other observers.
func Run[T any](ctx context.Context, c *Client, q Query[T]) Result[T] {
	k := q.Key.String()

	if data, ok := c.lookup(k); ok {
		if typed, ok := data.(T); ok {
			return Result[T]{Data: typed, FromCache: true}
		}
		c.logger.Warn().Str("key", k).Msg("Cached data has unexpected type, refetching")
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(k, func() (any, error) {
		// A load for this key may have finished between lookup and DoChan
		if data, ok := c.freshData(k); ok {
			if _, ok := data.(T); ok {
				return data, nil
			}
		}

		c.beginFetch(q.Key)
		data, err := q.Fetch(detached)
		c.endFetch(q.Key, data, err)
		if err != nil {
			return nil, err
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return Result[T]{Err: ctx.Err()}
	case r := <-ch:
		c.metrics.singleflight(r.Shared)
		if r.Err != nil {
			return Result[T]{Err: r.Err}
		}
		typed, _ := r.Val.(T)
		return Result[T]{Data: typed}
	}
}

// lookup returns fresh data for k and records the cache outcome
func (c *Client) lookup(k string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	switch {
	case !ok || !e.hasData:
		c.metrics.cacheRequest(CacheMiss)
		return nil, false
	case !c.freshLocked(e):
		c.metrics.cacheRequest(CacheStale)
		return nil, false
	default:
		c.metrics.cacheRequest(CacheHit)
		return e.data, true
	}
}

// freshData is lookup without metrics
func (c *Client) freshData(k string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok || !c.freshLocked(e) {
		return nil, false
	}
	return e.data, true
}

func (c *Client) beginFetch(key Key) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.loading = true
	stopTimer(e)
	snap, fns := e.snapshot(), e.listeners()
	c.mu.Unlock()

	c.logger.Debug().Str("key", key.String()).Msg("Fetching query")
	notify(fns, snap)
}

// endFetch records the outcome of a load. A failed load keeps whatever
// data was cached before.
func (c *Client) endFetch(key Key, data any, err error) {
	k := key.String()

	c.mu.Lock()
	e := c.entryLocked(key)
	e.loading = false
	if err != nil {
		e.err = err
	} else {
		e.data = data
		e.hasData = true
		e.err = nil
		e.invalidated = false
		e.updatedAt = c.now()
	}
	snap, fns := e.snapshot(), e.listeners()
	c.scheduleGCLocked(k, e)
	c.mu.Unlock()

	if err != nil {
		c.metrics.fetch(FetchError)
		c.logger.Debug().Err(err).Str("key", k).Msg("Query fetch failed")
	} else {
		c.metrics.fetch(FetchSuccess)
	}
	notify(fns, snap)
}
