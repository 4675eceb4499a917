package query

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Options controls freshness and idle eviction
type Options struct {
	// StaleTime is how long fetched data is served without refetching
	StaleTime time.Duration
	// GCTime is how long an entry with no observers is kept
	GCTime time.Duration
}

// DefaultOptions returns the application defaults: 5 minutes fresh,
// collected 10 minutes after the last observer leaves
func DefaultOptions() Options {
	return Options{
		StaleTime: 5 * time.Minute,
		GCTime:    10 * time.Minute,
	}
}

// Entry is a read-only snapshot of a cached query
type Entry struct {
	Key         Key
	Data        any
	HasData     bool
	Err         error
	Loading     bool
	Invalidated bool
	UpdatedAt   time.Time
	Observers   int
}

// entry is the mutable cache record, only touched under Client.mu
type entry struct {
	key         Key
	data        any
	hasData     bool
	err         error
	loading     bool
	invalidated bool
	updatedAt   time.Time

	observers map[int]func(Entry)
	nextID    int
	gcTimer   *time.Timer
	gcGen     uint64
}

func (e *entry) snapshot() Entry {
	return Entry{
		Key:         e.key,
		Data:        e.data,
		HasData:     e.hasData,
		Err:         e.err,
		Loading:     e.loading,
		Invalidated: e.invalidated,
		UpdatedAt:   e.updatedAt,
		Observers:   len(e.observers),
	}
}

func (e *entry) listeners() []func(Entry) {
	fns := make([]func(Entry), 0, len(e.observers))
	for _, fn := range e.observers {
		fns = append(fns, fn)
	}
	return fns
}

// Client is the shared query cache. It is safe for concurrent use and is
// meant to be created once per process and passed to whoever needs it.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	metrics *Metrics
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	group singleflight.Group
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithClock overrides the time source used for freshness checks
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// WithMetrics records cache activity on m
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a query cache. Zero durations in opts fall back to
// DefaultOptions.
func NewClient(opts Options, logger zerolog.Logger, clientOpts ...ClientOption) *Client {
	defaults := DefaultOptions()
	if opts.StaleTime <= 0 {
		opts.StaleTime = defaults.StaleTime
	}
	if opts.GCTime <= 0 {
		opts.GCTime = defaults.GCTime
	}

	c := &Client{
		opts:    opts,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}

	for _, opt := range clientOpts {
		opt(c)
	}

	return c
}

// Options returns the client's freshness settings
func (c *Client) Options() Options {
	return c.opts
}

// Get returns a snapshot of the entry for key
func (c *Client) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return Entry{}, false
	}
	return e.snapshot(), true
}

// Set stores value as freshly fetched data for key
func (c *Client) Set(key Key, value any) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.data = value
	e.hasData = true
	e.err = nil
	e.invalidated = false
	e.updatedAt = c.now()
	snap, fns := e.snapshot(), e.listeners()
	c.scheduleGCLocked(key.String(), e)
	c.mu.Unlock()

	notify(fns, snap)
}

// Invalidate marks key stale so the next fetch goes to the backend.
// Cached data stays readable until then.
func (c *Client) Invalidate(key Key) {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.invalidated = true
	snap, fns := e.snapshot(), e.listeners()
	c.mu.Unlock()

	notify(fns, snap)
}

// InvalidatePrefix invalidates every entry whose key name starts with
// prefix and returns how many were marked
func (c *Client) InvalidatePrefix(prefix string) int {
	type pending struct {
		snap Entry
		fns  []func(Entry)
	}

	c.mu.Lock()
	var notifications []pending
	for _, e := range c.entries {
		if !strings.HasPrefix(e.key.Name, prefix) {
			continue
		}
		e.invalidated = true
		notifications = append(notifications, pending{e.snapshot(), e.listeners()})
	}
	c.mu.Unlock()

	for _, n := range notifications {
		notify(n.fns, n.snap)
	}
	return len(notifications)
}

// Remove drops the entry for key regardless of observers
func (c *Client) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key.String()
	if e, ok := c.entries[k]; ok {
		stopTimer(e)
		delete(c.entries, k)
	}
}

// Clear drops every entry
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		stopTimer(e)
	}
	c.entries = make(map[string]*entry)
}

// Len returns the number of cached entries
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Subscribe registers fn to receive a snapshot whenever the entry for key
// changes. The returned function detaches the observer; once the last
// observer is gone the entry becomes eligible for idle eviction.
func (c *Client) Subscribe(key Key, fn func(Entry)) func() {
	k := key.String()

	c.mu.Lock()
	e := c.entryLocked(key)
	stopTimer(e)
	id := e.nextID
	e.nextID++
	e.observers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()

			// The entry may have been removed or replaced meanwhile
			current, ok := c.entries[k]
			if !ok || current != e {
				return
			}
			delete(e.observers, id)
			c.scheduleGCLocked(k, e)
		})
	}
}

// Close stops pending eviction timers. The cache stays readable.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for _, e := range c.entries {
		stopTimer(e)
	}
}

// entryLocked returns the entry for key, creating it if needed
func (c *Client) entryLocked(key Key) *entry {
	k := key.String()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{
			key:       key,
			observers: make(map[int]func(Entry)),
		}
		c.entries[k] = e
	}
	return e
}

// freshLocked reports whether e can be served without refetching
func (c *Client) freshLocked(e *entry) bool {
	if !e.hasData || e.err != nil || e.invalidated {
		return false
	}
	return c.now().Sub(e.updatedAt) < c.opts.StaleTime
}

// scheduleGCLocked arms the idle eviction timer when nobody observes e
func (c *Client) scheduleGCLocked(k string, e *entry) {
	if c.closed || len(e.observers) > 0 || e.loading {
		return
	}
	stopTimer(e)

	e.gcGen++
	gen := e.gcGen
	e.gcTimer = time.AfterFunc(c.opts.GCTime, func() {
		c.collect(k, e, gen)
	})
}

// collect evicts e if it is still idle and the timer wasn't superseded
func (c *Client) collect(k string, e *entry, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.entries[k]
	if !ok || current != e || e.gcTimer == nil || e.gcGen != gen {
		return
	}
	if len(e.observers) > 0 || e.loading {
		return
	}

	delete(c.entries, k)
	c.metrics.eviction()
	c.logger.Debug().Str("key", k).Msg("Evicted idle query")
}

func stopTimer(e *entry) {
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
}

func notify(fns []func(Entry), snap Entry) {
	for _, fn := range fns {
		fn(snap)
	}
}
