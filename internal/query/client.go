package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FetchFunc loads the payload for one key. The context is cancelled when the
// Client is closed. A fetch whose entry was removed meanwhile is not
// cancelled; its result is dropped on arrival.
type FetchFunc func(ctx context.Context) (any, error)

// Options configure a Client.
type Options struct {
	Logger *zap.Logger

	// StaleAfter marks successful data as stale once it is older than this,
	// so the next Ensure refetches it. Zero keeps data fresh until invalidated.
	StaleAfter time.Duration

	// GCAfter removes entries that have had no subscribers for this long.
	// Zero keeps idle entries for the life of the Client.
	GCAfter time.Duration

	// OnIdle is called (outside any lock) when an entry loses its last
	// subscriber. Callers can use it with Remove to apply their own eviction.
	OnIdle func(Key)

	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// Client is the shared registry of query entries. The zero value is not
// usable; construct one with New.
type Client struct {
	opts   Options
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	entries    map[string]*entry
	generation uint64
	version    uint64
	nextSubID  uint64
	closed     bool
}

type entry struct {
	key   Key
	state State
	fetch FetchFunc // latest fetch supplied by an enabled subscriber
	stale bool
	subs  map[uint64]*Subscription
	gc    *time.Timer
}

// pending is a fetch that must be started once the lock is released.
type pending struct {
	key   Key
	keyID string
	gen   uint64
	fetch FetchFunc
}

// notice is a state change that must be fanned out once the lock is released.
type notice struct {
	state State
	subs  []*Subscription
}

func (n notice) send() {
	for _, sub := range n.subs {
		sub.deliver(n.state)
	}
}

// New builds a Client.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		opts:    opts,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
	}
}

// Ensure registers a subscriber for key. When enabled is true and the entry
// is idle, failed, or stale, a fetch is started; an entry that is already
// loading is joined instead, so concurrent callers share one request. The
// returned subscription has the current state queued on its Changes channel.
func (c *Client) Ensure(key Key, fetch FetchFunc, enabled bool) *Subscription {
	key = key.Clone()
	sub := &Subscription{
		client:  c,
		changes: make(chan State, 1),
	}

	c.mu.Lock()
	c.nextSubID++
	sub.id = c.nextSubID
	sub.target(key.String())
	e := c.entryLocked(key)
	run := c.attachLocked(sub, e, fetch, enabled)
	n := c.noticeLocked(e)
	c.mu.Unlock()

	n.send()
	c.launch(run)
	return sub
}

// Invalidate marks key as stale. If the entry has an enabled subscriber it is
// refetched right away. An entry that is already loading keeps its running
// fetch; one more fetch starts after that one settles.
func (c *Client) Invalidate(key Key) {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.stale = true
	if e.state.Status == StatusLoading || !c.hasEnabledLocked(e) {
		c.mu.Unlock()
		return
	}
	run := c.beginLocked(e)
	n := c.noticeLocked(e)
	c.mu.Unlock()

	n.send()
	c.launch(run)
}

// Remove drops the entry for key when it has no subscribers and reports
// whether it did. A fetch still in flight for the removed entry is discarded
// when it completes.
func (c *Client) Remove(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := key.String()
	e, ok := c.entries[id]
	if !ok || len(e.subs) > 0 {
		return false
	}
	if e.gc != nil {
		e.gc.Stop()
	}
	delete(c.entries, id)
	c.logger.Debug("query entry removed", zap.String("key", id))
	return true
}

// Peek returns the current state for key without subscribing.
func (c *Client) Peek(key Key) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return State{}, false
	}
	return e.state, true
}

// Keys lists the keys that currently have an entry.
func (c *Client) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, len(c.entries))
	for _, e := range c.entries {
		keys = append(keys, e.key.Clone())
	}
	return keys
}

// Subscribers returns how many subscribers are bound to key.
func (c *Client) Subscribers(key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return 0
	}
	return len(e.subs)
}

// Close cancels the context handed to fetches and waits for running fetches
// to return. No new fetches start afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for _, e := range c.entries {
		if e.gc != nil {
			e.gc.Stop()
		}
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Client) now() time.Time {
	if c.opts.Now != nil {
		return c.opts.Now()
	}
	return time.Now()
}

func (c *Client) entryLocked(key Key) *entry {
	id := key.String()
	if e, ok := c.entries[id]; ok {
		return e
	}
	c.version++
	e := &entry{
		key: key,
		state: State{
			Key:     key,
			Status:  StatusIdle,
			keyID:   id,
			version: c.version,
		},
		subs: make(map[uint64]*Subscription),
	}
	c.entries[id] = e
	return e
}

func (c *Client) attachLocked(sub *Subscription, e *entry, fetch FetchFunc, enabled bool) *pending {
	if e.gc != nil {
		e.gc.Stop()
		e.gc = nil
	}
	e.subs[sub.id] = sub
	sub.entry = e
	sub.fetch = fetch
	sub.enabled = enabled && fetch != nil
	if !sub.enabled {
		return nil
	}
	e.fetch = fetch
	if !c.shouldFetchLocked(e) {
		return nil
	}
	return c.beginLocked(e)
}

// detachLocked unbinds sub from its entry and reports whether the entry is
// now idle.
func (c *Client) detachLocked(sub *Subscription) (Key, bool) {
	e := sub.entry
	if e == nil {
		return nil, false
	}
	delete(e.subs, sub.id)
	sub.entry = nil
	if len(e.subs) > 0 {
		return nil, false
	}
	if c.opts.GCAfter > 0 && !c.closed {
		key := e.key
		e.gc = time.AfterFunc(c.opts.GCAfter, func() { c.Remove(key) })
	}
	return e.key, true
}

func (c *Client) idle(key Key) {
	if c.opts.OnIdle != nil {
		c.opts.OnIdle(key)
	}
}

func (c *Client) shouldFetchLocked(e *entry) bool {
	switch e.state.Status {
	case StatusIdle, StatusError:
		return true
	case StatusLoading:
		return false
	default:
		if e.stale {
			return true
		}
		if c.opts.StaleAfter > 0 && c.now().Sub(e.state.UpdatedAt) >= c.opts.StaleAfter {
			return true
		}
		return false
	}
}

func (c *Client) hasEnabledLocked(e *entry) bool {
	if e.fetch == nil {
		return false
	}
	for _, sub := range e.subs {
		if sub.enabled {
			return true
		}
	}
	return false
}

// beginLocked moves e to loading under a fresh generation. The returned
// fetch is counted in wg before the lock is released, so Close cannot miss
// it; the caller must hand it to launch.
func (c *Client) beginLocked(e *entry) *pending {
	if c.closed || e.fetch == nil {
		return nil
	}
	c.wg.Add(1)
	c.generation++
	c.version++
	e.stale = false
	e.state.Status = StatusLoading
	e.state.Generation = c.generation
	e.state.FetchCount++
	e.state.version = c.version
	c.logger.Debug("query fetch started",
		zap.String("key", e.state.keyID),
		zap.Uint64("fingerprint", e.key.Fingerprint()),
		zap.Uint64("generation", c.generation))
	return &pending{key: e.key, keyID: e.state.keyID, gen: c.generation, fetch: e.fetch}
}

func (c *Client) noticeLocked(e *entry) notice {
	subs := make([]*Subscription, 0, len(e.subs))
	for _, sub := range e.subs {
		subs = append(subs, sub)
	}
	return notice{state: e.state, subs: subs}
}

func (c *Client) launch(p *pending) {
	if p == nil {
		return
	}
	go func() {
		defer c.wg.Done()
		data, err := c.run(p)
		c.complete(p, data, err)
	}()
}

func (c *Client) run(p *pending) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return p.fetch(c.ctx)
}

func (c *Client) complete(p *pending, data any, err error) {
	c.mu.Lock()
	e, ok := c.entries[p.keyID]
	if !ok || e.state.Generation != p.gen {
		c.mu.Unlock()
		c.logger.Debug("discarded stale query result",
			zap.String("key", p.keyID),
			zap.Uint64("generation", p.gen))
		return
	}

	c.version++
	now := c.now()
	if err != nil {
		e.state.Status = StatusError
		e.state.Err = Classify(err)
		e.state.ErrorAt = now
		c.logger.Warn("query fetch failed",
			zap.String("key", p.keyID),
			zap.Uint64("generation", p.gen),
			zap.String("kind", string(e.state.Err.Kind)),
			zap.Error(err))
	} else {
		e.state.Status = StatusSuccess
		e.state.Data = data
		e.state.Err = nil
		e.state.UpdatedAt = now
		c.logger.Debug("query fetch succeeded",
			zap.String("key", p.keyID),
			zap.Uint64("generation", p.gen))
	}
	e.state.version = c.version
	settled := c.noticeLocked(e)

	// Invalidated while loading: fetch once more now that this one is done.
	var (
		run      *pending
		followUp notice
	)
	if e.stale && c.hasEnabledLocked(e) {
		run = c.beginLocked(e)
		if run != nil {
			followUp = c.noticeLocked(e)
		}
	}
	c.mu.Unlock()

	settled.send()
	followUp.send()
	c.launch(run)
}
