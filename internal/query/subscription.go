package query

import "sync"

// Subscription binds one consumer to one entry. Consumers read the latest
// state with State or wait on Changes; Close deregisters the consumer but
// keeps the entry cached.
type Subscription struct {
	client *Client
	id     uint64

	// guarded by client.mu
	entry   *entry
	fetch   FetchFunc
	enabled bool
	closed  bool

	mu          sync.Mutex
	keyID       string
	lastVersion uint64
	done        bool
	changes     chan State
}

// State returns the current state of the bound entry.
func (s *Subscription) State() State {
	c := s.client
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.entry == nil {
		return State{}
	}
	return s.entry.state
}

// Key returns the key the subscription is bound to.
func (s *Subscription) Key() Key {
	c := s.client
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.entry == nil {
		return nil
	}
	return s.entry.key.Clone()
}

// Changes delivers state transitions. It holds at most one state: when the
// consumer falls behind only the newest state is kept. The channel is closed
// by Close.
func (s *Subscription) Changes() <-chan State {
	return s.changes
}

// Retarget rebinds the subscription, used when a dependent input changed.
// A different key is treated as a new resource: the old entry keeps its
// cache and the flow restarts on the new one. With the same key only the
// fetch and enabled predicate are updated, so flipping enabled to true
// starts the first fetch.
func (s *Subscription) Retarget(key Key, fetch FetchFunc, enabled bool) {
	c := s.client
	key = key.Clone()

	c.mu.Lock()
	if s.closed {
		c.mu.Unlock()
		return
	}
	var (
		idleKey Key
		idle    bool
	)
	if s.entry != nil && !s.entry.key.Equal(key) {
		idleKey, idle = c.detachLocked(s)
		s.target(key.String())
	}
	e := c.entryLocked(key)
	run := c.attachLocked(s, e, fetch, enabled)
	n := c.noticeLocked(e)
	c.mu.Unlock()

	if idle {
		c.idle(idleKey)
	}
	n.send()
	c.launch(run)
}

// Refetch starts a new fetch for the bound entry unless one is already in
// flight or the subscription is disabled.
func (s *Subscription) Refetch() {
	c := s.client
	c.mu.Lock()
	if s.closed || s.entry == nil || !s.enabled {
		c.mu.Unlock()
		return
	}
	e := s.entry
	var run *pending
	if e.state.Status != StatusLoading {
		e.fetch = s.fetch
		run = c.beginLocked(e)
	}
	n := c.noticeLocked(e)
	c.mu.Unlock()

	n.send()
	c.launch(run)
}

// Close deregisters the subscription and closes its Changes channel. It is
// safe to call more than once.
func (s *Subscription) Close() {
	c := s.client
	c.mu.Lock()
	if s.closed {
		c.mu.Unlock()
		return
	}
	s.closed = true
	idleKey, idle := c.detachLocked(s)
	c.mu.Unlock()

	s.mu.Lock()
	s.done = true
	close(s.changes)
	s.mu.Unlock()

	if idle {
		c.idle(idleKey)
	}
}

func (s *Subscription) target(keyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyID = keyID
	s.lastVersion = 0
	if s.done {
		return
	}
	select {
	case <-s.changes:
	default:
	}
}

// deliver queues st unless it belongs to another key or is older than what
// the consumer already saw.
func (s *Subscription) deliver(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done || st.keyID != s.keyID || st.version <= s.lastVersion {
		return
	}
	s.lastVersion = st.version
	select {
	case <-s.changes:
	default:
	}
	s.changes <- st
}
