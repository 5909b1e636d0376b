package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"kit-messenger/internal/models"
	"kit-messenger/internal/store"
)

// Event types published to subscribers.
const (
	EventStateReplaced  = "state.replaced"
	EventSessionRevoked = "session.revoked"
	EventCallEnded      = "call.ended"
)

// Event is a change notification. UserID and SessionID are set for session
// events, TargetID for call events.
type Event struct {
	Type      string `json:"type"`
	Revision  uint64 `json:"revision"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	TargetID  string `json:"target_id,omitempty"`
}

// Listener receives events outside of the container lock.
type Listener func(Event)

// Persister reads and flushes a full state. Read reports a corrupt payload
// with an error wrapping store.ErrCorrupt.
type Persister interface {
	Read(ctx context.Context) (models.AppState, error)
	Save(ctx context.Context, state models.AppState) error
}

// Container owns the single application state. Every mutation goes through
// Update, which flushes the new state before any reader can observe it.
type Container struct {
	mu        sync.Mutex
	current   models.AppState
	revision  uint64
	persister Persister

	lmu       sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

// New constructs a Container around an already loaded state.
func New(persister Persister, initial models.AppState) *Container {
	return &Container{
		current:   initial,
		persister: persister,
		listeners: make(map[int]Listener),
	}
}

// Update applies fn to a copy of the state, persists it and swaps it in.
// When fn or the flush fails the previous state stays current.
//
// The session table is owned by the durable slot: other devices add and
// revoke sessions there. Before flushing, the session changes made by fn are
// replayed onto the table as currently saved, so a session revoked elsewhere
// is never written back.
func (c *Container) Update(ctx context.Context, fn func(*models.AppState) error) error {
	c.mu.Lock()
	next := c.current.Clone()
	if err := fn(&next); err != nil {
		c.mu.Unlock()
		return err
	}

	durable, err := c.persister.Read(ctx)
	switch {
	case err == nil:
		next.Sessions = mergeSessions(c.current.Sessions, next.Sessions, durable.Sessions)
	case errors.Is(err, store.ErrCorrupt):
		// nothing to merge with; the flush below replaces the payload
	default:
		c.mu.Unlock()
		return fmt.Errorf("refresh sessions: %w", err)
	}

	if err := c.persister.Save(ctx, next); err != nil {
		c.mu.Unlock()
		return err
	}
	c.current = next
	c.revision++
	rev := c.revision
	c.mu.Unlock()

	c.Publish(Event{Type: EventStateReplaced, Revision: rev})
	return nil
}

// View runs fn with read access to the current state. fn must not retain or
// modify anything reachable from the pointer.
func (c *Container) View(fn func(*models.AppState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.current)
}

// Snapshot returns a deep copy of the current state.
func (c *Container) Snapshot() models.AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}

// Revision counts successful updates since construction.
func (c *Container) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

// Subscribe registers l and returns a func that removes it.
func (c *Container) Subscribe(l Listener) func() {
	c.lmu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.lmu.Lock()
			delete(c.listeners, id)
			c.lmu.Unlock()
		})
	}
}

// Publish delivers ev to every listener.
func (c *Container) Publish(ev Event) {
	c.lmu.RLock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.lmu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}

// mergeSessions applies the difference between base and local on top of
// durable. Sessions added or removed locally are added or removed; sessions
// only known to durable are kept; sessions missing from durable that local did
// not add stay gone.
func mergeSessions(base, local, durable []models.Session) []models.Session {
	inBase := make(map[string]bool, len(base))
	for _, s := range base {
		inBase[s.ID] = true
	}
	inLocal := make(map[string]int, len(local))
	for i, s := range local {
		inLocal[s.ID] = i
	}

	out := make([]models.Session, 0, len(durable)+len(local))
	seen := make(map[string]bool, len(durable))
	for _, s := range durable {
		seen[s.ID] = true
		if i, ok := inLocal[s.ID]; ok {
			out = append(out, local[i])
			continue
		}
		if inBase[s.ID] {
			continue
		}
		out = append(out, s)
	}
	for _, s := range local {
		if !seen[s.ID] && !inBase[s.ID] {
			out = append(out, s)
		}
	}
	return out
}
