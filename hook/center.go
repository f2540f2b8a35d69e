package hook

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrInterrupt signals that a handler wants to stop further processing.
// For BeforeGhostMove it also cancels the move: the ghost holds its square.
var ErrInterrupt = errors.New("hook interrupted")

// Room events.
const (
	// BeforeGhostMove carries a *world.GhostDecision. Handlers may change
	// its Direction or OK before the move is applied. Runs under the room
	// lock: handlers must not call back into the room.
	BeforeGhostMove = "before_ghost_move"
	// OnModeChange carries a world.ModeEvent.
	OnModeChange = "on_mode_change"
	// OnCapture carries the world.Snapshot of the tick the player was caught.
	OnCapture = "on_capture"
	// AfterTick carries every world.Snapshot.
	AfterTick = "after_tick"
)

// Fn is a hook handler.
// Returns (modified data, nil) to continue, or (data, ErrInterrupt) to stop.
type Fn func(ctx context.Context, event string, data interface{}) (interface{}, error)

type entry struct {
	priority int
	fn       Fn
	name     string
}

// Center manages event hook registrations. Safe for concurrent use.
type Center struct {
	mu    sync.RWMutex
	hooks map[string][]*entry
}

func NewCenter() *Center {
	return &Center{hooks: make(map[string][]*entry)}
}

// Register adds fn for event. Lower priority runs first; equal priorities
// run in registration order. name is used for Unregister.
func (c *Center) Register(event string, priority int, name string, fn Fn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := append(c.hooks[event], &entry{priority: priority, fn: fn, name: name})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})
	c.hooks[event] = entries
}

// Unregister removes all hooks with the given name for the given event.
func (c *Center) Unregister(event, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks[event] = without(c.hooks[event], name)
	if len(c.hooks[event]) == 0 {
		delete(c.hooks, event)
	}
}

// UnregisterAll removes every hook registered under name.
func (c *Center) UnregisterAll(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for event, entries := range c.hooks {
		if kept := without(entries, name); len(kept) > 0 {
			c.hooks[event] = kept
		} else {
			delete(c.hooks, event)
		}
	}
}

func without(entries []*entry, name string) []*entry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.name != name {
			out = append(out, e)
		}
	}
	return out
}

// Has reports whether any hook listens for event. Rooms check it before
// building event payloads.
func (c *Center) Has(event string) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hooks[event]) > 0
}

// Trigger runs the hooks for event in priority order, threading data
// through each. ErrInterrupt stops the chain and is returned. Other errors
// do not stop the chain; they are joined and returned at the end.
func (c *Center) Trigger(ctx context.Context, event string, data interface{}) (interface{}, error) {
	if c == nil {
		return data, nil
	}
	c.mu.RLock()
	entries := make([]*entry, len(c.hooks[event]))
	copy(entries, c.hooks[event])
	c.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		out, err := e.fn(ctx, event, data)
		if errors.Is(err, ErrInterrupt) {
			return out, err
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		data = out
	}
	return data, errors.Join(errs...)
}
