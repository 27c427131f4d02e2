package state

import (
	"sync"
	"sync/atomic"

	"codeberg.org/snonux/deepledit/internal/language"
)

// Container is the single source of truth for the session state.
//
// Observers are notified through a queue: a callback that updates the
// container schedules further notifications rather than being re-entered,
// and updates made by other goroutines while a dispatch is running are
// delivered by the dispatching goroutine. Each observer runs at most once
// per distinct value of its field.
type Container struct {
	mu          sync.Mutex
	current     State
	observers   map[Field][]*observer
	pending     map[Field]struct{}
	dispatching bool
}

type observer struct {
	field   Field
	fn      func(State)
	last    any
	primed  bool
	removed atomic.Bool
}

// New creates a container holding initial
func New(initial State) *Container {
	normalize(&initial)
	return &Container{
		current:   initial,
		observers: make(map[Field][]*observer),
		pending:   make(map[Field]struct{}),
	}
}

// Snapshot returns a copy of the current state
func (c *Container) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Update applies mutate to a copy of the state and publishes the result.
// Assigning a source language that matches the target clears the source.
func (c *Container) Update(mutate func(*State)) {
	c.mu.Lock()
	next := c.current
	mutate(&next)
	normalize(&next)
	for _, f := range Fields() {
		if c.current.Value(f) != next.Value(f) {
			c.pending[f] = struct{}{}
		}
	}
	c.current = next
	c.mu.Unlock()

	c.dispatch()
}

// Load replaces the whole state in one batch. Observers see the final
// values only, once per changed field.
func (c *Container) Load(s State) {
	c.Update(func(cur *State) {
		*cur = s
	})
}

// Observe registers fn for one field. fn runs once with the current state
// and afterwards every time the field changes value. The returned function
// unregisters the observer.
func (c *Container) Observe(field Field, fn func(State)) func() {
	obs := &observer{field: field, fn: fn}

	c.mu.Lock()
	c.observers[field] = append(c.observers[field], obs)
	c.pending[field] = struct{}{}
	c.mu.Unlock()

	c.dispatch()

	return func() {
		obs.removed.Store(true)
		c.mu.Lock()
		defer c.mu.Unlock()
		list := c.observers[field]
		for i, candidate := range list {
			if candidate == obs {
				c.observers[field] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

func (c *Container) dispatch() {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	c.dispatching = true
	c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.mu.Lock()
			c.dispatching = false
			c.mu.Unlock()
			panic(r)
		}
	}()

	for {
		snapshot, due, ok := c.takePending()
		if !ok {
			return
		}
		for _, obs := range due {
			obs.notify(snapshot)
		}
	}
}

// takePending drains the pending set. When nothing is left it ends the
// dispatch under the same lock so no update can be stranded.
func (c *Container) takePending() (State, []*observer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		c.dispatching = false
		return State{}, nil, false
	}

	var due []*observer
	for _, f := range Fields() {
		if _, ok := c.pending[f]; !ok {
			continue
		}
		due = append(due, c.observers[f]...)
	}
	c.pending = make(map[Field]struct{})
	return c.current, due, true
}

func (o *observer) notify(snapshot State) {
	if o.removed.Load() {
		return
	}
	value := snapshot.Value(o.field)
	if o.primed && o.last == value {
		return
	}
	o.primed = true
	o.last = value
	o.fn(snapshot)
}

func normalize(s *State) {
	if language.Same(s.TargetLanguage, s.SourceLanguage) {
		s.SourceLanguage = ""
	}
	if s.TranslationMode == "" {
		s.TranslationMode = ModeReplace
	}
}
