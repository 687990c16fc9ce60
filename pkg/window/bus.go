// Package window models window-level listeners (resize, clicks outside the
// graph) as explicit subscriptions that their owner must release.
package window

import (
	"sort"
	"sync"
)

// Kind is the type of a window event
type Kind string

const (
	KindClick  Kind = "click"
	KindResize Kind = "resize"
)

// TargetKind says what a click landed on
type TargetKind string

const (
	TargetNode       TargetKind = "node"
	TargetPanel      TargetKind = "panel"
	TargetBackground TargetKind = "background"
)

// Target is the element a click landed on. ID is set for nodes.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id,omitempty"`
}

// Event is dispatched to subscribers of its Kind
type Event struct {
	Kind   Kind
	Target Target
	Width  float64
	Height float64
}

// Handler receives window events
type Handler func(Event)

// Bus fans window events out to subscribers in subscription order
type Bus struct {
	mu       sync.Mutex
	next     int
	handlers map[Kind]map[int]Handler
}

// NewBus returns an empty bus
func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind]map[int]Handler)}
}

// Subscribe registers h for events of kind. The subscription stays active
// until Release is called.
func (b *Bus) Subscribe(kind Kind, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	if b.handlers[kind] == nil {
		b.handlers[kind] = make(map[int]Handler)
	}
	b.handlers[kind][id] = h

	return &Subscription{bus: b, kind: kind, id: id}
}

// Dispatch calls every handler subscribed to e.Kind and returns how many
// were called. Handlers may release subscriptions while being dispatched.
func (b *Bus) Dispatch(e Event) int {
	b.mu.Lock()
	subs := b.handlers[e.Kind]
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler, len(ids))
	for i, id := range ids {
		handlers[i] = subs[id]
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(e)
	}
	return len(handlers)
}

// Len returns the number of active subscriptions
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, subs := range b.handlers {
		total += len(subs)
	}
	return total
}

func (b *Bus) remove(kind Kind, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.handlers[kind], id)
	if len(b.handlers[kind]) == 0 {
		delete(b.handlers, kind)
	}
}

// Subscription is a registered handler
type Subscription struct {
	bus  *Bus
	kind Kind
	id   int
	once sync.Once
}

// Release unregisters the handler. It is safe to call more than once and on
// a nil subscription.
func (s *Subscription) Release() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.kind, s.id)
	})
}
