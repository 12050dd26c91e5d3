package event

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
)

// Handler is a function that handles an event.
type Handler func(Event)

// PanicHandler receives a recovered handler panic and its stack trace.
type PanicHandler func(e Event, recovered any, stack []byte)

// subscription represents a registered event handler.
type subscription struct {
	id      string
	handler Handler
}

// Bus is a synchronous pub-sub event bus.
// The registry publishes claim transitions on it after releasing its own
// lock, so handlers may call back into the registry.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]subscription // eventType -> subscriptions
	nextID        atomic.Uint64
	onPanic       PanicHandler
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithPanicHandler sets the function called when a handler panics.
// The default prints the panic to stderr via fmt.
func WithPanicHandler(h PanicHandler) BusOption {
	return func(b *Bus) {
		b.onPanic = h
	}
}

// NewBus creates a new event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subscriptions: make(map[string][]subscription),
		onPanic: func(e Event, r any, stack []byte) {
			fmt.Fprintf(os.Stderr, "ERROR: event handler panicked for event %s: %v\n%s", e.EventType(), r, stack)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for a specific event type.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := "sub-" + strconv.FormatUint(b.nextID.Add(1), 10)
	b.subscriptions[eventType] = append(b.subscriptions[eventType], subscription{
		id:      id,
		handler: handler,
	})
	return id
}

// SubscribeAll registers a handler for all event types.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe("*", handler)
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription was found and removed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.id == id {
				b.subscriptions[eventType] = append(subs[:i:i], subs[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Publish dispatches an event to all registered handlers.
// Specific handlers are called first, followed by wildcard handlers.
// Within each group, handlers are called in registration order.
// A panicking handler is recovered and reported; remaining handlers still run.
// Publishing on a nil Bus is a no-op.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	eventType := event.EventType()
	subs := make([]subscription, 0, len(b.subscriptions[eventType])+len(b.subscriptions["*"]))
	subs = append(subs, b.subscriptions[eventType]...)
	subs = append(subs, b.subscriptions["*"]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.safeCall(sub.handler, event)
	}
}

// safeCall invokes a handler and recovers from any panics.
func (b *Bus) safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.onPanic(event, r, debug.Stack())
		}
	}()
	handler(event)
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = make(map[string][]subscription)
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}
