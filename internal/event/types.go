package event

import "time"

// Event types published by the registry.
const (
	TypeReserved   = "resource.reserved"
	TypeUnreserved = "resource.unreserved"
	TypeLocked     = "resource.locked"
	TypeUnlocked   = "resource.unlocked"
	TypeReset      = "resource.reset"
	TypeFreed      = "resource.freed"
	TypeQueued     = "queue.marked"
	TypeDequeued   = "queue.cleared"
	TypePromoted   = "queue.promoted"
	TypeReloaded   = "registry.reloaded"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "resource.locked").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Claim Events
// -----------------------------------------------------------------------------

// ClaimEvent is emitted for every applied claim transition on one resource.
// Actor is the user for reservations and the build ID for locks; it is
// empty for administrative resets and anonymous unlocks.
type ClaimEvent struct {
	baseEvent
	Resource string
	Actor    string
	OnBehalf string
}

// NewClaimEvent creates a ClaimEvent of the given type.
func NewClaimEvent(eventType, res, actor string) ClaimEvent {
	return ClaimEvent{
		baseEvent: newBaseEvent(eventType),
		Resource:  res,
		Actor:     actor,
	}
}

// NewReservedEvent creates a resource.reserved event.
func NewReservedEvent(res, by, onBehalf string) ClaimEvent {
	e := NewClaimEvent(TypeReserved, res, by)
	e.OnBehalf = onBehalf
	return e
}

// FreedEvent is emitted when a resource transitions from unavailable to free.
type FreedEvent struct {
	baseEvent
	Resource string
	Labels   []string
}

// NewFreedEvent creates a FreedEvent.
func NewFreedEvent(res string, labels []string) FreedEvent {
	return FreedEvent{
		baseEvent: newBaseEvent(TypeFreed),
		Resource:  res,
		Labels:    labels,
	}
}

// -----------------------------------------------------------------------------
// Queue Events
// -----------------------------------------------------------------------------

// QueueEvent is emitted when a claimant joins, leaves or reaches the head of
// the line for a resource.
type QueueEvent struct {
	baseEvent
	Resource string
	Claimant string
	Project  string
	Ticket   string
}

// NewQueueEvent creates a QueueEvent of the given type.
func NewQueueEvent(eventType, res, claimant, project, ticket string) QueueEvent {
	return QueueEvent{
		baseEvent: newBaseEvent(eventType),
		Resource:  res,
		Claimant:  claimant,
		Project:   project,
		Ticket:    ticket,
	}
}

// -----------------------------------------------------------------------------
// Registry Events
// -----------------------------------------------------------------------------

// ReloadedEvent is emitted after the resource definitions were replaced.
type ReloadedEvent struct {
	baseEvent
	Added   []string
	Removed []string
	Updated []string
}

// NewReloadedEvent creates a ReloadedEvent.
func NewReloadedEvent(added, removed, updated []string) ReloadedEvent {
	return ReloadedEvent{
		baseEvent: newBaseEvent(TypeReloaded),
		Added:     added,
		Removed:   removed,
		Updated:   updated,
	}
}
