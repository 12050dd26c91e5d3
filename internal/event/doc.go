// Package event provides a pub-sub event bus that the registry uses to
// announce claim transitions.
//
// # Event Categories
//
// Claim transitions ([ClaimEvent]):
//   - resource.reserved, resource.unreserved
//   - resource.locked, resource.unlocked
//   - resource.reset
//
// Availability ([FreedEvent]):
//   - resource.freed: a reserved or locked resource became free
//
// Queue ([QueueEvent]):
//   - queue.marked: a claimant joined the line for a resource
//   - queue.cleared: a claimant left the line
//   - queue.promoted: a freed resource is being held for the head of its line
//
// Registry ([ReloadedEvent]):
//   - registry.reloaded: resource definitions were replaced
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously on the publishing goroutine and are protected against
// panics.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	bus.Subscribe(event.TypePromoted, func(e event.Event) {
//	    qe := e.(event.QueueEvent)
//	    log.Printf("%s may retry %s", qe.Claimant, qe.Resource)
//	})
package event
