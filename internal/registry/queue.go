package registry

import (
	"github.com/Iron-Ham/lockable/internal/errors"
	"github.com/Iron-Ham/lockable/internal/event"
	"github.com/Iron-Ham/lockable/internal/resource"
)

// MarkQueued records that claimant waits for the named resource. Marking is
// idempotent per claimant: a repeated call returns the existing entry.
func (r *Registry) MarkQueued(name, claimant, project string) (resource.QueuedClaim, error) {
	if claimant == "" {
		return resource.QueuedClaim{}, errors.NewValidationError("claimant is required").WithField("claimant")
	}

	r.mu.Lock()
	if _, ok := r.resources[name]; !ok {
		r.mu.Unlock()
		return resource.QueuedClaim{}, errors.NewNotFoundError(name)
	}
	qc, added := r.queue.Mark(name, claimant, project)
	r.recordLocked()
	r.mu.Unlock()

	if added {
		r.bus.Publish(event.NewQueueEvent(event.TypeQueued, name, qc.Claimant, qc.Project, qc.Ticket))
		r.metrics.Operation(opQueue, Applied.String())
	}
	r.logger.WithOperation(opQueue).WithResource(name).WithClaimant(claimant).
		Debug("claimant queued", "ticket", qc.Ticket, "added", added)
	return qc, nil
}

// ClearQueued removes the queued-claim marker of the named resource, called
// when the marked claimant's claim succeeded or was abandoned. The next
// claimant in line, if any, becomes the marker and is promoted when the
// resource is free.
func (r *Registry) ClearQueued(name string) error {
	r.mu.Lock()
	if _, ok := r.resources[name]; !ok {
		r.mu.Unlock()
		return errors.NewNotFoundError(name)
	}
	var events []event.Event
	if head, ok := r.queue.Claimant(name); ok {
		events = append(events, event.NewQueueEvent(event.TypeDequeued, name, head.Claimant, head.Project, head.Ticket))
		next, ok := r.queue.Clear(name)
		if ok && r.resources[name].IsFree() {
			events = append(events, event.NewQueueEvent(event.TypePromoted, name, next.Claimant, next.Project, next.Ticket))
		}
	}
	r.recordLocked()
	r.mu.Unlock()

	r.publish(events)
	return nil
}

// CancelQueued withdraws the queue entries with the given tickets, wherever
// they stand in line. It returns the resources entries were removed from.
func (r *Registry) CancelQueued(tickets ...string) []string {
	r.mu.Lock()
	var (
		removed []string
		events  []event.Event
	)
	for _, ticket := range tickets {
		claimant, names := r.queue.FindTicket(ticket)
		for _, name := range names {
			events = append(events, r.cancelLocked(name, claimant)...)
			removed = append(removed, name)
		}
	}
	r.recordLocked()
	r.mu.Unlock()

	r.publish(events)
	if len(removed) > 0 {
		r.logger.WithOperation(opQueue).Debug("queue entries cancelled", "resources", removed)
	}
	return removed
}

// IsQueued reports whether somebody waits for the named resource.
func (r *Registry) IsQueued(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.queue.IsQueued(name)
}

// QueuedClaimant returns the queued-claim marker of the named resource.
func (r *Registry) QueuedClaimant(name string) (resource.QueuedClaim, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.queue.Claimant(name)
}

// QueueLine returns everybody waiting for the named resource, head first.
func (r *Registry) QueueLine(name string) []resource.QueuedClaim {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.queue.Line(name)
}
