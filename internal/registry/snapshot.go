package registry

import (
	"slices"

	"github.com/Iron-Ham/lockable/internal/event"
	"github.com/Iron-Ham/lockable/internal/resource"
)

// ClaimRecord is the persisted claim state of one resource.
type ClaimRecord struct {
	Name        string                 `json:"name"`
	Reservation *resource.Reservation  `json:"reservation,omitempty"`
	LockedBy    string                 `json:"locked_by,omitempty"`
	Queue       []resource.QueuedClaim `json:"queue,omitempty"`
}

// Snapshot returns the claim state of every resource that has any, in
// declaration order.
func (r *Registry) Snapshot() []ClaimRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ClaimRecord
	for _, name := range r.order {
		rec := r.claimRecordLocked(name)
		if rec.Reservation == nil && rec.LockedBy == "" && len(rec.Queue) == 0 {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Restore replaces all claim state with records. Resources without a
// record become free. Records naming unknown resources are ignored and
// returned so the caller can report them. Events are published for every
// difference between the previous and the restored state.
func (r *Registry) Restore(records []ClaimRecord) []string {
	r.mu.Lock()
	before := make(map[string]ClaimRecord, len(r.order))
	for _, name := range r.order {
		before[name] = r.claimRecordLocked(name)
		r.resources[name].ClearClaims()
		r.queue.ClearAll(name)
	}

	var unknown []string
	for _, rec := range records {
		res, ok := r.resources[rec.Name]
		if !ok {
			unknown = append(unknown, rec.Name)
			continue
		}
		if rec.Reservation != nil {
			rsv := *rec.Reservation
			res.Reservation = &rsv
		}
		res.LockedBy = rec.LockedBy
		r.queue.Restore(rec.Name, rec.Queue)
	}

	var events []event.Event
	for _, name := range r.order {
		events = append(events, r.restoredLocked(before[name])...)
	}
	r.recordLocked()
	r.mu.Unlock()

	r.publish(events)
	if len(unknown) > 0 {
		r.logger.WithOperation(opRestore).Warn("dropping claims for unknown resources", "resources", unknown)
	}
	return unknown
}

// claimRecordLocked returns the claim state of the named resource.
func (r *Registry) claimRecordLocked(name string) ClaimRecord {
	res := r.resources[name]
	rec := ClaimRecord{Name: name, LockedBy: res.LockedBy, Queue: r.queue.Line(name)}
	if res.Reservation != nil {
		rsv := *res.Reservation
		rec.Reservation = &rsv
	}
	return rec
}

// restoredLocked returns the events that turn prev into the current claim
// state of the same resource.
func (r *Registry) restoredLocked(prev ClaimRecord) []event.Event {
	cur := r.claimRecordLocked(prev.Name)
	var events []event.Event

	switch {
	case cur.Reservation != nil && !sameReservation(prev.Reservation, cur.Reservation):
		events = append(events, event.NewReservedEvent(prev.Name, cur.Reservation.By, cur.Reservation.OnBehalf))
	case cur.Reservation == nil && prev.Reservation != nil:
		events = append(events, event.NewClaimEvent(event.TypeUnreserved, prev.Name, prev.Reservation.By))
	}
	if prev.LockedBy != cur.LockedBy {
		if prev.LockedBy != "" {
			events = append(events, event.NewClaimEvent(event.TypeUnlocked, prev.Name, prev.LockedBy))
		}
		if cur.LockedBy != "" {
			events = append(events, event.NewClaimEvent(event.TypeLocked, prev.Name, cur.LockedBy))
		}
	}
	wasFree := prev.Reservation == nil && prev.LockedBy == ""
	if res := r.resources[prev.Name]; !wasFree && res.IsFree() {
		events = append(events, event.NewFreedEvent(prev.Name, append([]string(nil), res.Labels...)))
	}

	for _, qc := range cur.Queue {
		if !hasTicket(prev.Queue, qc.Ticket) {
			events = append(events, event.NewQueueEvent(event.TypeQueued, prev.Name, qc.Claimant, qc.Project, qc.Ticket))
		}
	}
	for _, qc := range prev.Queue {
		if !hasTicket(cur.Queue, qc.Ticket) {
			events = append(events, event.NewQueueEvent(event.TypeDequeued, prev.Name, qc.Claimant, qc.Project, qc.Ticket))
		}
	}
	return events
}

func sameReservation(a, b *resource.Reservation) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.By == b.By && a.OnBehalf == b.OnBehalf && a.At.Equal(b.At)
}

func hasTicket(line []resource.QueuedClaim, ticket string) bool {
	return slices.ContainsFunc(line, func(qc resource.QueuedClaim) bool {
		return qc.Ticket == ticket
	})
}
