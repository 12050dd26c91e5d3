package registry

import (
	"github.com/Iron-Ham/lockable/internal/errors"
	"github.com/Iron-Ham/lockable/internal/event"
	"github.com/Iron-Ham/lockable/internal/resource"
)

// transition mutates one resource under the write lock and reports what it
// did along with the events to publish once the lock is released.
type transition func(res *resource.Resource) (Outcome, []event.Event)

// Reserve reserves each free resource in names for user, optionally on
// behalf of another user. Resources that are already reserved or locked are
// skipped. Reserving also drops user's own queue entry on that resource.
func (r *Registry) Reserve(names []string, user, onBehalf string) (Results, error) {
	if user == "" {
		return nil, errors.NewValidationError("reserving user is required").WithField("user")
	}

	r.mu.Lock()
	at := r.now()
	results, events, err := r.applyLocked(opReserve, names, func(res *resource.Resource) (Outcome, []event.Event) {
		if !res.IsFree() {
			return Skipped, nil
		}
		res.Reservation = &resource.Reservation{By: user, OnBehalf: onBehalf, At: at}
		events := []event.Event{event.NewReservedEvent(res.Name, user, onBehalf)}
		return Applied, append(events, r.cancelLocked(res.Name, user)...)
	})
	r.mu.Unlock()

	r.publish(events)
	r.logResults(opReserve, results, err, "user", user, "on_behalf", onBehalf)
	return results, err
}

// MultiReserve reserves names for user on their own behalf.
func (r *Registry) MultiReserve(names []string, user string) (Results, error) {
	return r.Reserve(names, user, user)
}

// Unreserve clears the reservation of each resource in names. Resources that
// are not reserved are skipped. No ownership check is made; see UnreserveAs.
func (r *Registry) Unreserve(names []string) (Results, error) {
	r.mu.Lock()
	results, events, err := r.applyLocked(opUnreserve, names, unreserve)
	r.mu.Unlock()

	r.publish(events)
	r.logResults(opUnreserve, results, err)
	return results, err
}

// UnreserveAs is Unreserve on behalf of caller. Unless auth reports caller
// as an administrator, every reserved resource in names must be reserved by
// caller; otherwise nothing is changed and an error wrapping
// errors.ErrPermissionDenied is returned. A nil auth grants nobody
// administrator rights.
func (r *Registry) UnreserveAs(names []string, caller string, auth Authorizer) (Results, error) {
	r.mu.Lock()
	if err := r.authorizeLocked(names, caller, auth); err != nil {
		r.mu.Unlock()
		r.metrics.Operation(opUnreserve, "denied")
		r.logger.WithOperation(opUnreserve).WithClaimant(caller).Warn("unreserve denied", "error", err)
		return nil, err
	}
	results, events, err := r.applyLocked(opUnreserve, names, unreserve)
	r.mu.Unlock()

	r.publish(events)
	r.logResults(opUnreserve, results, err, "caller", caller)
	return results, err
}

func (r *Registry) authorizeLocked(names []string, caller string, auth Authorizer) error {
	if auth != nil && auth.IsAdmin(caller) {
		return nil
	}
	for _, name := range names {
		res, ok := r.resources[name]
		if !ok {
			// applyLocked stops here with NotFound; later names are never touched.
			return nil
		}
		if owner := res.ReservedBy(); owner != "" && owner != caller {
			return errors.NewPermissionError(caller, name, owner)
		}
	}
	return nil
}

func unreserve(res *resource.Resource) (Outcome, []event.Event) {
	if res.Reservation == nil {
		return Skipped, nil
	}
	by := res.Reservation.By
	res.Reservation = nil
	return Applied, []event.Event{event.NewClaimEvent(event.TypeUnreserved, res.Name, by)}
}

// Lock marks each resource in names as used by build. Locking is
// unconditional; a resource already locked by the same build is skipped.
// The build's own queue entry on the resource is dropped.
func (r *Registry) Lock(names []string, build BuildContext) (Results, error) {
	if build == nil || build.BuildID() == "" {
		return nil, errors.NewValidationError("build is required").WithField("build")
	}
	id := build.BuildID()

	r.mu.Lock()
	results, events, err := r.applyLocked(opLock, names, func(res *resource.Resource) (Outcome, []event.Event) {
		if res.LockedBy == id {
			return Skipped, nil
		}
		res.LockedBy = id
		events := []event.Event{event.NewClaimEvent(event.TypeLocked, res.Name, id)}
		return Applied, append(events, r.cancelLocked(res.Name, id)...)
	})
	r.mu.Unlock()

	r.publish(events)
	r.logResults(opLock, results, err, "build", id)
	return results, err
}

// Unlock releases each resource in names for reuse: it clears the build lock
// and the reservation. build may be nil for administrative unlocks; it is
// only recorded in the emitted events.
func (r *Registry) Unlock(names []string, build BuildContext) (Results, error) {
	var actor string
	if build != nil {
		actor = build.BuildID()
	}

	r.mu.Lock()
	results, events, err := r.applyLocked(opUnlock, names, func(res *resource.Resource) (Outcome, []event.Event) {
		if res.LockedBy == "" && res.Reservation == nil {
			return Skipped, nil
		}
		res.LockedBy = ""
		res.Reservation = nil
		return Applied, []event.Event{event.NewClaimEvent(event.TypeUnlocked, res.Name, actor)}
	})
	r.mu.Unlock()

	r.publish(events)
	r.logResults(opUnlock, results, err, "build", actor)
	return results, err
}

// Reset clears every claim on each resource in names: reservation, lock and
// the whole queue line. It is an administrative override.
func (r *Registry) Reset(names []string) (Results, error) {
	r.mu.Lock()
	results, events, err := r.applyLocked(opReset, names, func(res *resource.Resource) (Outcome, []event.Event) {
		dropped := r.queue.ClearAll(res.Name)
		if res.IsFree() && dropped == 0 {
			return Skipped, nil
		}
		res.ClearClaims()
		return Applied, []event.Event{event.NewClaimEvent(event.TypeReset, res.Name, "")}
	})
	r.mu.Unlock()

	r.publish(events)
	r.logResults(opReset, results, err)
	return results, err
}

// applyLocked runs t on each named resource in order. It stops at the first
// unknown name, returning a NotFound result for it and an error wrapping
// errors.ErrResourceNotFound. A resource that t turns from unavailable into
// free also yields a freed event and, if somebody is waiting, a promotion.
func (r *Registry) applyLocked(op string, names []string, t transition) (Results, []event.Event, error) {
	var (
		results Results
		events  []event.Event
		err     error
	)
	for _, name := range uniqueNames(names) {
		res, ok := r.resources[name]
		if !ok {
			results = append(results, Result{Resource: name, Outcome: NotFound})
			r.metrics.Operation(op, NotFound.String())
			err = errors.NewNotFoundError(name)
			break
		}

		wasFree := res.IsFree()
		outcome, evs := t(res)
		events = append(events, evs...)
		if outcome == Applied && !wasFree && res.IsFree() {
			events = append(events, r.freedLocked(res)...)
		}
		results = append(results, Result{Resource: name, Outcome: outcome})
		r.metrics.Operation(op, outcome.String())
	}
	r.recordLocked()
	return results, events, err
}

// freedLocked returns the events for res becoming free.
func (r *Registry) freedLocked(res *resource.Resource) []event.Event {
	events := []event.Event{event.NewFreedEvent(res.Name, append([]string(nil), res.Labels...))}
	if qc, ok := r.queue.Promote(res.Name); ok {
		events = append(events, event.NewQueueEvent(event.TypePromoted, res.Name, qc.Claimant, qc.Project, qc.Ticket))
	}
	return events
}

// cancelLocked removes claimant from the line for name. If claimant was the
// head of the line of a free resource, the next claimant is promoted.
func (r *Registry) cancelLocked(name, claimant string) []event.Event {
	pos := r.queue.Position(name, claimant)
	if pos < 0 {
		return nil
	}
	qc := r.queue.Line(name)[pos]
	r.queue.Cancel(name, claimant)

	events := []event.Event{event.NewQueueEvent(event.TypeDequeued, name, qc.Claimant, qc.Project, qc.Ticket)}
	if pos == 0 && r.resources[name].IsFree() {
		if next, ok := r.queue.Promote(name); ok {
			events = append(events, event.NewQueueEvent(event.TypePromoted, name, next.Claimant, next.Project, next.Ticket))
		}
	}
	return events
}

// logResults logs a batch outcome: per-resource changes at DEBUG and an
// aborted batch at WARN.
func (r *Registry) logResults(op string, results Results, err error, args ...any) {
	log := r.logger.WithOperation(op).With(args...)
	for _, res := range results {
		if res.Outcome == NotFound {
			continue
		}
		log.WithResource(res.Resource).Debug("claim transition", "outcome", res.Outcome.String())
	}
	if err != nil {
		logError(log, "batch aborted", err, "processed", len(results))
	}
}
