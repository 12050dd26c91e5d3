package registry

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Iron-Ham/lockable/internal/allocation"
	"github.com/Iron-Ham/lockable/internal/errors"
	"github.com/Iron-Ham/lockable/internal/event"
	"github.com/Iron-Ham/lockable/internal/resource"
	"github.com/cenkalti/backoff/v4"
)

// Request asks for Count resources for a build, either by label predicate
// or from an explicit list of names. Exactly one of Predicate and Names must
// be set.
type Request struct {
	Predicate allocation.Predicate
	Names     []string

	// Count defaults to 1 for predicate requests and to len(Names) for
	// named requests.
	Count int

	// Claimant identifies the waiter in queue lines. Defaults to the
	// build ID.
	Claimant string
	// Project is recorded on queue markers. Defaults to Build.Project().
	Project string

	Build BuildContext
}

// Grant is the result of an acquisition attempt.
type Grant struct {
	// Resources lists the resources locked for the build, empty when the
	// request had to wait.
	Resources []string
	// Queued lists the queue entries the claimant holds when the request
	// could not be satisfied.
	Queued []resource.QueuedClaim
}

// Tickets returns the ticket of every queue entry in g.
func (g Grant) Tickets() []string {
	out := make([]string, 0, len(g.Queued))
	for _, qc := range g.Queued {
		out = append(out, qc.Ticket)
	}
	return out
}

func (req Request) normalize() (Request, error) {
	if req.Build == nil || req.Build.BuildID() == "" {
		return req, errors.NewValidationError("build is required").WithField("build")
	}
	if req.Claimant == "" {
		req.Claimant = req.Build.BuildID()
	}
	if req.Project == "" {
		req.Project = req.Build.Project()
	}
	if req.Count < 0 {
		return req, errors.NewValidationError("count must not be negative").WithField("count").WithValue(req.Count)
	}

	switch {
	case req.Predicate != nil && len(req.Names) > 0:
		return req, errors.NewValidationError("set either names or a predicate, not both")
	case len(req.Names) > 0:
		req.Names = uniqueNames(req.Names)
		if req.Count == 0 {
			req.Count = len(req.Names)
		}
		if req.Count > len(req.Names) {
			return req, errors.NewValidationError("count exceeds the number of named resources").
				WithField("count").WithValue(req.Count)
		}
	case req.Predicate != nil:
		if req.Count == 0 {
			req.Count = 1
		}
	default:
		return req, errors.NewValidationError("names or a predicate are required")
	}
	return req, nil
}

// Acquire locks req.Count resources for req.Build in one critical section.
// Selection and claim cannot interleave with another caller, so a free
// resource is handed to exactly one of several concurrent requests.
//
// Acquisition is all-or-nothing for the count. When too few resources are
// available the claimant is queued on every matching resource, nothing is
// locked, and the returned error wraps errors.ErrQueued. A free resource
// whose line is headed by another claimant counts as unavailable. A
// request that could never be satisfied because fewer than Count resources
// match at all fails with errors.ErrInvalidRequest and queues nothing.
func (r *Registry) Acquire(req Request) (Grant, error) {
	start := time.Now()
	grant, err := r.acquire(req)
	r.metrics.ObserveAcquire(time.Since(start).Seconds(), err == nil)
	return grant, err
}

func (r *Registry) acquire(req Request) (Grant, error) {
	req, err := req.normalize()
	if err != nil {
		return Grant{}, err
	}

	r.mu.Lock()
	grant, events, err := r.acquireLocked(req)
	r.mu.Unlock()

	r.publish(events)

	log := r.logger.WithOperation(opAcquire).WithClaimant(req.Claimant)
	switch {
	case err == nil:
		log.Debug("resources acquired", "resources", grant.Resources, "build", req.Build.BuildID())
	case errors.Is(err, errors.ErrQueued):
		log.Debug("claim queued", "queued_on", len(grant.Queued))
	default:
		logError(log, "acquire failed", err)
	}
	return grant, err
}

func (r *Registry) acquireLocked(req Request) (Grant, []event.Event, error) {
	candidates, pred, err := r.candidatesLocked(req)
	if err != nil {
		r.metrics.Operation(opAcquire, NotFound.String())
		return Grant{}, nil, err
	}

	matching := allocation.Matching(candidates, pred)
	if len(matching) < req.Count {
		r.metrics.Operation(opAcquire, "invalid")
		return Grant{}, nil, errors.NewValidationError(
			fmt.Sprintf("%d resources requested but only %d match %s", req.Count, len(matching), pred),
		).WithField("count")
	}

	selected := allocation.SelectFor(candidates, pred, req.Count, req.Claimant)
	if len(selected) < req.Count {
		var grant Grant
		var events []event.Event
		// Every match is queued on, free ones included: the oldest waiter
		// heads each of its lines.
		for _, res := range matching {
			qc, added := r.queue.Mark(res.Name, req.Claimant, req.Project)
			grant.Queued = append(grant.Queued, qc)
			if added {
				events = append(events, event.NewQueueEvent(event.TypeQueued, res.Name, qc.Claimant, qc.Project, qc.Ticket))
			}
		}
		r.recordLocked()
		r.metrics.Operation(opAcquire, "queued")
		return grant, events, errors.NewClaimError(req.Claimant, req.Count, len(selected))
	}

	id := req.Build.BuildID()
	var grant Grant
	var events []event.Event
	for _, s := range selected {
		r.resources[s.Name].LockedBy = id
		grant.Resources = append(grant.Resources, s.Name)
		events = append(events, event.NewClaimEvent(event.TypeLocked, s.Name, id))
		r.metrics.Operation(opAcquire, Applied.String())
	}
	// The claimant is served; leave every line it was waiting in.
	for _, c := range matching {
		events = append(events, r.cancelLocked(c.Name, req.Claimant)...)
	}
	r.recordLocked()
	return grant, events, nil
}

// candidatesLocked returns the resources a request chooses from and the
// predicate to apply to them.
func (r *Registry) candidatesLocked(req Request) ([]resource.Resource, allocation.Predicate, error) {
	if len(req.Names) == 0 {
		return r.viewsLocked(), req.Predicate, nil
	}
	out := make([]resource.Resource, 0, len(req.Names))
	for _, name := range req.Names {
		res, ok := r.resources[name]
		if !ok {
			return nil, nil, errors.NewNotFoundError(name)
		}
		out = append(out, r.viewLocked(res))
	}
	return out, allocation.AnyLabel(), nil
}

// AcquireWithRetry calls Acquire until it succeeds, fails permanently, or b
// or ctx gives up. Between attempts the claimant stays queued, so it keeps
// its place in line; when it gives up its queue entries are cancelled.
// b is stateful and must not be shared between calls.
func (r *Registry) AcquireWithRetry(ctx context.Context, req Request, b backoff.BackOff) (Grant, error) {
	start := time.Now()
	var (
		grant   Grant
		tickets []string
	)
	err := backoff.Retry(func() error {
		g, err := r.acquire(req)
		if err == nil {
			grant = g
			return nil
		}
		if errors.IsRetryable(err) {
			for _, t := range g.Tickets() {
				if !slices.Contains(tickets, t) {
					tickets = append(tickets, t)
				}
			}
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(b, ctx))

	if err != nil && len(tickets) > 0 {
		r.CancelQueued(tickets...)
	}
	r.metrics.ObserveAcquire(time.Since(start).Seconds(), err == nil)
	return grant, err
}
