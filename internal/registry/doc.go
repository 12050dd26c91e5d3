// Package registry is the authoritative, lock-guarded table of lockable
// resources and the state machine that moves them between claim states.
//
// # Claim States
//
// Each resource is free, reserved by a user (optionally on behalf of another
// user), locked by a build, or any combination of those with an independent
// queued-claim marker on top. resource.Derive reports exactly one of them.
//
//	Reserve    free resources only; reserved or locked ones are skipped
//	Unreserve  clears the reservation; a no-op when not reserved
//	Lock       sets the build lock unconditionally
//	Unlock     clears the lock and the reservation
//	Reset      clears everything including the queue
//
// # Batches
//
// Mutations take a list of names and return one Result per name processed.
// A batch is applied name by name: an unknown name stops the batch with an
// error wrapping errors.ErrResourceNotFound, and names applied before it stay
// applied. Reserve is best-effort per resource, never all-or-nothing.
//
// # Concurrency
//
// A single sync.RWMutex guards both the resource table and the queue
// coordinator. Readers always receive deep copies taken under the read lock,
// so they see one point in time and never a torn write. Acquire selects and
// locks resources inside one critical section, which is what prevents two
// callers from both claiming the same free resource. Events are published
// after the lock is released; handlers may call back into the registry.
//
// # Queueing
//
// Acquire queues a claimant that cannot be satisfied on every matching
// resource, free ones included. Lines are ordered by arrival, so the oldest
// waiter heads every line it stands in and a newcomer never takes a
// resource an older waiter matches. When a queued resource becomes free the
// registry publishes event.TypePromoted for the head claimant and holds the
// resource for it: label-based acquisition by anybody else skips it. The head claims
// it by retrying (AcquireWithRetry does that with exponential backoff).
// Named Lock calls are not held back by queue markers.
package registry
