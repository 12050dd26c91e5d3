// Package resource defines the lockable resource record and the status
// derived from its claim fields.
//
// A [Resource] carries three independent claim fields: a reservation made
// by a user, an execution lock held by a build, and a queued-claim marker
// recording that somebody is waiting. [Derive] collapses them into a single
// tagged [Status] using the fixed priority reserved > locked > queued > free,
// so consumers never have to inspect the raw fields in sequence.
package resource

import (
	"slices"
	"time"
)

// Reservation is an advisory claim by a user, optionally made on behalf of
// another user. A nil *Reservation means the resource is not reserved, so
// the delegate and timestamp can only exist together with the owner.
type Reservation struct {
	By       string    `json:"by"`
	OnBehalf string    `json:"on_behalf,omitempty"`
	At       time.Time `json:"at"`
}

// QueuedClaim records a claimant waiting for the resource.
type QueuedClaim struct {
	Ticket   string    `json:"ticket"`
	Claimant string    `json:"claimant"`
	Project  string    `json:"project,omitempty"`
	Since    time.Time `json:"since"`
}

// Resource is a named, labeled resource and its current claim state.
// Values handed out by the registry are copies; mutating them has no
// effect on the registry.
type Resource struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	Reservation *Reservation `json:"reservation,omitempty"`
	LockedBy    string       `json:"locked_by,omitempty"`
	Queued      *QueuedClaim `json:"queued,omitempty"`
}

// IsFree reports whether the resource is neither reserved nor locked.
// A queued marker alone does not make a resource unavailable.
func (r Resource) IsFree() bool {
	return r.Reservation == nil && r.LockedBy == ""
}

// IsReserved reports whether the resource carries a reservation.
func (r Resource) IsReserved() bool {
	return r.Reservation != nil
}

// IsLocked reports whether a build holds the resource.
func (r Resource) IsLocked() bool {
	return r.LockedBy != ""
}

// IsQueued reports whether somebody is waiting for the resource.
func (r Resource) IsQueued() bool {
	return r.Queued != nil
}

// ReservedBy returns the reserving user, or "" when not reserved.
func (r Resource) ReservedBy() string {
	if r.Reservation == nil {
		return ""
	}
	return r.Reservation.By
}

// HasLabel reports whether the resource carries label.
func (r Resource) HasLabel(label string) bool {
	return slices.Contains(r.Labels, label)
}

// Clone returns a deep copy of r.
func (r Resource) Clone() Resource {
	c := r
	c.Labels = slices.Clone(r.Labels)
	if r.Reservation != nil {
		res := *r.Reservation
		c.Reservation = &res
	}
	if r.Queued != nil {
		q := *r.Queued
		c.Queued = &q
	}
	return c
}

// ClearClaims drops every claim field: reservation, lock and queue marker.
func (r *Resource) ClearClaims() {
	r.Reservation = nil
	r.LockedBy = ""
	r.Queued = nil
}

// NormalizeLabels returns labels with blanks removed, deduplicated and in
// first-seen order.
func NormalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" || slices.Contains(out, l) {
			continue
		}
		out = append(out, l)
	}
	return out
}
