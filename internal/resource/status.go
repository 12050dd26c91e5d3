package resource

import "time"

// State is the reported state of a resource.
type State string

const (
	// StateFree means nothing holds or waits for the resource.
	StateFree State = "free"

	// StateReserved means a user holds a reservation.
	StateReserved State = "reserved"

	// StateLocked means a build holds the resource for execution.
	StateLocked State = "locked"

	// StateQueued means the resource is free but a claimant is waiting for it.
	StateQueued State = "queued"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Status is the single reported state of one resource. Only the payload
// fields belonging to State are populated.
type Status struct {
	Name  string
	State State

	// Reserved
	ReservedBy string
	OnBehalf   string
	Acquired   time.Time

	// Locked
	Build string

	// Queued
	Claimant string
	Project  string
}

// Derive computes the reported status of r. When several claim fields are
// set at once the first match wins: reserved, then locked, then queued.
func Derive(r Resource) Status {
	st := Status{Name: r.Name}
	switch {
	case r.Reservation != nil:
		st.State = StateReserved
		st.ReservedBy = r.Reservation.By
		st.OnBehalf = r.Reservation.OnBehalf
		st.Acquired = r.Reservation.At
	case r.LockedBy != "":
		st.State = StateLocked
		st.Build = r.LockedBy
	case r.Queued != nil:
		st.State = StateQueued
		st.Claimant = r.Queued.Claimant
		st.Project = r.Queued.Project
	default:
		st.State = StateFree
	}
	return st
}

// QueueLabel is the identifier shown for a queued resource: the originating
// project when known, otherwise the claimant.
func (s Status) QueueLabel() string {
	if s.Project != "" {
		return s.Project
	}
	return s.Claimant
}
