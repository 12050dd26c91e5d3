package registry

// Outcome is what a batch operation did to one resource.
type Outcome int

const (
	// Applied means the transition changed the resource.
	Applied Outcome = iota
	// Skipped means the resource was left as it was: already in the target
	// state, or (for Reserve) held by somebody else.
	Skipped
	// NotFound means no resource has that name. It is always the last
	// result of a batch.
	NotFound
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Result is the outcome for one named resource.
type Result struct {
	Resource string
	Outcome  Outcome
}

// Results lists per-resource outcomes in request order. Names after a
// NotFound are not processed and have no entry.
type Results []Result

// Names returns the resources whose outcome is o.
func (rs Results) Names(o Outcome) []string {
	var out []string
	for _, r := range rs {
		if r.Outcome == o {
			out = append(out, r.Resource)
		}
	}
	return out
}

// Count returns how many resources had outcome o.
func (rs Results) Count(o Outcome) int {
	n := 0
	for _, r := range rs {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// Changed reports whether any resource was modified.
func (rs Results) Changed() bool {
	return rs.Count(Applied) > 0
}
