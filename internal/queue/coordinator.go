package queue

import (
	"slices"
	"time"

	"github.com/Iron-Ham/lockable/internal/resource"
	"github.com/google/uuid"
)

// Coordinator tracks who is waiting for which resource.
//
// Each resource has a line of claimants in arrival order. The head of the
// line is the resource's queued-claim marker; everybody behind it is the
// backlog that moves up when the head is cleared.
//
// Coordinator is not safe for concurrent use on its own. The registry
// guards it with the same lock that protects claim state, so queue markers
// and claim fields are always observed together.
type Coordinator struct {
	lines map[string][]resource.QueuedClaim // resource -> line, head first
	now   func() time.Time
	newID func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the time source used to stamp queued claims.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// WithTicketGenerator overrides how ticket IDs are generated.
func WithTicketGenerator(gen func() string) Option {
	return func(c *Coordinator) {
		c.newID = gen
	}
}

// NewCoordinator creates an empty Coordinator.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		lines: make(map[string][]resource.QueuedClaim),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mark records that claimant is waiting for res and returns its place in
// line. Marking the same claimant twice returns the existing entry and
// false; a new entry returns true.
//
// Lines are ordered by arrival: a claimant keeps the arrival time of its
// first entry in any line, and a new entry goes behind everybody who
// arrived no later. Every line therefore agrees on who came first, so the
// oldest waiter heads all the lines it stands in.
func (c *Coordinator) Mark(res, claimant, project string) (resource.QueuedClaim, bool) {
	line := c.lines[res]
	if i := indexOf(line, claimant); i >= 0 {
		return line[i], false
	}

	since, ok := c.arrival(claimant)
	if !ok {
		since = c.now()
	}
	qc := resource.QueuedClaim{
		Ticket:   c.newID(),
		Claimant: claimant,
		Project:  project,
		Since:    since,
	}
	i := len(line)
	for i > 0 && line[i-1].Since.After(since) {
		i--
	}
	c.lines[res] = slices.Insert(slices.Clone(line), i, qc)
	return qc, true
}

// arrival returns the earliest time claimant joined any line.
func (c *Coordinator) arrival(claimant string) (time.Time, bool) {
	var (
		first time.Time
		found bool
	)
	for _, line := range c.lines {
		if i := indexOf(line, claimant); i >= 0 {
			if !found || line[i].Since.Before(first) {
				first = line[i].Since
				found = true
			}
		}
	}
	return first, found
}

// Clear removes the head marker of res. The next claimant in line, if any,
// becomes the new head and is returned.
func (c *Coordinator) Clear(res string) (resource.QueuedClaim, bool) {
	line := c.lines[res]
	if len(line) == 0 {
		return resource.QueuedClaim{}, false
	}
	line = line[1:]
	if len(line) == 0 {
		delete(c.lines, res)
		return resource.QueuedClaim{}, false
	}
	c.lines[res] = line
	return line[0], true
}

// Cancel removes claimant from the line for res wherever it stands.
// Returns false if claimant was not waiting.
func (c *Coordinator) Cancel(res, claimant string) bool {
	line := c.lines[res]
	i := indexOf(line, claimant)
	if i < 0 {
		return false
	}
	line = slices.Delete(slices.Clone(line), i, i+1)
	if len(line) == 0 {
		delete(c.lines, res)
	} else {
		c.lines[res] = line
	}
	return true
}

// FindTicket returns the claimant holding ticket and the resources it
// waits for under that ticket, sorted.
func (c *Coordinator) FindTicket(ticket string) (string, []string) {
	var (
		claimant string
		found    []string
	)
	for res, line := range c.lines {
		for _, qc := range line {
			if qc.Ticket == ticket {
				claimant = qc.Claimant
				found = append(found, res)
				break
			}
		}
	}
	slices.Sort(found)
	return claimant, found
}

// ClearAll drops the whole line for res.
func (c *Coordinator) ClearAll(res string) int {
	n := len(c.lines[res])
	delete(c.lines, res)
	return n
}

// Claimant returns the queued-claim marker of res: the head of its line.
func (c *Coordinator) Claimant(res string) (resource.QueuedClaim, bool) {
	line := c.lines[res]
	if len(line) == 0 {
		return resource.QueuedClaim{}, false
	}
	return line[0], true
}

// Promote is called when res becomes free. It returns the claimant that
// should retry now, without removing it from the line; the marker stays
// until that claimant's claim succeeds or is cancelled.
func (c *Coordinator) Promote(res string) (resource.QueuedClaim, bool) {
	return c.Claimant(res)
}

// IsQueued reports whether anybody is waiting for res.
func (c *Coordinator) IsQueued(res string) bool {
	return len(c.lines[res]) > 0
}

// Position returns claimant's zero-based place in line for res, or -1.
func (c *Coordinator) Position(res, claimant string) int {
	return indexOf(c.lines[res], claimant)
}

// Depth returns how many claimants wait for res.
func (c *Coordinator) Depth(res string) int {
	return len(c.lines[res])
}

// Line returns a copy of the line for res, head first.
func (c *Coordinator) Line(res string) []resource.QueuedClaim {
	return slices.Clone(c.lines[res])
}

// Waiting returns the names of resources somebody is waiting for, sorted.
func (c *Coordinator) Waiting() []string {
	out := make([]string, 0, len(c.lines))
	for res := range c.lines {
		out = append(out, res)
	}
	slices.Sort(out)
	return out
}

// Forget drops every line whose resource is not in keep. Used when a
// configuration reload removes resources.
func (c *Coordinator) Forget(keep func(res string) bool) {
	for res := range c.lines {
		if !keep(res) {
			delete(c.lines, res)
		}
	}
}

// Restore replaces the line for res. Used when loading persisted state.
func (c *Coordinator) Restore(res string, line []resource.QueuedClaim) {
	if len(line) == 0 {
		delete(c.lines, res)
		return
	}
	c.lines[res] = slices.Clone(line)
}

func indexOf(line []resource.QueuedClaim, claimant string) int {
	return slices.IndexFunc(line, func(qc resource.QueuedClaim) bool {
		return qc.Claimant == claimant
	})
}
