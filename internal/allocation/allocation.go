// Package allocation answers "which resources matching a label are free
// right now". It is a pure function of a snapshot: it never mutates the
// resources it is given. The registry calls it while holding its write lock
// so that selection and the following claim happen in one critical section.
//
// Selection order is the snapshot order, which the registry keeps equal to
// declaration order: the first declared free resource is offered first, and
// repeated calls against the same snapshot pick the same resources.
package allocation

import "github.com/Iron-Ham/lockable/internal/resource"

// Select returns up to count free resources matching p, in snapshot order.
// A negative count means no limit. The result may be shorter than count.
func Select(rs []resource.Resource, p Predicate, count int) []resource.Resource {
	return selectWhere(rs, p, count, func(r resource.Resource) bool {
		return r.IsFree()
	})
}

// Count returns the number of free resources matching p.
func Count(rs []resource.Resource, p Predicate) int {
	n := 0
	for _, r := range rs {
		if r.IsFree() && p.Match(r) {
			n++
		}
	}
	return n
}

// Eligible reports whether claimant may take r now: r must be free, and if
// somebody is queued on r that somebody must be claimant. This keeps a
// freed resource for the claimant at the head of its line.
func Eligible(r resource.Resource, claimant string) bool {
	if !r.IsFree() {
		return false
	}
	return r.Queued == nil || r.Queued.Claimant == claimant
}

// SelectFor is Select restricted to resources claimant is eligible for.
func SelectFor(rs []resource.Resource, p Predicate, count int, claimant string) []resource.Resource {
	return selectWhere(rs, p, count, func(r resource.Resource) bool {
		return Eligible(r, claimant)
	})
}

// Matching returns every resource matching p whatever its claim state, in
// snapshot order. A claim that comes up short queues on all of them.
func Matching(rs []resource.Resource, p Predicate) []resource.Resource {
	return selectWhere(rs, p, -1, func(resource.Resource) bool { return true })
}

func selectWhere(rs []resource.Resource, p Predicate, count int, ok func(resource.Resource) bool) []resource.Resource {
	if count == 0 {
		return nil
	}
	var out []resource.Resource
	for _, r := range rs {
		if !ok(r) || !p.Match(r) {
			continue
		}
		out = append(out, r)
		if count > 0 && len(out) == count {
			break
		}
	}
	return out
}
