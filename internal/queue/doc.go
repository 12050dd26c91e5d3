// Package queue tracks claimants waiting for resources that are currently
// unavailable, and decides who is served next when a resource frees.
//
// # Ordering
//
// Every resource has its own first-come, first-served line. A claimant
// keeps the arrival time of its first entry when it joins further lines, so
// all lines agree on who came first. The head of the line is the
// resource's queued-claim marker, reported in status output
// and honored by the registry: a freed resource with a marker can only be
// claimed by label through the registry by the claimant at the head. When
// the head's claim succeeds, or the head gives up, the next claimant in
// line becomes the head.
//
// # Promotion
//
// Promotion is poll-based. When a queued resource becomes free the registry
// publishes a promotion event naming the head claimant, but it never claims
// the resource on the claimant's behalf; the claimant retries (for example
// with registry.AcquireWithRetry). Because the resource is held for the head
// of its line, a retrying head claimant cannot be starved by newcomers.
//
// # Basic Usage
//
//	c := queue.NewCoordinator()
//	qc, _ := c.Mark("printer-1", "job-42", "nightly")
//	head, ok := c.Claimant("printer-1") // head.Claimant == "job-42"
//	next, ok := c.Clear("printer-1") // job-42 served; next in line promoted
package queue
