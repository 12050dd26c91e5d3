package registry

import (
	"slices"

	"github.com/Iron-Ham/lockable/internal/config"
	"github.com/Iron-Ham/lockable/internal/event"
)

// ReloadSummary lists what a Reload changed.
type ReloadSummary struct {
	Added   []string
	Removed []string
	Updated []string
}

// Empty reports whether the reload changed nothing.
func (s ReloadSummary) Empty() bool {
	return len(s.Added) == 0 && len(s.Removed) == 0 && len(s.Updated) == 0
}

// Reload replaces the resource definitions. Resources that survive keep
// their claims and queue lines; their labels and description are replaced.
// Removed resources are dropped together with their queue lines, and added
// ones start free. On error the registry is left unchanged.
func (r *Registry) Reload(defs []config.ResourceDef) (ReloadSummary, error) {
	order, table, err := buildTable(defs)
	if err != nil {
		return ReloadSummary{}, err
	}

	r.mu.Lock()
	var summary ReloadSummary
	for _, name := range order {
		next := table[name]
		prev, ok := r.resources[name]
		if !ok {
			summary.Added = append(summary.Added, name)
			continue
		}
		if prev.Description != next.Description || !slices.Equal(prev.Labels, next.Labels) {
			summary.Updated = append(summary.Updated, name)
		}
		next.Reservation = prev.Reservation
		next.LockedBy = prev.LockedBy
	}
	for _, name := range r.order {
		if _, ok := table[name]; !ok {
			summary.Removed = append(summary.Removed, name)
		}
	}

	r.order = order
	r.resources = table
	r.queue.Forget(func(name string) bool {
		_, ok := table[name]
		return ok
	})
	r.recordLocked()
	r.mu.Unlock()

	r.metrics.Operation(opReload, Applied.String())
	if !summary.Empty() {
		r.bus.Publish(event.NewReloadedEvent(summary.Added, summary.Removed, summary.Updated))
	}
	r.logger.WithOperation(opReload).Info("resource definitions reloaded",
		"resources", len(order),
		"added", len(summary.Added),
		"removed", len(summary.Removed),
		"updated", len(summary.Updated),
	)
	return summary, nil
}
