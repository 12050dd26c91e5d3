package registry

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/lockable/internal/allocation"
	"github.com/Iron-Ham/lockable/internal/config"
	"github.com/Iron-Ham/lockable/internal/errors"
	"github.com/Iron-Ham/lockable/internal/event"
	"github.com/Iron-Ham/lockable/internal/logging"
	"github.com/Iron-Ham/lockable/internal/metrics"
	"github.com/Iron-Ham/lockable/internal/queue"
	"github.com/Iron-Ham/lockable/internal/resource"
)

// Operation names used in logs and metrics.
const (
	opReserve   = "reserve"
	opUnreserve = "unreserve"
	opLock      = "lock"
	opUnlock    = "unlock"
	opReset     = "reset"
	opAcquire   = "acquire"
	opQueue     = "queue"
	opReload    = "reload"
	opRestore   = "restore"
)

// Registry owns every known resource and its claim state.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	order     []string                      // declaration order
	resources map[string]*resource.Resource // name -> record; Queued is always nil here
	queue     *queue.Coordinator

	bus      *event.Bus
	logger   *logging.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
	ticketID func() string
}

// Option configures a Registry.
type Option func(*Registry)

// WithBus publishes claim and queue events to bus.
func WithBus(bus *event.Bus) Option {
	return func(r *Registry) {
		r.bus = bus
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the time source for reservation and queue timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithMetrics records operation outcomes and state gauges to m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithTicketGenerator overrides how queue ticket IDs are generated.
func WithTicketGenerator(gen func() string) Option {
	return func(r *Registry) {
		r.ticketID = gen
	}
}

// New creates a Registry holding one free resource per definition, in
// definition order. Duplicate names are rejected with
// errors.ErrDuplicateResource.
func New(defs []config.ResourceDef, opts ...Option) (*Registry, error) {
	r := &Registry{
		logger: logging.NopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	qopts := []queue.Option{queue.WithClock(r.now)}
	if r.ticketID != nil {
		qopts = append(qopts, queue.WithTicketGenerator(r.ticketID))
	}
	r.queue = queue.NewCoordinator(qopts...)

	order, table, err := buildTable(defs)
	if err != nil {
		return nil, err
	}
	r.order = order
	r.resources = table

	r.mu.Lock()
	r.recordLocked()
	r.mu.Unlock()
	return r, nil
}

// buildTable turns definitions into a fresh, claim-free resource table.
func buildTable(defs []config.ResourceDef) ([]string, map[string]*resource.Resource, error) {
	order := make([]string, 0, len(defs))
	table := make(map[string]*resource.Resource, len(defs))
	for i, d := range defs {
		if strings.TrimSpace(d.Name) == "" {
			return nil, nil, errors.NewValidationError("resource name is required").
				WithField(fmt.Sprintf("resources[%d].name", i))
		}
		if _, dup := table[d.Name]; dup {
			return nil, nil, fmt.Errorf("%w: %s", errors.ErrDuplicateResource, d.Name)
		}
		table[d.Name] = &resource.Resource{
			Name:        d.Name,
			Description: d.Description,
			Labels:      resource.NormalizeLabels(d.Labels),
		}
		order = append(order, d.Name)
	}
	return order, table, nil
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// FromName returns a copy of the named resource, or an error wrapping
// errors.ErrResourceNotFound.
func (r *Registry) FromName(name string) (resource.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resources[name]
	if !ok {
		return resource.Resource{}, errors.NewNotFoundError(name)
	}
	return r.viewLocked(res), nil
}

// Resources returns copies of all resources in declaration order.
func (r *Registry) Resources() []resource.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.viewsLocked()
}

// Len returns the number of defined resources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// AllLabels returns the union of all resource labels, sorted.
func (r *Registry) AllLabels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var labels []string
	for _, name := range r.order {
		labels = append(labels, r.resources[name].Labels...)
	}
	slices.Sort(labels)
	return slices.Compact(labels)
}

// NumberOfLabels returns len(AllLabels()).
func (r *Registry) NumberOfLabels() int {
	return len(r.AllLabels())
}

// FreeResourceAmount returns how many resources carrying label are free.
func (r *Registry) FreeResourceAmount(label string) int {
	return r.FreeAmount(allocation.Label(label))
}

// FreeAmount returns how many resources matching p are free.
func (r *Registry) FreeAmount(p allocation.Predicate) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return allocation.Count(r.viewsLocked(), p)
}

// FindFree returns up to count free resources matching p, in declaration
// order. A negative count returns all of them. The result is a snapshot:
// use Acquire to claim resources without racing other callers.
func (r *Registry) FindFree(p allocation.Predicate, count int) []resource.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return allocation.Select(r.viewsLocked(), p, count)
}

// Status returns the derived status of every resource in declaration order.
func (r *Registry) Status() []resource.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]resource.Status, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, resource.Derive(r.viewLocked(r.resources[name])))
	}
	return out
}

// viewLocked returns a deep copy of res with its queue marker filled in.
func (r *Registry) viewLocked(res *resource.Resource) resource.Resource {
	v := res.Clone()
	if qc, ok := r.queue.Claimant(res.Name); ok {
		v.Queued = &qc
	}
	return v
}

func (r *Registry) viewsLocked() []resource.Resource {
	out := make([]resource.Resource, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.viewLocked(r.resources[name]))
	}
	return out
}

// -----------------------------------------------------------------------------
// Shared helpers
// -----------------------------------------------------------------------------

// publish delivers events collected under the lock. Must be called without
// holding r.mu.
func (r *Registry) publish(events []event.Event) {
	for _, e := range events {
		r.bus.Publish(e)
	}
}

// recordLocked refreshes the state gauges.
func (r *Registry) recordLocked() {
	if r.metrics == nil {
		return
	}
	free := make(map[string]int)
	for _, name := range r.order {
		res := r.resources[name]
		for _, l := range res.Labels {
			if res.IsFree() {
				free[l]++
			} else if _, ok := free[l]; !ok {
				free[l] = 0
			}
		}
	}
	queued := 0
	for _, name := range r.queue.Waiting() {
		queued += r.queue.Depth(name)
	}
	r.metrics.Snapshot(len(r.order), free, queued)
}

// logError logs err at the level matching its severity.
func logError(log *logging.Logger, msg string, err error, args ...any) {
	args = append(args, "error", err)
	switch errors.GetSeverity(err) {
	case errors.SeverityDebug, errors.SeverityInfo:
		log.Info(msg, args...)
	case errors.SeverityWarning:
		log.Warn(msg, args...)
	default:
		log.Error(msg, args...)
	}
}

// uniqueNames drops repeated names, keeping the first occurrence.
func uniqueNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}
