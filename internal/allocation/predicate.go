package allocation

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/lockable/internal/errors"
	"github.com/Iron-Ham/lockable/internal/resource"
	"github.com/gobwas/glob"
)

// Predicate decides whether a resource satisfies a label requirement.
type Predicate interface {
	Match(r resource.Resource) bool
	String() string
}

// labelPredicate matches resources carrying an exact label.
type labelPredicate string

// Label returns a predicate matching resources that carry label.
func Label(label string) Predicate {
	return labelPredicate(label)
}

func (p labelPredicate) Match(r resource.Resource) bool { return r.HasLabel(string(p)) }
func (p labelPredicate) String() string                 { return string(p) }

// globPredicate matches resources with at least one label matching a pattern.
type globPredicate struct {
	pattern string
	g       glob.Glob
}

// Glob returns a predicate matching resources with at least one label that
// matches pattern (e.g. "linux-*", "gpu-{a100,h100}").
func Glob(pattern string) (Predicate, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.NewValidationError("invalid label pattern").
			WithField("label").
			WithValue(pattern).
			WithCause(err)
	}
	return globPredicate{pattern: pattern, g: g}, nil
}

func (p globPredicate) Match(r resource.Resource) bool {
	for _, l := range r.Labels {
		if p.g.Match(l) {
			return true
		}
	}
	return false
}

func (p globPredicate) String() string { return p.pattern }

// notPredicate inverts another predicate.
type notPredicate struct{ inner Predicate }

// Not returns a predicate matching resources that p rejects.
func Not(p Predicate) Predicate {
	return notPredicate{inner: p}
}

func (p notPredicate) Match(r resource.Resource) bool { return !p.inner.Match(r) }
func (p notPredicate) String() string                 { return "!" + p.inner.String() }

// allOf matches resources accepted by every member.
type allOf []Predicate

// AllOf returns a predicate matching resources accepted by every p.
// AllOf() with no arguments matches everything.
func AllOf(ps ...Predicate) Predicate {
	if len(ps) == 1 {
		return ps[0]
	}
	return allOf(ps)
}

func (a allOf) Match(r resource.Resource) bool {
	for _, p := range a {
		if !p.Match(r) {
			return false
		}
	}
	return true
}

func (a allOf) String() string {
	if len(a) == 0 {
		return "*"
	}
	parts := make([]string, len(a))
	for i, p := range a {
		parts[i] = p.String()
	}
	return strings.Join(parts, " && ")
}

// AnyLabel returns a predicate that matches every resource.
func AnyLabel() Predicate {
	return allOf(nil)
}

// ParsePredicate parses a label expression. Terms are joined with "&&";
// a leading "!" negates a term; terms containing glob metacharacters are
// compiled as patterns, everything else is an exact label.
//
//	linux
//	linux && x86_64
//	gpu-* && !flaky
func ParsePredicate(expr string) (Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.NewValidationError("empty label expression").WithField("label")
	}

	var ps []Predicate
	for _, term := range strings.Split(expr, "&&") {
		term = strings.TrimSpace(term)
		negate := false
		if strings.HasPrefix(term, "!") {
			negate = true
			term = strings.TrimSpace(term[1:])
		}
		if term == "" {
			return nil, errors.NewValidationError(fmt.Sprintf("empty term in %q", expr)).WithField("label")
		}

		var p Predicate
		if strings.ContainsAny(term, "*?[{") {
			var err error
			if p, err = Glob(term); err != nil {
				return nil, err
			}
		} else {
			p = Label(term)
		}
		if negate {
			p = Not(p)
		}
		ps = append(ps, p)
	}
	return AllOf(ps...), nil
}
