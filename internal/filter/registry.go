package filter

import (
	"fmt"
	"slices"

	"github.com/robby/ghlens/internal/query"
)

// Entry names a descriptor for registration.
type Entry struct {
	Name       string
	Descriptor Descriptor
}

// Registry is a read-only table of filter fields. It is safe for concurrent use.
type Registry struct {
	names  []string
	byName map[string]Descriptor
}

// NewRegistry builds a registry. It fails on empty or duplicate names and on
// descriptors that cannot match.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		names:  make([]string, 0, len(entries)),
		byName: make(map[string]Descriptor, len(entries)),
	}
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("filter field with empty name")
		}
		if _, dup := r.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate filter field %q", e.Name)
		}
		if e.Descriptor == nil {
			return nil, fmt.Errorf("filter field %q: %w", e.Name, errNoMatcher)
		}
		if err := e.Descriptor.validate(); err != nil {
			return nil, fmt.Errorf("filter field %q: %w", e.Name, err)
		}
		r.names = append(r.names, e.Name)
		r.byName[e.Name] = e.Descriptor
	}
	return r, nil
}

// MustRegistry is NewRegistry for statically known fields; it panics on error.
func MustRegistry(entries ...Entry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns the field names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Check resolves the descriptor for a clause and verifies the clause fits it.
func (r *Registry) Check(c query.Clause) (Descriptor, error) {
	d, ok := r.byName[c.Field]
	if !ok {
		return nil, &query.UnknownFieldError{Field: c.Field}
	}

	kind := d.Kind()
	if !kind.Accepts(c.Value.Kind) {
		return nil, &query.MalformedClauseError{
			Clause: c,
			Reason: fmt.Sprintf("%s payload on %s field", c.Value.Kind, kind),
		}
	}
	if !kind.Supports(c.Op) {
		return nil, &query.MalformedClauseError{
			Clause: c,
			Reason: fmt.Sprintf("operator %q not supported by %s fields", c.Op, kind),
		}
	}
	if kind == query.KindState && !slices.Contains(d.States(), c.Value.State) {
		return nil, &query.MalformedClauseError{
			Clause: c,
			Reason: fmt.Sprintf("unknown state %q (want one of %v)", c.Value.State, d.States()),
		}
	}
	return d, nil
}

// Validate checks every clause against the registry.
func (r *Registry) Validate(clauses []query.Clause) error {
	for _, c := range clauses {
		if _, err := r.Check(c); err != nil {
			return err
		}
	}
	return nil
}
