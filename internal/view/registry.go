package view

import (
	"errors"
	"fmt"
	"slices"

	"github.com/robby/ghlens/internal/domain"
)

// RenderFunc renders one field of an item. It returns false when the field
// has nothing to show for the item.
type RenderFunc func(item domain.Item, ctx *Context) (Node, bool)

// Field is the view descriptor of one field.
type Field struct {
	Label  string
	Render RenderFunc
}

// Entry names a field for registration.
type Entry struct {
	Name  string
	Field Field
}

// Registry is a read-only table of view fields.
type Registry struct {
	names  []string
	byName map[string]Field
}

var errNoRenderer = errors.New("field has no renderer")

// NewRegistry builds a registry, rejecting empty or duplicate names and
// fields without a renderer.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		names:  make([]string, 0, len(entries)),
		byName: make(map[string]Field, len(entries)),
	}
	for _, e := range entries {
		switch {
		case e.Name == "":
			return nil, fmt.Errorf("view field with empty name")
		case e.Field.Render == nil:
			return nil, fmt.Errorf("view field %q: %w", e.Name, errNoRenderer)
		}
		if _, dup := r.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate view field %q", e.Name)
		}
		r.names = append(r.names, e.Name)
		r.byName[e.Name] = e.Field
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics on error.
func MustRegistry(entries ...Entry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Lookup(name string) (Field, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// Names returns the field names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}
