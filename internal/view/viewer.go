package view

import (
	"log/slog"

	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/query"
	"github.com/robby/ghlens/internal/snapshot"
)

// Option configures a Viewer.
type Option func(*Viewer)

// WithLogger sets the viewer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Viewer) {
		v.logger = logger
	}
}

// Viewer renders items into node trees. It is safe for concurrent use.
type Viewer struct {
	registry *Registry
	logger   *slog.Logger
	context  snapshot.Tracker
}

// NewViewer creates a viewer over registry.
func NewViewer(registry *Registry, opts ...Option) *Viewer {
	v := &Viewer{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Registry returns the view registry.
func (v *Viewer) Registry() *Registry {
	return v.registry
}

// Validate fails with *query.UnknownFieldError for the first field name that
// is not registered. Use it for field lists known up front.
func (v *Viewer) Validate(fields []string) error {
	for _, name := range fields {
		if _, ok := v.registry.Lookup(name); !ok {
			return &query.UnknownFieldError{Field: name}
		}
	}
	return nil
}

// Observe accepts a provider event. It is a snapshot.Handler.
func (v *Viewer) Observe(ev snapshot.Event) {
	if !v.context.Observe(ev) {
		v.logger.Debug("dropped stale snapshot", "seq", ev.Seq)
	}
}

// View renders item against the latest observed snapshot.
func (v *Viewer) View(item domain.Item, fields []string) (Node, error) {
	snap, err := v.context.Current()
	if err != nil {
		return Node{}, err
	}
	return v.Render(item, snap, fields)
}

// Render renders the named fields of item against snap. The result is a root
// node whose children are the present fragments in the order of fields.
// Unknown field names are skipped.
func (v *Viewer) Render(item domain.Item, snap *snapshot.Snapshot, fields []string) (Node, error) {
	if snap == nil {
		return Node{}, query.ErrMissingContext
	}

	ctx := &Context{Item: item, Snapshot: snap}
	root := Node{Children: make([]Node, 0, len(fields))}
	for _, name := range fields {
		f, ok := v.registry.Lookup(name)
		if !ok {
			v.logger.Debug("skipping unknown view field", "field", name)
			continue
		}
		if n, ok := f.Render(item, ctx); ok {
			root.Children = append(root.Children, n)
		}
	}
	return root, nil
}
