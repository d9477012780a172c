// Package filter evaluates items against user-authored filter clauses using a
// registry of field descriptors and the latest context snapshot.
package filter

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/query"
	"github.com/robby/ghlens/internal/search"
	"github.com/robby/ghlens/internal/snapshot"
	"golang.org/x/sync/errgroup"
)

// Option configures a Filterer.
type Option func(*Filterer)

// WithClock sets the clock used by elapsed-time fields. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Filterer) {
		f.now = now
	}
}

// WithLogger sets the filterer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filterer) {
		f.logger = logger
	}
}

// Filterer holds the active clauses and the latest context snapshot.
// Clause lists and snapshots are replaced wholesale, never mutated, so a
// Filterer is safe for concurrent use.
type Filterer struct {
	registry *Registry
	now      func() time.Time
	logger   *slog.Logger

	clauses atomic.Pointer[[]query.Clause]
	text    atomic.Pointer[string]
	context snapshot.Tracker
}

// New creates a Filterer over registry with no clauses and no context.
func New(registry *Registry, opts ...Option) *Filterer {
	f := &Filterer{
		registry: registry,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	empty := []query.Clause{}
	f.clauses.Store(&empty)
	blank := ""
	f.text.Store(&blank)
	return f
}

// Registry returns the filter registry.
func (f *Filterer) Registry() *Registry {
	return f.registry
}

// SetClauses replaces the active clause list. It does not evaluate anything.
func (f *Filterer) SetClauses(clauses []query.Clause) {
	c := slices.Clone(clauses)
	if c == nil {
		c = []query.Clause{}
	}
	f.clauses.Store(&c)
}

// Clauses returns a copy of the active clause list.
func (f *Filterer) Clauses() []query.Clause {
	return slices.Clone(*f.clauses.Load())
}

// SetSearch replaces the free-text search applied in addition to the clauses.
func (f *Filterer) SetSearch(text string) {
	text = strings.TrimSpace(text)
	f.text.Store(&text)
}

// Search returns the free-text search.
func (f *Filterer) Search() string {
	return *f.text.Load()
}

// Observe accepts a provider event. It is a snapshot.Handler.
func (f *Filterer) Observe(ev snapshot.Event) {
	if !f.context.Observe(ev) {
		f.logger.Debug("dropped stale snapshot", "seq", ev.Seq)
		return
	}
	if ev.Err != nil {
		f.logger.Warn("filter context lost", "seq", ev.Seq, "error", ev.Err)
	}
}

// Matches reports whether item satisfies the search and every active clause.
// It fails with query.ErrMissingContext before a snapshot is available and
// with *query.UnknownFieldError or *query.MalformedClauseError for bad clauses.
func (f *Filterer) Matches(item domain.Item) (bool, error) {
	p, err := f.begin()
	if err != nil {
		return false, err
	}
	return p.matches(item), nil
}

// Filter returns the matching items in input order.
func (f *Filterer) Filter(items []domain.Item) ([]domain.Item, error) {
	matched, _, err := f.Partition(items)
	return matched, err
}

// Partition splits items into matching and non-matching items, both in input
// order. The whole pass uses one snapshot.
func (f *Filterer) Partition(items []domain.Item) (matched, rest []domain.Item, err error) {
	p, err := f.begin()
	if err != nil {
		return nil, nil, err
	}

	matched = make([]domain.Item, 0, len(items))
	for _, item := range items {
		if p.matches(item) {
			matched = append(matched, item)
		} else {
			rest = append(rest, item)
		}
	}

	f.logger.Debug("filter pass",
		"seq", p.ctx.Seq,
		"clauses", len(p.clauses),
		"items", len(items),
		"matched", len(matched),
	)
	return matched, rest, nil
}

// FilterParallel is Filter with evaluations spread over up to workers
// goroutines. The result keeps input order.
func (f *Filterer) FilterParallel(ctx context.Context, items []domain.Item, workers int) ([]domain.Item, error) {
	p, err := f.begin()
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	keep := make([]bool, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			keep[i] = p.matches(items[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matched := make([]domain.Item, 0, len(items))
	for i, item := range items {
		if keep[i] {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// AutocompleteFor suggests values for a field: distinct, sorted
// case-insensitively. Unknown fields, fields without suggestions, and a
// missing context all yield an empty list.
func (f *Filterer) AutocompleteFor(field string, items []domain.Item) []string {
	d, ok := f.registry.Lookup(field)
	if !ok {
		return []string{}
	}
	snap, err := f.context.Current()
	if err != nil {
		return []string{}
	}

	return normalize(d.Autocomplete(items, &Context{Snapshot: snap, Now: f.now}))
}

// pass is one evaluation over a fixed snapshot and clause list.
type pass struct {
	ctx     *Context
	clauses []bound
	text    string
}

type bound struct {
	clause query.Clause
	desc   Descriptor
}

func (f *Filterer) begin() (*pass, error) {
	snap, err := f.context.Current()
	if err != nil {
		return nil, err
	}

	clauses := *f.clauses.Load()
	p := &pass{
		ctx:     &Context{Snapshot: snap, Now: f.now},
		clauses: make([]bound, 0, len(clauses)),
		text:    query.Fold(*f.text.Load()),
	}
	for _, c := range clauses {
		d, err := f.registry.Check(c)
		if err != nil {
			return nil, err
		}
		// Fold text input once per pass rather than once per item.
		c.Value.Text = query.Fold(c.Value.Text)
		p.clauses = append(p.clauses, bound{clause: c, desc: d})
	}
	return p, nil
}

func (p *pass) matches(item domain.Item) bool {
	if p.text != "" && !search.Match(search.TokenizeWith(item, p.ctx.LabelsByID), p.text) {
		return false
	}
	for _, b := range p.clauses {
		if !b.desc.Match(item, b.clause, p.ctx) {
			return false
		}
	}
	return true
}

// normalize dedupes values and sorts them case-insensitively, breaking ties
// on the raw value so the order is deterministic.
func normalize(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}

	slices.SortFunc(out, func(a, b string) int {
		if c := strings.Compare(query.Fold(a), query.Fold(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}
