package filter

import (
	"errors"
	"time"

	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/query"
	"github.com/robby/ghlens/internal/snapshot"
)

// Context is the evaluation context handed to matchers: one snapshot plus the
// clock used by elapsed-time fields.
type Context struct {
	*snapshot.Snapshot
	Now func() time.Time
}

// Descriptor is the capability bundle registered for one filter field. The set
// of implementations is closed: TextField, ArrayField, NumberField, DateField
// and StateField.
type Descriptor interface {
	// Label is the display name of the field.
	Label() string
	// Kind selects the operator family and payload the field accepts.
	Kind() query.Kind
	// Match evaluates a clause already checked against the field.
	Match(item domain.Item, c query.Clause, ctx *Context) bool
	// Autocomplete suggests values for the field; nil when it has none.
	Autocomplete(items []domain.Item, ctx *Context) []string
	// States lists the enumerated states of a state field.
	States() []string

	validate() error
}

// SuggestFunc produces raw autocomplete values. The Filterer dedupes and sorts them.
type SuggestFunc func(items []domain.Item, ctx *Context) []string

var errNoMatcher = errors.New("field has no matcher")

// TextField matches a single string derived from the item.
type TextField struct {
	Name    string
	Target  func(item domain.Item) string
	Suggest SuggestFunc
}

func (f TextField) Label() string    { return f.Name }
func (f TextField) Kind() query.Kind { return query.KindText }
func (f TextField) States() []string { return nil }

func (f TextField) Match(item domain.Item, c query.Clause, _ *Context) bool {
	return query.TextContains(f.Target(item), c.Value.Text, c.Op)
}

func (f TextField) Autocomplete(items []domain.Item, ctx *Context) []string {
	if f.Suggest == nil {
		return nil
	}
	return f.Suggest(items, ctx)
}

func (f TextField) validate() error {
	if f.Target == nil {
		return errNoMatcher
	}
	return nil
}

// ArrayField matches a list of strings derived from the item and context.
type ArrayField struct {
	Name    string
	Target  func(item domain.Item, ctx *Context) []string
	Suggest SuggestFunc
}

func (f ArrayField) Label() string    { return f.Name }
func (f ArrayField) Kind() query.Kind { return query.KindArray }
func (f ArrayField) States() []string { return nil }

func (f ArrayField) Match(item domain.Item, c query.Clause, ctx *Context) bool {
	return query.ArrayContains(f.Target(item, ctx), c.Value.Text, c.Op)
}

func (f ArrayField) Autocomplete(items []domain.Item, ctx *Context) []string {
	if f.Suggest == nil {
		return nil
	}
	return f.Suggest(items, ctx)
}

func (f ArrayField) validate() error {
	if f.Target == nil {
		return errNoMatcher
	}
	return nil
}

// NumberField matches a number derived from the item and context.
type NumberField struct {
	Name   string
	Target func(item domain.Item, ctx *Context) float64
}

func (f NumberField) Label() string                                  { return f.Name }
func (f NumberField) Kind() query.Kind                               { return query.KindNumber }
func (f NumberField) States() []string                               { return nil }
func (f NumberField) Autocomplete([]domain.Item, *Context) []string { return nil }

func (f NumberField) Match(item domain.Item, c query.Clause, ctx *Context) bool {
	return query.NumberMatches(f.Target(item, ctx), c.Value.Number, c.Op)
}

func (f NumberField) validate() error {
	if f.Target == nil {
		return errNoMatcher
	}
	return nil
}

// DateField matches a timestamp of the item.
type DateField struct {
	Name   string
	Target func(item domain.Item) time.Time
}

func (f DateField) Label() string                                  { return f.Name }
func (f DateField) Kind() query.Kind                               { return query.KindDate }
func (f DateField) States() []string                               { return nil }
func (f DateField) Autocomplete([]domain.Item, *Context) []string { return nil }

func (f DateField) Match(item domain.Item, c query.Clause, _ *Context) bool {
	return query.DateMatches(f.Target(item), c.Value.Date, c.Op)
}

func (f DateField) validate() error {
	if f.Target == nil {
		return errNoMatcher
	}
	return nil
}

// StateField matches one of a fixed set of named states. Truth computes the
// value of every state for an item; states missing from the map are false.
type StateField struct {
	Name    string
	Options []string
	Truth   func(item domain.Item, ctx *Context) map[string]bool
}

func (f StateField) Label() string                                  { return f.Name }
func (f StateField) Kind() query.Kind                               { return query.KindState }
func (f StateField) States() []string                               { return append([]string(nil), f.Options...) }
func (f StateField) Autocomplete([]domain.Item, *Context) []string { return nil }

func (f StateField) Match(item domain.Item, c query.Clause, ctx *Context) bool {
	return query.StateMatches(f.Truth(item, ctx)[c.Value.State], c.Op)
}

func (f StateField) validate() error {
	if f.Truth == nil {
		return errNoMatcher
	}
	if len(f.Options) == 0 {
		return errors.New("state field has no states")
	}
	return nil
}
