// Package query defines filter clauses, the per-kind equality primitives and
// the errors shared by the filter and view engines.
package query

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Kind is the value kind a filter field operates on.
type Kind string

const (
	KindText   Kind = "text"
	KindArray  Kind = "array"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
	KindState  Kind = "state"
)

// Op is an equality operator. Each kind supports its own family of operators.
type Op string

const (
	OpContains    Op = "contains"
	OpNotContains Op = "not-contains"
	OpIs          Op = "is"
	OpIsNot       Op = "is-not"
	OpGreaterThan Op = "greater-than"
	OpLessThan    Op = "less-than"
	OpBefore      Op = "before"
	OpAfter       Op = "after"
)

var kindOps = map[Kind][]Op{
	KindText:   {OpContains, OpNotContains},
	KindArray:  {OpContains, OpNotContains},
	KindNumber: {OpIs, OpIsNot, OpGreaterThan, OpLessThan},
	KindDate:   {OpIs, OpIsNot, OpBefore, OpAfter},
	KindState:  {OpIs, OpIsNot},
}

// Ops returns the operators supported by the kind, in display order.
func (k Kind) Ops() []Op {
	return slices.Clone(kindOps[k])
}

// Supports reports whether op belongs to the kind's operator family.
func (k Kind) Supports(op Op) bool {
	return slices.Contains(kindOps[k], op)
}

// Value is the kind-specific payload of a clause. Only the member selected by
// Kind is meaningful.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
	Date   time.Time
	State  string
}

// Clause is one user-specified filter condition on a named field.
type Clause struct {
	Field string
	Op    Op
	Value Value
}

// TextClause builds a clause for a text or array field.
func TextClause(field string, op Op, input string) Clause {
	return Clause{Field: field, Op: op, Value: Value{Kind: KindText, Text: input}}
}

// NumberClause builds a clause for a number field.
func NumberClause(field string, op Op, value float64) Clause {
	return Clause{Field: field, Op: op, Value: Value{Kind: KindNumber, Number: value}}
}

// DateClause builds a clause for a date field.
func DateClause(field string, op Op, date time.Time) Clause {
	return Clause{Field: field, Op: op, Value: Value{Kind: KindDate, Date: date}}
}

// StateClause builds a clause for a state field.
func StateClause(field string, op Op, state string) Clause {
	return Clause{Field: field, Op: op, Value: Value{Kind: KindState, State: state}}
}

// String formats the clause for logs and error messages.
func (c Clause) String() string {
	switch c.Value.Kind {
	case KindText, KindArray:
		return fmt.Sprintf("%s %s %q", c.Field, c.Op, c.Value.Text)
	case KindNumber:
		return fmt.Sprintf("%s %s %g", c.Field, c.Op, c.Value.Number)
	case KindDate:
		return fmt.Sprintf("%s %s %s", c.Field, c.Op, c.Value.Date.Format(time.DateOnly))
	case KindState:
		return fmt.Sprintf("%s %s %q", c.Field, c.Op, c.Value.State)
	default:
		return fmt.Sprintf("%s %s <%s>", c.Field, c.Op, c.Value.Kind)
	}
}

// Accepts reports whether a clause payload of kind k can be evaluated by a
// field of kind field. Text payloads serve both text and array fields.
func (k Kind) Accepts(payload Kind) bool {
	if k == KindArray {
		return payload == KindText || payload == KindArray
	}
	return k == payload
}

// ErrMissingContext indicates an evaluation was attempted before the first
// complete context snapshot was published.
var ErrMissingContext = errors.New("no evaluation context available")

// UnknownFieldError indicates a reference to a field absent from a registry.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Field)
}

// MalformedClauseError indicates a clause whose payload or operator does not
// fit the field it targets.
type MalformedClauseError struct {
	Clause Clause
	Reason string
}

func (e *MalformedClauseError) Error() string {
	return fmt.Sprintf("malformed clause %s: %s", e.Clause, e.Reason)
}
