package query

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// clauseDoc is the YAML form of a clause. Exactly one payload key is set and
// selects the clause kind:
//
//	- field: title
//	  op: contains
//	  input: fail
type clauseDoc struct {
	Field string   `yaml:"field"`
	Op    Op       `yaml:"op"`
	Input *string  `yaml:"input,omitempty"`
	Value *float64 `yaml:"value,omitempty"`
	Date  *string  `yaml:"date,omitempty"`
	State *string  `yaml:"state,omitempty"`
}

// UnmarshalYAML decodes a clause, inferring its kind from the payload key.
func (c *Clause) UnmarshalYAML(node *yaml.Node) error {
	var doc clauseDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	if doc.Field == "" {
		return fmt.Errorf("line %d: clause is missing field", node.Line)
	}
	if doc.Op == "" {
		return fmt.Errorf("line %d: clause on %q is missing op", node.Line, doc.Field)
	}

	set := 0
	for _, present := range []bool{doc.Input != nil, doc.Value != nil, doc.Date != nil, doc.State != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("line %d: clause on %q needs exactly one of input, value, date, state", node.Line, doc.Field)
	}

	switch {
	case doc.Input != nil:
		*c = TextClause(doc.Field, doc.Op, *doc.Input)
	case doc.Value != nil:
		*c = NumberClause(doc.Field, doc.Op, *doc.Value)
	case doc.Date != nil:
		date, err := ParseDate(*doc.Date)
		if err != nil {
			return fmt.Errorf("line %d: clause on %q: %w", node.Line, doc.Field, err)
		}
		*c = DateClause(doc.Field, doc.Op, date)
	case doc.State != nil:
		*c = StateClause(doc.Field, doc.Op, *doc.State)
	}
	return nil
}

// MarshalYAML encodes the clause in the form read by UnmarshalYAML.
func (c Clause) MarshalYAML() (any, error) {
	doc := clauseDoc{Field: c.Field, Op: c.Op}
	switch c.Value.Kind {
	case KindText, KindArray:
		doc.Input = &c.Value.Text
	case KindNumber:
		doc.Value = &c.Value.Number
	case KindDate:
		s := c.Value.Date.Format(time.DateOnly)
		doc.Date = &s
	case KindState:
		doc.State = &c.Value.State
	default:
		return nil, fmt.Errorf("clause on %q has no payload kind", c.Field)
	}
	return doc, nil
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}
