package query

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTextContains(t *testing.T) {
	tests := []struct {
		name   string
		target string
		input  string
		op     Op
		want   bool
	}{
		{"substring", "Build failing", "fail", OpContains, true},
		{"case insensitive", "Build failing", "BUILD", OpContains, true},
		{"missing", "Build failing", "flaky", OpContains, false},
		{"not contains hit", "Build failing", "fail", OpNotContains, false},
		{"not contains miss", "Build failing", "flaky", OpNotContains, true},
		{"empty input matches", "anything", "", OpContains, true},
		{"empty target", "", "x", OpContains, false},
		{"unsupported op", "Build failing", "fail", OpIs, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TextContains(tt.target, tt.input, tt.op))
		})
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Build FAILING", "build failing"},
		{"already lower", "already lower"},
		{"Straße", "strasse"},
		{"ΣΊΣΥΦΟΣ", "σίσυφοσ"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), tt.in)
	}
}

func TestFold_ASCIIDoesNotAllocate(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		_ = Fold("already lower")
	})
	assert.Zero(t, allocs)
}

func TestFold_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.Equal(t, "strasse", Fold("STRAßE"))
			}
		}()
	}
	wg.Wait()
}

func TestArrayContains(t *testing.T) {
	targets := []string{"bug", "P1 Urgent"}

	assert.True(t, ArrayContains(targets, "bu", OpContains))
	assert.True(t, ArrayContains(targets, "urgent", OpContains))
	assert.False(t, ArrayContains(targets, "docs", OpContains))
	assert.True(t, ArrayContains(targets, "docs", OpNotContains))
	assert.False(t, ArrayContains(targets, "BUG", OpNotContains))
	assert.False(t, ArrayContains(nil, "bug", OpContains))
	assert.True(t, ArrayContains(nil, "bug", OpNotContains))
	assert.True(t, ArrayContains(nil, "", OpContains))
}

func TestNumberMatches(t *testing.T) {
	assert.True(t, NumberMatches(5, 3, OpGreaterThan))
	assert.True(t, NumberMatches(5, 5, OpIs))
	assert.False(t, NumberMatches(5, 5, OpIsNot))
	assert.True(t, NumberMatches(2, 5, OpLessThan))
	assert.False(t, NumberMatches(5, 5, OpLessThan))
	assert.False(t, NumberMatches(5, 5, OpContains))
}

func TestDateMatches(t *testing.T) {
	created := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	sameDay := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	nextDay := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	assert.True(t, DateMatches(created, sameDay, OpIs))
	assert.False(t, DateMatches(created, sameDay, OpIsNot))
	assert.True(t, DateMatches(created, nextDay, OpBefore))
	assert.False(t, DateMatches(created, sameDay, OpBefore))
	assert.True(t, DateMatches(nextDay, created, OpAfter))
	assert.False(t, DateMatches(created, sameDay, OpAfter))
}

func TestStateMatches(t *testing.T) {
	assert.True(t, StateMatches(true, OpIs))
	assert.False(t, StateMatches(false, OpIs))
	assert.True(t, StateMatches(false, OpIsNot))
	assert.False(t, StateMatches(true, OpGreaterThan))
}

func TestKind_Supports(t *testing.T) {
	assert.True(t, KindNumber.Supports(OpGreaterThan))
	assert.False(t, KindText.Supports(OpGreaterThan))
	assert.True(t, KindDate.Supports(OpBefore))
	assert.False(t, KindState.Supports(OpContains))
	assert.Equal(t, []Op{OpContains, OpNotContains}, KindArray.Ops())

	assert.True(t, KindArray.Accepts(KindText))
	assert.True(t, KindText.Accepts(KindText))
	assert.False(t, KindNumber.Accepts(KindText))
}

func TestClause_UnmarshalYAML(t *testing.T) {
	doc := `
- field: title
  op: contains
  input: fail
- field: commentCount
  op: greater-than
  value: 3
- field: created
  op: before
  date: 2024-03-10
- field: state
  op: is
  state: open
`
	var clauses []Clause
	require.NoError(t, yaml.Unmarshal([]byte(doc), &clauses))
	require.Len(t, clauses, 4)

	assert.Equal(t, TextClause("title", OpContains, "fail"), clauses[0])
	assert.Equal(t, NumberClause("commentCount", OpGreaterThan, 3), clauses[1])
	assert.Equal(t, KindDate, clauses[2].Value.Kind)
	assert.Equal(t, "2024-03-10", clauses[2].Value.Date.Format(time.DateOnly))
	assert.Equal(t, StateClause("state", OpIs, "open"), clauses[3])
}

func TestClause_UnmarshalYAML_Errors(t *testing.T) {
	tests := map[string]string{
		"no payload":     "field: title\nop: contains\n",
		"two payloads":   "field: title\nop: contains\ninput: a\nvalue: 1\n",
		"missing field":  "op: contains\ninput: a\n",
		"missing op":     "field: title\ninput: a\n",
		"malformed date": "field: created\nop: is\ndate: yesterday\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			var c Clause
			assert.Error(t, yaml.Unmarshal([]byte(doc), &c))
		})
	}
}

func TestClause_MarshalYAML(t *testing.T) {
	out, err := yaml.Marshal([]Clause{NumberClause("commentCount", OpIs, 5)})
	require.NoError(t, err)

	var back []Clause
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, NumberClause("commentCount", OpIs, 5), back[0])
}

func TestErrors(t *testing.T) {
	var unknown error = &UnknownFieldError{Field: "foo"}
	assert.EqualError(t, unknown, `unknown field "foo"`)

	var target *UnknownFieldError
	assert.True(t, errors.As(unknown, &target))

	malformed := &MalformedClauseError{Clause: TextClause("commentCount", OpContains, "x"), Reason: "kind mismatch"}
	assert.Contains(t, malformed.Error(), "commentCount")
	assert.Contains(t, malformed.Error(), "kind mismatch")
}
