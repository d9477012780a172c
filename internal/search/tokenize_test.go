package search

import (
	"testing"

	"github.com/robby/ghlens/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	item := domain.Item{
		Number:    42,
		Title:     "Build failing on CI",
		Body:      "The nightly-build broke.",
		Assignees: []string{"Alice"},
		Reporter:  "bob",
		Repo:      "acme/widgets",
	}

	tokens := Tokenize(item)

	assert.Equal(t, []string{
		"#42",
		"build", "failing", "on", "ci",
		"the", "nightly", "build", "broke",
		"alice", "bob", "acme/widgets",
	}, tokens)
}

func TestTokenize_Stable(t *testing.T) {
	item := domain.Item{Title: "Same input", Body: "same output"}
	assert.Equal(t, Tokenize(item), Tokenize(item))
}

func TestTokenize_MissingText(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Empty(t, Tokenize(domain.Item{}))
	})
}

func TestMatch(t *testing.T) {
	tokens := Tokenize(domain.Item{Number: 7, Title: "Build failing", Assignees: []string{"alice"}})

	assert.True(t, Match(tokens, ""))
	assert.True(t, Match(tokens, "fail"))
	assert.True(t, Match(tokens, "FAIL ali"))
	assert.True(t, Match(tokens, "#7"))
	assert.False(t, Match(tokens, "fail carol"))
	assert.False(t, Match(nil, "x"))
}

func TestTokenizeWith_Labels(t *testing.T) {
	byID := map[string]domain.Label{
		"1": {ID: "1", Name: "bug"},
		"2": {ID: "2", Name: "Good First Issue"},
	}
	item := domain.Item{Title: "Crash on start", Labels: []string{"2", "9", "1"}, Reporter: "bob"}

	tokens := TokenizeWith(item, byID)
	assert.Equal(t, []string{"crash", "on", "start", "good first issue", "bug", "bob"}, tokens)

	assert.True(t, Match(tokens, "bug"))
	assert.True(t, Match(tokens, "first issue"))
	assert.False(t, Match(Tokenize(item), "bug"))
}
