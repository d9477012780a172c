// Package search extracts searchable tokens from items and matches free-text
// queries against them.
package search

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/query"
)

// Tokenize returns the case-folded search tokens of an item, in a stable
// order: number, title words, body words, assignees, reporter, repository.
// Absent text fields contribute no tokens.
func Tokenize(item domain.Item) []string {
	return TokenizeWith(item, nil)
}

// TokenizeWith is Tokenize plus the names of the item's labels found in
// labelsByID, which follow the body words. Each label name is one token.
func TokenizeWith(item domain.Item, labelsByID map[string]domain.Label) []string {
	tokens := make([]string, 0, 16)

	if item.Number > 0 {
		tokens = append(tokens, "#"+strconv.Itoa(item.Number))
	}
	tokens = append(tokens, words(item.Title)...)
	tokens = append(tokens, words(item.Body)...)
	for _, id := range item.Labels {
		if l, ok := labelsByID[id]; ok && l.Name != "" {
			tokens = append(tokens, query.Fold(l.Name))
		}
	}
	for _, a := range item.Assignees {
		if a != "" {
			tokens = append(tokens, query.Fold(a))
		}
	}
	if item.Reporter != "" {
		tokens = append(tokens, query.Fold(item.Reporter))
	}
	if item.Repo != "" {
		tokens = append(tokens, query.Fold(item.Repo))
	}

	return tokens
}

// Match reports whether every whitespace-separated term of q is a substring
// of at least one token. An empty query matches.
func Match(tokens []string, q string) bool {
	for _, term := range strings.Fields(query.Fold(q)) {
		found := false
		for _, tok := range tokens {
			if strings.Contains(tok, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// words splits text on anything that is not a letter or digit.
func words(text string) []string {
	if text == "" {
		return nil
	}
	return strings.FieldsFunc(query.Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
