package query

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// A Caser keeps state and is not safe for concurrent use.
var folders = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

// Fold returns the case-folded form of s used for case-insensitive comparison.
// ASCII input is lowered in place of a full Unicode fold; the two agree on it.
func Fold(s string) string {
	if isASCII(s) {
		return strings.ToLower(s)
	}
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	c.Reset()
	return c.String(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// TextContains tests target against input with a case-insensitive substring
// match. An empty input matches any target.
func TextContains(target, input string, op Op) bool {
	if input == "" {
		return true
	}

	found := strings.Contains(Fold(target), Fold(input))
	switch op {
	case OpContains:
		return found
	case OpNotContains:
		return !found
	default:
		return false
	}
}

// ArrayContains reports whether any element of targets case-insensitively
// contains input (or, for OpNotContains, whether none does).
// An empty input matches any target list.
func ArrayContains(targets []string, input string, op Op) bool {
	if input == "" {
		return true
	}

	needle := Fold(input)
	found := false
	for _, t := range targets {
		if strings.Contains(Fold(t), needle) {
			found = true
			break
		}
	}

	switch op {
	case OpContains:
		return found
	case OpNotContains:
		return !found
	default:
		return false
	}
}

// NumberMatches compares target against value.
func NumberMatches(target, value float64, op Op) bool {
	switch op {
	case OpIs:
		return target == value
	case OpIsNot:
		return target != value
	case OpGreaterThan:
		return target > value
	case OpLessThan:
		return target < value
	default:
		return false
	}
}

// DateMatches compares target against date at day granularity (UTC).
func DateMatches(target, date time.Time, op Op) bool {
	t, d := day(target), day(date)
	switch op {
	case OpIs:
		return t.Equal(d)
	case OpIsNot:
		return !t.Equal(d)
	case OpBefore:
		return t.Before(d)
	case OpAfter:
		return t.After(d)
	default:
		return false
	}
}

// StateMatches compares a named state's computed truth value with the request.
func StateMatches(value bool, op Op) bool {
	switch op {
	case OpIs:
		return value
	case OpIsNot:
		return !value
	default:
		return false
	}
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
