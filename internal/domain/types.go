// Package domain defines the normalized types shared by the filter and view engines.
// These types represent GitHub issues and pull requests independent of the GraphQL API structure.
package domain

import "time"

// State is the open/closed state of an item.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// Item represents one trackable issue or pull request.
type Item struct {
	ID          string         // GitHub node ID
	Number      int            // Issue/PR number within the repository
	Repo        string         // Repository nameWithOwner (e.g., "owner/repo")
	URL         string         // Item URL
	Title       string         // Item title
	Body        string         // Item body text
	Assignees   []string       // Login names of assigned users, in API order
	Labels      []string       // Label IDs (see Label.ID)
	Comments    int            // Number of comments
	Reactions   map[string]int // Reaction kind (e.g., "+1") -> count
	Created     time.Time      // Creation time
	Updated     time.Time      // Last update time
	Closed      time.Time      // Closing time, zero while open
	State       State          // open or closed
	Statuses    []Status       // Check results, only for pull requests
	Reporter    string         // Author login
	PullRequest bool           // True for pull requests
}

// Status is the result of a single commit status check.
type Status struct {
	State string // e.g., "SUCCESS", "FAILURE", "PENDING"
}

// StatusSuccess is the status state of a passing check.
const StatusSuccess = "SUCCESS"

// ReactionThumbsUp is the reaction kind counted by the reaction filter.
const ReactionThumbsUp = "+1"

// Label is a repository label.
type Label struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Color string `yaml:"color"` // 6-digit hex without the leading '#'
}

// RecommendationType distinguishes warnings from suggestions.
type RecommendationType string

const (
	RecommendationWarning    RecommendationType = "warning"
	RecommendationSuggestion RecommendationType = "suggestion"
)

// Recommendation is a precomputed hint attached to items matching its rule.
type Recommendation struct {
	ID      string             `yaml:"id"`
	Type    RecommendationType `yaml:"type"`
	Message string             `yaml:"message"`
	Rule    Rule               `yaml:"rule"`
}

// Rule decides which items a recommendation applies to.
// All set conditions must hold; the zero Rule applies to every item.
type Rule struct {
	State         State    `yaml:"state,omitempty"`          // required state, empty for any
	Labels        []string `yaml:"labels,omitempty"`         // label names that must all be present
	WithoutLabels []string `yaml:"without_labels,omitempty"` // label names that must all be absent
	Unassigned    bool     `yaml:"unassigned,omitempty"`     // item must have no assignees
	PullRequest   *bool    `yaml:"pull_request,omitempty"`   // restrict to PRs (true) or issues (false)
}
