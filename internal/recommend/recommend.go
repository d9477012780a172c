// Package recommend decides which recommendations apply to an item and
// loads recommendation definitions from a YAML file.
package recommend

import (
	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/labels"
	"github.com/robby/ghlens/internal/query"
)

// Func selects the recommendations applicable to an item. labelsByID is the
// index from the same snapshot as recs.
type Func func(item domain.Item, recs []domain.Recommendation, labelsByID map[string]domain.Label) []domain.Recommendation

// Applicable returns the recommendations whose rule holds for item, in input order.
func Applicable(item domain.Item, recs []domain.Recommendation, labelsByID map[string]domain.Label) []domain.Recommendation {
	if len(recs) == 0 {
		return nil
	}

	names := make(map[string]bool, len(item.Labels))
	for _, n := range labels.Names(item.Labels, labelsByID) {
		names[query.Fold(n)] = true
	}

	var out []domain.Recommendation
	for _, r := range recs {
		if applies(r.Rule, item, names) {
			out = append(out, r)
		}
	}
	return out
}

// OfType filters recommendations down to one type.
func OfType(recs []domain.Recommendation, t domain.RecommendationType) []domain.Recommendation {
	var out []domain.Recommendation
	for _, r := range recs {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

func applies(rule domain.Rule, item domain.Item, labelNames map[string]bool) bool {
	if rule.State != "" && rule.State != item.State {
		return false
	}
	if rule.PullRequest != nil && *rule.PullRequest != item.PullRequest {
		return false
	}
	if rule.Unassigned && len(item.Assignees) > 0 {
		return false
	}
	for _, name := range rule.Labels {
		if !labelNames[query.Fold(name)] {
			return false
		}
	}
	for _, name := range rule.WithoutLabels {
		if labelNames[query.Fold(name)] {
			return false
		}
	}
	return true
}
