package filter

import (
	"math"
	"sync"
	"time"

	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/labels"
	"github.com/robby/ghlens/internal/recommend"
)

// Recommendation states.
const (
	RecommendationEmpty      = "empty"
	RecommendationWarning    = "at least one warning"
	RecommendationSuggestion = "at least one suggestion"
)

// ItemFields returns the filter registry for GitHub items.
var ItemFields = sync.OnceValue(func() *Registry {
	return MustRegistry(
		Entry{"title", TextField{
			Name:   "Title",
			Target: func(item domain.Item) string { return item.Title },
			Suggest: func(items []domain.Item, _ *Context) []string {
				titles := make([]string, 0, len(items))
				for _, item := range items {
					titles = append(titles, item.Title)
				}
				return titles
			},
		}},
		Entry{"reporter", TextField{
			Name:   "Reporter",
			Target: func(item domain.Item) string { return item.Reporter },
			Suggest: func(items []domain.Item, _ *Context) []string {
				out := make([]string, 0, len(items))
				for _, item := range items {
					out = append(out, item.Reporter)
				}
				return out
			},
		}},
		Entry{"assignees", ArrayField{
			Name:   "Assignee",
			Target: func(item domain.Item, _ *Context) []string { return item.Assignees },
			Suggest: func(items []domain.Item, _ *Context) []string {
				var out []string
				for _, item := range items {
					out = append(out, item.Assignees...)
				}
				return out
			},
		}},
		Entry{"body", TextField{
			Name:   "Body",
			Target: func(item domain.Item) string { return item.Body },
		}},
		Entry{"labels", ArrayField{
			Name: "Labels",
			Target: func(item domain.Item, ctx *Context) []string {
				return labels.Names(item.Labels, ctx.LabelsByID)
			},
			Suggest: func(_ []domain.Item, ctx *Context) []string {
				out := make([]string, 0, len(ctx.LabelsByID))
				for _, l := range ctx.LabelsByID {
					out = append(out, l.Name)
				}
				return out
			},
		}},

		Entry{"commentCount", NumberField{
			Name:   "Comment Count",
			Target: func(item domain.Item, _ *Context) float64 { return float64(item.Comments) },
		}},
		Entry{"reactionCount", NumberField{
			Name: "Reaction Count",
			Target: func(item domain.Item, _ *Context) float64 {
				return float64(item.Reactions[domain.ReactionThumbsUp])
			},
		}},
		Entry{"days-since-created", NumberField{
			Name: "Days Since Created",
			Target: func(item domain.Item, ctx *Context) float64 {
				return Days(item.Created, ctx.Now())
			},
		}},
		Entry{"days-since-updated", NumberField{
			Name: "Days Since Updated",
			Target: func(item domain.Item, ctx *Context) float64 {
				return Days(item.Updated, ctx.Now())
			},
		}},
		Entry{"days-open", NumberField{
			Name: "Days Open",
			Target: func(item domain.Item, ctx *Context) float64 {
				end := item.Closed
				if end.IsZero() {
					end = ctx.Now()
				}
				return Days(item.Created, end)
			},
		}},

		Entry{"created", DateField{
			Name:   "Date Created",
			Target: func(item domain.Item) time.Time { return item.Created },
		}},
		Entry{"updated", DateField{
			Name:   "Date Updated",
			Target: func(item domain.Item) time.Time { return item.Updated },
		}},

		Entry{"state", StateField{
			Name:    "State",
			Options: []string{string(domain.StateOpen), string(domain.StateClosed)},
			Truth: func(item domain.Item, _ *Context) map[string]bool {
				return map[string]bool{
					string(domain.StateOpen):   item.State == domain.StateOpen,
					string(domain.StateClosed): item.State == domain.StateClosed,
				}
			},
		}},
		Entry{"recommendation", StateField{
			Name:    "Recommendation",
			Options: []string{RecommendationEmpty, RecommendationWarning, RecommendationSuggestion},
			Truth: func(item domain.Item, ctx *Context) map[string]bool {
				recs := ctx.RecommendationsFor(item)
				return map[string]bool{
					RecommendationEmpty:      len(recs) == 0,
					RecommendationWarning:    len(recommend.OfType(recs, domain.RecommendationWarning)) > 0,
					RecommendationSuggestion: len(recommend.OfType(recs, domain.RecommendationSuggestion)) > 0,
				}
			},
		}},
	)
})

// Days returns the whole number of days between two times, rounded to the
// nearest day.
func Days(start, end time.Time) float64 {
	return math.Round(math.Abs(float64(end.Sub(start))) / float64(24*time.Hour))
}
