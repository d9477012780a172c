package view

import (
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/labels"
	"github.com/robby/ghlens/internal/recommend"
)

// DateFormat is the layout of rendered dates.
const DateFormat = "Jan 2, 2006"

func lineStyle() map[string]string {
	return map[string]string{"display": "block", "fontSize": "13px", "padding": "2px 0"}
}

// line renders a single secondary text line.
func line(text string) Node {
	return Node{Text: text, Classes: []string{ClassSecondary}, Style: lineStyle()}
}

// ItemFields returns the view registry for GitHub items.
var ItemFields = sync.OnceValue(func() *Registry {
	return MustRegistry(
		Entry{"title", Field{Label: "Title", Render: renderTitle}},
		Entry{"reporter", Field{Label: "Reporter", Render: func(item domain.Item, _ *Context) (Node, bool) {
			if item.Reporter == "" {
				return Node{}, false
			}
			return line("Reporter: " + item.Reporter), true
		}}},
		Entry{"state", Field{Label: "State", Render: func(item domain.Item, _ *Context) (Node, bool) {
			if item.State == "" {
				return Node{}, false
			}
			return line("State: " + string(item.State)), true
		}}},
		Entry{"creationDate", Field{Label: "Date Created", Render: func(item domain.Item, _ *Context) (Node, bool) {
			return dateLine("Created", item.Created)
		}}},
		Entry{"updatedDate", Field{Label: "Date Last Updated", Render: func(item domain.Item, _ *Context) (Node, bool) {
			return dateLine("Updated", item.Updated)
		}}},
		Entry{"assignees", Field{Label: "Assignees", Render: func(item domain.Item, _ *Context) (Node, bool) {
			if len(item.Assignees) == 0 {
				return Node{}, false
			}
			return line("Assignees: " + strings.Join(item.Assignees, ",")), true
		}}},
		Entry{"status", Field{Label: "Status", Render: renderStatus}},
		Entry{"suggestions", Field{Label: "Suggestions", Render: func(item domain.Item, ctx *Context) (Node, bool) {
			return recommendations(item, ctx, domain.RecommendationSuggestion, ClassSection, ClassSecondary)
		}}},
		Entry{"warnings", Field{Label: "Warnings", Render: func(item domain.Item, ctx *Context) (Node, bool) {
			return recommendations(item, ctx, domain.RecommendationWarning, ClassWarn)
		}}},
		Entry{"labels", Field{Label: "Labels", Render: renderLabels}},
	)
})

func renderTitle(item domain.Item, _ *Context) (Node, bool) {
	if item.Title == "" {
		return Node{}, false
	}
	return Node{
		Text:    item.Title,
		Classes: []string{ClassTitle, ClassText},
		Style: map[string]string{
			"display":      "block",
			"marginBottom": "4px",
			"fontSize":     "15px",
			"padding":      "2px 0",
		},
	}, true
}

func dateLine(prefix string, t time.Time) (Node, bool) {
	if t.IsZero() {
		return Node{}, false
	}
	return line(prefix + ": " + t.Format(DateFormat)), true
}

func renderStatus(item domain.Item, _ *Context) (Node, bool) {
	if len(item.Statuses) == 0 {
		return Node{}, false
	}
	result := "Success"
	for _, s := range item.Statuses {
		if s.State != domain.StatusSuccess {
			result = "Not success"
			break
		}
	}
	return line("Status: " + result), true
}

func recommendations(item domain.Item, ctx *Context, t domain.RecommendationType, classes ...string) (Node, bool) {
	recs := ctx.RecommendationsFor(item)
	recs = recommend.OfType(recs, t)
	if len(recs) == 0 {
		return Node{}, false
	}

	n := Node{
		Classes:  classes,
		Style:    map[string]string{"fontSize": "13px"},
		Children: make([]Node, 0, len(recs)),
	}
	for _, r := range recs {
		n.Children = append(n.Children, Node{
			Text:  r.Message,
			Style: map[string]string{"display": "block", "padding": "2px 0"},
		})
	}
	return n, true
}

var chipStyle = map[string]string{
	"display":      "inline-block",
	"padding":      "4px 8px",
	"borderRadius": "4px",
	"marginRight":  "4px",
	"marginBottom": "4px",
}

func renderLabels(item domain.Item, ctx *Context) (Node, bool) {
	n := Node{
		Style: map[string]string{
			"display":        "flex",
			"justifyContent": "flex-end",
			"flexWrap":       "wrap",
			"fontSize":       "13px",
			"marginTop":      "8px",
			"padding":        "2px 0",
		},
	}
	for _, id := range item.Labels {
		l, ok := ctx.LabelsByID[id]
		if !ok {
			continue
		}
		style := maps.Clone(chipStyle)
		style["color"] = labels.TextColor(l.Color)
		style["borderColor"] = labels.BorderColor(l.Color)
		style["backgroundColor"] = labels.Background(l.Color)
		n.Children = append(n.Children, Node{Text: l.Name, Classes: []string{ClassLabel}, Style: style})
	}
	if len(n.Children) == 0 {
		return Node{}, false
	}
	return n, true
}
