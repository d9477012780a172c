package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

var classStyles = map[string]lipgloss.Style{
	ClassTitle: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")), // Purple
	ClassSecondary: lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")), // Dark gray
	ClassWarn: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")), // Red
}

// Terminal renders a node tree for a terminal of the given width. Text is
// word-wrapped; inline-block children are laid out in rows. Only the color,
// backgroundColor and display style keys are honored.
func Terminal(n Node, width int) string {
	if width <= 0 {
		width = 80
	}
	return render(n, width)
}

func render(n Node, width int) string {
	style := nodeStyle(n)

	var parts []string
	if n.Text != "" {
		text := n.Text
		if n.Style["display"] != "inline-block" {
			text = wordwrap.String(text, width)
		}
		parts = append(parts, text)
	}

	var row []string
	rowWidth := 0
	flush := func() {
		if len(row) > 0 {
			parts = append(parts, strings.Join(row, " "))
			row, rowWidth = nil, 0
		}
	}
	for _, c := range n.Children {
		out := render(c, width)
		if c.Style["display"] != "inline-block" {
			flush()
			parts = append(parts, out)
			continue
		}
		w := lipgloss.Width(out)
		if len(row) > 0 && rowWidth+1+w > width {
			flush()
		}
		if len(row) > 0 {
			rowWidth++
		}
		row = append(row, out)
		rowWidth += w
	}
	flush()

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func nodeStyle(n Node) lipgloss.Style {
	style := lipgloss.NewStyle()
	for _, class := range n.Classes {
		if s, ok := classStyles[class]; ok {
			style = style.Inherit(s)
		}
	}
	if c := n.Style["color"]; c != "" {
		style = style.Foreground(lipgloss.Color(c))
	}
	if c := n.Style["backgroundColor"]; c != "" {
		style = style.Background(lipgloss.Color(c))
	}
	if n.Style["display"] == "inline-block" {
		style = style.Padding(0, 1)
	}
	return style
}
