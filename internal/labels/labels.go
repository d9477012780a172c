// Package labels indexes repository labels and derives display colors for them.
package labels

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/robby/ghlens/internal/domain"
)

// Index maps label IDs to labels. Later duplicates of an ID replace earlier ones.
func Index(labels []domain.Label) map[string]domain.Label {
	byID := make(map[string]domain.Label, len(labels))
	for _, l := range labels {
		byID[l.ID] = l
	}
	return byID
}

// Names resolves label IDs to names, skipping IDs missing from the index.
func Names(ids []string, byID map[string]domain.Label) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			names = append(names, l.Name)
		}
	}
	return names
}

const (
	darkText  = "#000000"
	lightText = "#ffffff"

	// Backgrounds lighter than this get dark text.
	lightnessThreshold = 0.65
	// Backgrounds lighter than this get a darker border so the chip stays visible.
	borderThreshold = 0.9
)

// parse reads a label color ("d73a4a" or "#d73a4a").
func parse(hex string) (colorful.Color, bool) {
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// Background returns the label color as a "#rrggbb" string, or "" if invalid.
func Background(hex string) string {
	c, ok := parse(hex)
	if !ok {
		return ""
	}
	return c.Hex()
}

// TextColor returns a readable text color for a label with the given background.
func TextColor(hex string) string {
	c, ok := parse(hex)
	if !ok {
		return darkText
	}
	l, _, _ := c.Lab()
	if l > lightnessThreshold {
		return darkText
	}
	return lightText
}

// BorderColor returns the chip border color for a label background.
func BorderColor(hex string) string {
	c, ok := parse(hex)
	if !ok {
		return darkText
	}
	l, _, _ := c.Lab()
	if l > borderThreshold {
		return c.BlendLab(colorful.Color{}, 0.2).Clamped().Hex()
	}
	return c.Hex()
}
