// Package view composes display node trees for items from a registry of
// field renderers.
package view

import (
	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/snapshot"
)

// Node is one element of a rendered item. Classes and Style carry
// presentation hints; Terminal honors the ones it understands.
type Node struct {
	Text     string
	Classes  []string
	Style    map[string]string
	Children []Node
}

// Context is what a renderer sees: the item and the snapshot it is rendered
// against.
type Context struct {
	Item domain.Item
	*snapshot.Snapshot
}

// Presentation classes used by the item renderers.
const (
	ClassTitle     = "title"
	ClassText      = "theme-text"
	ClassSecondary = "theme-secondary-text"
	ClassWarn      = "theme-warn"
	ClassSection   = "section"
	ClassLabel     = "label"
)
