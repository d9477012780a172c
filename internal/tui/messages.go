// Package tui provides the Bubble Tea model for browsing a repository's
// items through the filter and view engines.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/snapshot"
)

// ContextMsg carries a context provider event into the Bubble Tea loop.
type ContextMsg struct {
	Event snapshot.Event
}

// pageLoadedMsg is emitted when a page of items has been fetched.
type pageLoadedMsg struct {
	items      []domain.Item
	nextCursor string
	hasMore    bool
	refresh    bool
	err        error
}

// ContextHandler returns a snapshot handler that forwards provider events to
// a program. Delivery is asynchronous so the provider never waits on the UI;
// events that arrive out of order are dropped by sequence number.
func ContextHandler(p *tea.Program) snapshot.Handler {
	return func(ev snapshot.Event) {
		go p.Send(ContextMsg{Event: ev})
	}
}
