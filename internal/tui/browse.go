package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/pkg/browser"
	"github.com/robby/ghlens/internal/domain"
	"github.com/robby/ghlens/internal/filter"
	"github.com/robby/ghlens/internal/query"
	"github.com/robby/ghlens/internal/store"
	"github.com/robby/ghlens/internal/view"
)

// Layout constants
const (
	headerLines  = 2  // Title line + hints line
	pageJumpSize = 10 // Number of items to jump with Ctrl+D/U
)

// ItemLoader fetches pages of items. *gh.Client implements it.
type ItemLoader interface {
	ListItems(ctx context.Context, owner, repo, cursor string, limit int) ([]domain.Item, string, bool, error)
}

// Options holds the dependencies of a BrowseModel.
type Options struct {
	Store    *store.Store
	Loader   ItemLoader
	Filterer *filter.Filterer
	Viewer   *view.Viewer
	Fields   []string // view fields shown in the detail pane
	PageSize int      // items per request
	Limit    int      // stop auto-loading after this many items; 0 loads all
	Search   string   // initial free-text search
}

// BrowseModel lists the items of a repository that pass the active filter and
// shows one item at a time through the viewer.
type BrowseModel struct {
	// Dependencies
	ctx      context.Context
	store    *store.Store
	loader   ItemLoader
	filterer *filter.Filterer
	viewer   *view.Viewer
	fields   []string
	pageSize int
	limit    int

	// UI components
	keymap      KeyMap
	help        HelpModel
	spinner     spinner.Model
	searchInput textinput.Model
	detail      viewport.Model

	// List state
	visible  []domain.Item
	selected int
	offset   int

	// View state
	width       int
	height      int
	showHelp    bool
	searchMode  bool
	searchText  string
	detailMode  bool
	loading     bool
	loadingMore bool
	waiting     bool // no evaluation context yet
	errorToast  string
}

// NewBrowseModel creates a browse model.
func NewBrowseModel(ctx context.Context, opts Options) BrowseModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.Prompt = "/ "
	ti.ShowSuggestions = true
	ti.SetValue(opts.Search)

	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}

	m := BrowseModel{
		ctx:         ctx,
		store:       opts.Store,
		loader:      opts.Loader,
		filterer:    opts.Filterer,
		viewer:      opts.Viewer,
		fields:      opts.Fields,
		pageSize:    opts.PageSize,
		limit:       opts.Limit,
		keymap:      DefaultKeyMap(),
		help:        NewHelpModel(DefaultKeyMap()),
		spinner:     sp,
		searchInput: ti,
		detail:      viewport.New(80, 20),
		searchText:  opts.Search,
		loading:     true,
		waiting:     true,
	}
	return m
}

// Init starts loading the first page.
func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tea.WindowSize(),
		m.loadPage("", true),
	)
}

// Update handles messages.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		(&m).resizeDetail()
		return m, nil

	case ContextMsg:
		m.filterer.Observe(msg.Event)
		m.viewer.Observe(msg.Event)
		(&m).applyFilter()
		if m.detailMode {
			(&m).renderDetail()
		}
		return m, nil

	case pageLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadingMore = false
			m.errorToast = fmt.Sprintf("Load failed: %v", msg.err)
			return m, nil
		}

		if msg.refresh {
			m.store.Clear()
		}
		m.store.UpsertItems(msg.items)
		m.store.SetPagination(msg.nextCursor, msg.hasMore)
		(&m).applyFilter()

		// Keep loading in the background until the limit.
		if msg.hasMore && msg.nextCursor != "" && (m.limit <= 0 || m.store.Len() < m.limit) {
			m.loadingMore = true
			return m, m.loadPage(msg.nextCursor, false)
		}
		m.loadingMore = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m BrowseModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		if key.Matches(msg, m.keymap.Help, m.keymap.Quit, m.keymap.Back) {
			m.showHelp = false
		}
		return m, nil
	}

	// Search mode
	if m.searchMode {
		switch msg.Type {
		case tea.KeyEnter:
			m.searchMode = false
			m.searchInput.Blur()
			m.searchText = m.searchInput.Value()
			(&m).applyFilter()
			return m, nil
		case tea.KeyEsc:
			m.searchMode = false
			m.searchInput.Blur()
			m.searchInput.SetValue(m.searchText)
			return m, nil
		default:
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}
	}

	// Detail pane
	if m.detailMode {
		switch {
		case key.Matches(msg, m.keymap.Back, m.keymap.Quit):
			m.detailMode = false
			return m, nil
		case key.Matches(msg, m.keymap.Open):
			m.openSelected()
			return m, nil
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = true
	case key.Matches(msg, m.keymap.Search):
		m.searchMode = true
		m.searchInput.SetSuggestions(m.suggestions())
		return m, m.searchInput.Focus()
	case key.Matches(msg, m.keymap.Down):
		(&m).moveSelection(1)
	case key.Matches(msg, m.keymap.Up):
		(&m).moveSelection(-1)
	case key.Matches(msg, m.keymap.PageDown):
		(&m).moveSelection(pageJumpSize)
	case key.Matches(msg, m.keymap.PageUp):
		(&m).moveSelection(-pageJumpSize)
	case key.Matches(msg, m.keymap.Top):
		(&m).moveSelection(-len(m.visible))
	case key.Matches(msg, m.keymap.Bottom):
		(&m).moveSelection(len(m.visible))
	case key.Matches(msg, m.keymap.Open):
		m.openSelected()
	case key.Matches(msg, m.keymap.View):
		if _, ok := m.selectedItem(); ok {
			m.detailMode = true
			(&m).renderDetail()
		}
	case key.Matches(msg, m.keymap.Refresh):
		m.loading = true
		m.errorToast = ""
		return m, m.loadPage("", true)
	case key.Matches(msg, m.keymap.LoadMore):
		cursor, hasMore := m.store.GetPagination()
		if hasMore && !m.loadingMore {
			m.loadingMore = true
			return m, m.loadPage(cursor, false)
		}
	}

	return m, nil
}

// applyFilter recomputes the visible items from the store.
func (m *BrowseModel) applyFilter() {
	m.filterer.SetSearch(m.searchText)

	matched, err := m.filterer.Filter(m.store.Items())
	switch {
	case errors.Is(err, query.ErrMissingContext):
		m.waiting = true
		m.visible = nil
	case err != nil:
		m.waiting = false
		m.errorToast = err.Error()
		m.visible = nil
	default:
		m.waiting = false
		m.visible = matched
	}

	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
	m.adjustScroll()
}

// suggestions offers label names and assignees for the search input.
func (m BrowseModel) suggestions() []string {
	items := m.store.Items()
	out := m.filterer.AutocompleteFor("labels", items)
	return append(out, m.filterer.AutocompleteFor("assignees", items)...)
}

func (m *BrowseModel) moveSelection(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.selected = min(max(m.selected+delta, 0), len(m.visible)-1)
	m.adjustScroll()
}

// adjustScroll keeps the selected item inside the visible window.
func (m *BrowseModel) adjustScroll() {
	rows := m.listHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+rows {
		m.offset = m.selected - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m BrowseModel) selectedItem() (domain.Item, bool) {
	if m.selected < 0 || m.selected >= len(m.visible) {
		return domain.Item{}, false
	}
	return m.visible[m.selected], true
}

func (m BrowseModel) openSelected() {
	if item, ok := m.selectedItem(); ok && item.URL != "" {
		_ = browser.OpenURL(item.URL)
	}
}

// loadPage fetches one page of items in the background.
func (m BrowseModel) loadPage(cursor string, refresh bool) tea.Cmd {
	return func() tea.Msg {
		repo, err := m.store.GetRepository()
		if err != nil {
			return pageLoadedMsg{err: err}
		}
		items, next, more, err := m.loader.ListItems(m.ctx, repo.Owner, repo.Name, cursor, m.pageSize)
		if err != nil {
			return pageLoadedMsg{err: err}
		}
		return pageLoadedMsg{items: items, nextCursor: next, hasMore: more, refresh: refresh}
	}
}

func (m BrowseModel) size() (int, int) {
	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}
	return width, height
}

func (m BrowseModel) listHeight() int {
	_, height := m.size()
	rows := height - headerLines
	if m.searchMode {
		rows--
	}
	return max(rows, 1)
}

// View renders the browser.
func (m BrowseModel) View() string {
	width, height := m.size()

	sections := []string{m.renderHeader(width), m.renderHints(width)}
	if m.searchMode {
		sections = append(sections, m.searchInput.View())
	}

	bodyHeight := max(height-len(sections), 1)

	var body string
	switch {
	case m.showHelp:
		body = m.help.View(width)
	case m.detailMode:
		body = DetailStyle.Render(m.detail.View())
	case m.loading && m.store.Len() == 0:
		body = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, m.spinner.View()+" Loading items...")
	case m.waiting:
		body = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, m.spinner.View()+" Waiting for labels and recommendations...")
	case len(m.visible) == 0:
		body = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, "No matching items. Press / to change the search.")
	default:
		body = m.renderList(width, bodyHeight)
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title line with repository and counts.
func (m BrowseModel) renderHeader(width int) string {
	title := "ghlens"
	if repo, err := m.store.GetRepository(); err == nil {
		title = "ghlens " + repo.String()
	}

	var status []string
	if m.loadingMore {
		status = append(status, m.spinner.View()+"loading")
	}
	status = append(status, fmt.Sprintf("%d/%d items", len(m.visible), m.store.Len()))
	if n := len(m.filterer.Clauses()); n > 0 {
		status = append(status, fmt.Sprintf("%d filters", n))
	}
	if m.searchText != "" {
		status = append(status, "/"+m.searchText)
	}
	right := strings.Join(status, " | ")

	padding := max(width-lipgloss.Width(title)-lipgloss.Width(right)-2, 1)
	return TitleStyle.Render(title) + strings.Repeat(" ", padding) + DimStyle.Render(right)
}

// renderHints renders key hints, or the error toast when there is one.
func (m BrowseModel) renderHints(width int) string {
	if m.errorToast != "" {
		return ErrorStyle.Render(truncate.StringWithTail(m.errorToast, uint(max(width, 1)), "…"))
	}
	return DimStyle.Render(m.help.ShortView(width))
}

func (m BrowseModel) renderList(width, height int) string {
	end := min(m.offset+height, len(m.visible))

	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		row := formatRow(m.visible[i], width-2)
		if i == m.selected {
			lines = append(lines, SelectedItemStyle.Render("> "+row))
		} else {
			lines = append(lines, NormalItemStyle.Render("  "+row))
		}
	}
	return strings.Join(lines, "\n")
}

// formatRow renders one list row: number, title and state marker.
func formatRow(item domain.Item, width int) string {
	kind := "issue"
	if item.PullRequest {
		kind = "pr"
	}
	suffix := fmt.Sprintf(" (%s, %s)", kind, item.State)
	prefix := fmt.Sprintf("#%d ", item.Number)

	room := max(width-len(prefix)-len(suffix), 1)
	return prefix + truncate.StringWithTail(item.Title, uint(room), "…") + suffix
}

func (m *BrowseModel) resizeDetail() {
	width, height := m.size()
	m.detail.Width = max(width-4, 10)              // border and padding
	m.detail.Height = max(height-headerLines-2, 3) // border
	if m.detailMode {
		m.renderDetail()
	}
}

// renderDetail renders the selected item into the detail viewport.
func (m *BrowseModel) renderDetail() {
	item, ok := m.selectedItem()
	if !ok {
		m.detailMode = false
		return
	}

	node, err := m.viewer.View(item, m.fields)
	if err != nil {
		m.detail.SetContent(ErrorStyle.Render(err.Error()))
		return
	}
	m.detail.SetContent(view.Terminal(node, m.detail.Width))
	m.detail.GotoTop()
}
