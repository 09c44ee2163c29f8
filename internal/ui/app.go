package ui

import (
	"context"
	"fmt"
	"strings"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hirmes/hirmes/internal/client"
	"github.com/hirmes/hirmes/internal/modal"
	"github.com/hirmes/hirmes/internal/progress"
	"github.com/hirmes/hirmes/internal/results"
	"github.com/hirmes/hirmes/internal/search"
	"github.com/hirmes/hirmes/internal/settings"
)

// Searcher runs searches and opens result files.
type Searcher interface {
	Submit(ctx context.Context, query string, fullText bool) (*search.Result, error)
	OpenFile(ctx context.Context, path string) error
}

// Indexer runs indexing requests.
type Indexer interface {
	Submit(ctx context.Context, req client.IndexRequest) (*client.IndexResponse, error)
}

// Responder answers the displayed modal entry.
type Responder interface {
	Respond(id uint64, accepted bool) bool
}

type focus int

const (
	focusQuery focus = iota
	focusPath
	focusResults
	focusFilter
)

const appTitle = "Hirmes"

// AppOptions configures NewApp.
type AppOptions struct {
	Search  Searcher
	Index   Indexer
	Modal   Responder
	Styles  Styles
	Initial results.Snapshot

	FullText bool
	Indexing settings.Indexing
}

// App is the bubbletea model for the interactive search and indexing
// screen. All calls into the orchestrators and the modal are issued as
// commands so Update never blocks on them.
type App struct {
	ctx    context.Context
	search Searcher
	index  Indexer
	modal  Responder
	styles Styles

	width  int
	height int

	query   textinput.Model
	path    textinput.Model
	filter  textinput.Model
	spinner spinner.Model
	bar     bprogress.Model
	focus   focus

	fullText  bool
	recursive bool
	replace   bool

	view    results.View
	visible []int
	cursor  int

	modalState modal.State
	progress   progress.Update
	searching  bool
	indexing   bool
	quitting   bool
}

// NewApp creates the interactive model. ctx bounds every request the app
// issues.
func NewApp(ctx context.Context, opts AppOptions) *App {
	q := textinput.New()
	q.Placeholder = "search query"
	q.Prompt = "› "
	q.Focus()

	p := textinput.New()
	p.Placeholder = "directory to index"
	p.Prompt = "› "
	p.SetValue(opts.Indexing.Path)

	f := textinput.New()
	f.Placeholder = "filter rows"
	f.Prompt = "/"

	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	bar := bprogress.New(
		bprogress.WithSolidFill(ColorAccent),
		bprogress.WithWidth(40),
		bprogress.WithoutPercentage(),
	)

	a := &App{
		ctx:       ctx,
		search:    opts.Search,
		index:     opts.Index,
		modal:     opts.Modal,
		styles:    opts.Styles,
		query:     q,
		path:      p,
		filter:    f,
		spinner:   s,
		bar:       bar,
		fullText:  opts.FullText,
		recursive: opts.Indexing.Recursive,
		replace:   opts.Indexing.ReplaceFilename,
	}
	if opts.Initial.Present {
		a.setView(results.BuildView(opts.Initial))
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.spinner.Tick)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.bar.Width = max(20, min(60, msg.Width/2))
		return a, nil

	case modalMsg:
		a.modalState = modal.State(msg)
		return a, nil

	case progressMsg:
		a.progress = progress.Update(msg)
		return a, nil

	case boardMsg:
		a.setView(results.BuildView(results.Snapshot(msg)))
		return a, nil

	case searchDoneMsg:
		a.searching = false
		return a, nil

	case indexDoneMsg:
		a.indexing = false
		return a, nil

	case openDoneMsg:
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, a.updateFocused(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		a.quitting = true
		return a, tea.Quit
	}

	if a.modalState.Visible {
		return a, a.handleModalKey(key)
	}

	// The progress overlay cannot be dismissed and holds back submissions.
	if a.progress.Visible && (key == "esc" || key == "enter") {
		return a, nil
	}

	switch key {
	case "tab":
		return a, a.setFocus((a.focus + 1) % focusFilter)
	case "shift+tab":
		return a, a.setFocus((a.focus + focusFilter - 1) % focusFilter)
	case "ctrl+f":
		a.fullText = !a.fullText
		return a, nil
	case "ctrl+r":
		a.recursive = !a.recursive
		return a, nil
	case "ctrl+x":
		a.replace = !a.replace
		return a, nil
	}

	switch a.focus {
	case focusQuery:
		if key == "enter" {
			return a, a.submitSearch()
		}
	case focusPath:
		if key == "enter" {
			return a, a.submitIndex()
		}
	case focusResults:
		return a, a.handleResultsKey(key)
	case focusFilter:
		switch key {
		case "enter":
			return a, a.setFocus(focusResults)
		case "esc":
			a.filter.SetValue("")
			a.applyFilter()
			return a, a.setFocus(focusResults)
		}
		cmd := a.updateFocused(msg)
		a.applyFilter()
		return a, cmd
	}

	return a, a.updateFocused(msg)
}

func (a *App) handleModalKey(key string) tea.Cmd {
	st := a.modalState
	if st.Confirmable {
		switch key {
		case "y", "Y", "enter":
			return a.respond(st.ID, true)
		case "n", "N", "esc":
			return a.respond(st.ID, false)
		}
		return nil
	}
	switch key {
	case "enter", "esc", " ":
		return a.respond(st.ID, false)
	}
	return nil
}

func (a *App) handleResultsKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.visible)-1 {
			a.cursor++
		}
	case "enter":
		if path, ok := a.selectedPath(); ok {
			return a.openFile(path)
		}
	case "/":
		return a.setFocus(focusFilter)
	case "esc":
		return a.setFocus(focusQuery)
	case "q":
		a.quitting = true
		return tea.Quit
	}
	return nil
}

func (a *App) respond(id uint64, accepted bool) tea.Cmd {
	m := a.modal
	return func() tea.Msg {
		m.Respond(id, accepted)
		return nil
	}
}

func (a *App) submitSearch() tea.Cmd {
	query, fullText := a.query.Value(), a.fullText
	s, ctx := a.search, a.ctx
	a.searching = true
	return func() tea.Msg {
		_, err := s.Submit(ctx, query, fullText)
		return searchDoneMsg{err: err}
	}
}

func (a *App) submitIndex() tea.Cmd {
	if a.indexing {
		return nil
	}
	req := client.IndexRequest{
		Path:            strings.TrimSpace(a.path.Value()),
		Recursive:       a.recursive,
		ReplaceFilename: a.replace,
	}
	ix, ctx := a.index, a.ctx
	a.indexing = true
	return func() tea.Msg {
		_, err := ix.Submit(ctx, req)
		return indexDoneMsg{err: err}
	}
}

func (a *App) openFile(path string) tea.Cmd {
	s, ctx := a.search, a.ctx
	return func() tea.Msg {
		return openDoneMsg{err: s.OpenFile(ctx, path)}
	}
}

func (a *App) setFocus(f focus) tea.Cmd {
	a.focus = f
	a.query.Blur()
	a.path.Blur()
	a.filter.Blur()
	switch f {
	case focusQuery:
		return a.query.Focus()
	case focusPath:
		return a.path.Focus()
	case focusFilter:
		return a.filter.Focus()
	}
	return nil
}

func (a *App) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.focus {
	case focusQuery:
		a.query, cmd = a.query.Update(msg)
	case focusPath:
		a.path, cmd = a.path.Update(msg)
	case focusFilter:
		a.filter, cmd = a.filter.Update(msg)
	}
	return cmd
}

// setView installs a freshly built view, keeping the selection on the same
// path when the set is re-rendered with new tag values.
func (a *App) setView(v results.View) {
	prev, hadPrev := a.selectedPath()
	a.view = v
	a.applyFilter()
	if !hadPrev {
		return
	}
	for i, idx := range a.visible {
		if v.Paths[idx] == prev {
			a.cursor = i
			return
		}
	}
}

func (a *App) applyFilter() {
	a.visible = FilterRows(a.view, a.filter.Value())
	if a.cursor >= len(a.visible) {
		a.cursor = max(0, len(a.visible)-1)
	}
}

func (a *App) selectedPath() (string, bool) {
	if a.cursor < 0 || a.cursor >= len(a.visible) {
		return "", false
	}
	return a.view.Paths[a.visible[a.cursor]], true
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	contentWidth := a.width - 4
	if contentWidth < 60 {
		contentWidth = 60
	}

	sections := []string{
		a.renderHeader(),
		a.renderPanel("Search", a.query.View(), a.checkbox("Full text", "ctrl+f", a.fullText), a.focus == focusQuery, contentWidth),
		a.renderPanel("Index", a.path.View(),
			a.checkbox("Recursive", "ctrl+r", a.recursive)+"   "+a.checkbox("Replace filenames", "ctrl+x", a.replace),
			a.focus == focusPath, contentWidth),
		a.renderResults(contentWidth),
		a.renderHelp(),
	}
	screen := strings.Join(sections, "\n")

	switch {
	case a.modalState.Visible:
		return a.overlay(a.renderModal())
	case a.progress.Visible:
		return a.overlay(a.renderProgress())
	}
	return screen
}

func (a *App) renderHeader() string {
	status := ""
	switch {
	case a.indexing:
		status = a.spinner.View() + " " + a.styles.Label.Render("Indexing...")
	case a.searching:
		status = a.spinner.View() + " " + a.styles.Label.Render("Searching...")
	}
	return a.styles.Title.Render(appTitle) + "  " + status
}

func (a *App) renderPanel(title, input, toggles string, focused bool, width int) string {
	style := a.styles.Panel
	if focused {
		style = a.styles.Focused
	}
	body := lipgloss.JoinVertical(lipgloss.Left, input, a.styles.Label.Render(toggles))
	return lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Header.Render(title),
		style.Width(width).Render(body),
	)
}

func (a *App) checkbox(label, key string, on bool) string {
	box := "[ ]"
	if on {
		box = "[x]"
	}
	return fmt.Sprintf("%s %s (%s)", box, label, key)
}

func (a *App) renderResults(width int) string {
	if len(a.view.Headers) == 0 {
		return a.styles.Dim.Render("Submit a query to see results.")
	}

	selected := -1
	if a.focus == focusResults || a.focus == focusFilter {
		if a.cursor < len(a.visible) {
			selected = a.visible[a.cursor]
		}
	}

	title := a.styles.Header.Render(a.view.Title)
	if a.filter.Value() != "" || a.focus == focusFilter {
		title += "  " + a.filter.View()
	}
	table := RenderTable(a.view, a.styles, TableOptions{
		Width:    width,
		Rows:     a.visible,
		Selected: selected,
		MaxPath:  width / 3,
	})
	return lipgloss.JoinVertical(lipgloss.Left, title, table)
}

func (a *App) renderHelp() string {
	var help string
	switch a.focus {
	case focusResults:
		help = "↑/↓ move • enter open • / filter • esc back • q quit"
	case focusFilter:
		help = "type to filter • enter done • esc clear"
	default:
		help = "enter submit • tab switch • ctrl+c quit"
	}
	return a.styles.Dim.Render(help)
}

func (a *App) renderModal() string {
	st := a.modalState
	lines := []string{st.Message, ""}
	if st.Confirmable {
		lines = append(lines, a.styles.Label.Render("y accept • n decline"))
	} else {
		lines = append(lines, a.styles.Label.Render("enter close"))
	}
	if st.Pending > 0 {
		lines = append(lines, a.styles.Dim.Render(fmt.Sprintf("%d more waiting", st.Pending)))
	}
	return a.styles.Modal.Render(strings.Join(lines, "\n"))
}

func (a *App) renderProgress() string {
	pct := a.progress.Percent / 100
	body := lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Active.Render(a.progress.Label),
		a.bar.ViewAs(pct),
	)
	return a.styles.Modal.Render(body)
}

func (a *App) overlay(box string) string {
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, box)
}
