// Package tui is the interactive terminal player. It renders the playback
// store's state and translates keystrokes into store commands; the engine
// binding reacts to those commands on its own goroutine.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/mkessler/strum/internal/apicache"
	"github.com/mkessler/strum/internal/browser"
	"github.com/mkessler/strum/internal/core"
	"github.com/mkessler/strum/internal/history"
	"github.com/mkessler/strum/internal/queue"
	"github.com/mkessler/strum/internal/recommend"
	"github.com/mkessler/strum/internal/store"
	"github.com/mkessler/strum/internal/tui/components"
	"github.com/mkessler/strum/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelNowPlaying Panel = iota
	PanelQueue
	PanelBrowse
	PanelHistory

	panelCount
)

const (
	searchDebounce = 300 * time.Millisecond
	volumeStep     = 0.05
	seekStep       = 5 * time.Second
)

// App bundles the collaborators the TUI needs.
type App struct {
	Store     *store.Store
	Searcher  recommend.Searcher
	Cache     *apicache.Cache[[]core.Track]
	Assembler *recommend.Assembler
	Recorder  *history.MemoryRecorder
	Queries   *history.MemoryQueryLog

	RefreshRate time.Duration
	Logger      zerolog.Logger
}

// Model is the main TUI model
type Model struct {
	app     *App
	width   int
	height  int
	focused Panel

	// State
	snap    core.Intent
	recs    []core.Track
	recent  []core.Track
	loading bool

	// Components
	nowPlaying *components.NowPlaying
	queueList  *components.TrackList
	browseList *components.TrackList
	recentList *components.TrackList

	// Overlays
	showHelp bool

	// Search state
	showSearch    bool
	searchInput   textinput.Model
	searchResults []core.Track
	searchCursor  int
	searching     bool
	lastQuery     string
	searchErr     error

	// Error handling
	lastError   error
	errorExpiry time.Time

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(app *App) Model {
	ti := textinput.New()
	ti.Placeholder = "Search YouTube..."
	ti.CharLimit = 100
	ti.Width = 50

	return Model{
		app:         app,
		snap:        app.Store.Snapshot(),
		loading:     true,
		nowPlaying:  components.NewNowPlaying(),
		queueList:   components.NewTrackList("Queue", "Queue is empty"),
		browseList:  components.NewTrackList("Browse", "Loading recommendations..."),
		recentList:  components.NewTrackList("History", "No plays yet"),
		searchInput: ti,
	}
}

// Messages
type tickMsg time.Time
type recsMsg struct {
	tracks []core.Track
	err    error
}
type errMsg error
type searchDebounceMsg struct{ query string }
type searchResultsMsg struct {
	tracks []core.Track
	err    error
}

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.app.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadRecommendations() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		tracks, err := m.app.Assembler.Personalized(ctx, recommend.DefaultLimit)
		return recsMsg{tracks: tracks, err: err}
	}
}

func (m Model) doSearch(query string) tea.Cmd {
	return func() tea.Msg {
		if query == "" {
			return searchResultsMsg{}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		m.app.Queries.RecordQuery(query)

		key := apicache.Key("search", struct {
			Query     string
			PageToken string
		}{Query: query})
		tracks, err := m.app.Cache.GetOrFetch(ctx, key, apicache.DefaultTTL, func(ctx context.Context) ([]core.Track, error) {
			res, err := m.app.Searcher.Search(ctx, query, "")
			if err != nil {
				return nil, err
			}
			if res.RateLimited {
				return nil, nil
			}
			return res.Tracks, nil
		})
		return searchResultsMsg{tracks: tracks, err: err}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tick(),
		m.loadRecommendations(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.refresh()
		return m, m.tick()

	case recsMsg:
		m.loading = false
		if msg.err != nil {
			m.setError(msg.err)
		}
		m.recs = msg.tracks
		m.browseList.Reset()
		return m, nil

	case errMsg:
		m.setError(msg)
		return m, nil

	case searchDebounceMsg:
		if msg.query == m.searchInput.Value() && msg.query != m.lastQuery {
			m.lastQuery = msg.query
			m.searching = true
			return m, m.doSearch(msg.query)
		}

	case searchResultsMsg:
		m.searching = false
		m.searchResults = msg.tracks
		m.searchErr = msg.err
		m.searchCursor = 0
		return m, nil
	}

	if m.showSearch {
		var inputCmd tea.Cmd
		m.searchInput, inputCmd = m.searchInput.Update(msg)
		return m, inputCmd
	}

	return m, nil
}

// refresh pulls fresh state from the store and history.
func (m *Model) refresh() {
	m.snap = m.app.Store.Snapshot()
	m.recent = m.app.Recorder.Recent(20)
	if m.lastError != nil && time.Now().After(m.errorExpiry) {
		m.lastError = nil
	}
}

func (m *Model) setError(err error) {
	m.app.Logger.Warn().Err(err).Msg("tui error")
	m.lastError = err
	m.errorExpiry = time.Now().Add(5 * time.Second)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	if m.showSearch {
		return m.handleSearchKeyPress(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "/":
		m.showSearch = true
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		m.searchResults = nil
		m.searchCursor = 0
		m.lastQuery = ""
		m.searchErr = nil
		return m, textinput.Blink

	case "tab":
		m.focused = (m.focused + 1) % panelCount
		return m, nil

	case "shift+tab":
		m.focused = (m.focused + panelCount - 1) % panelCount
		return m, nil
	}

	// Playback controls. Store commands are synchronous, so the snapshot
	// can be refreshed right away for the next render.
	switch msg.String() {
	case " ":
		m.app.Store.TogglePlay()
		m.refresh()
		return m, nil
	case "n":
		m.app.Store.Advance(queue.Next)
		m.refresh()
		return m, nil
	case "p":
		m.app.Store.Advance(queue.Previous)
		m.refresh()
		return m, nil
	case "s":
		m.app.Store.SetShuffle(!m.snap.Shuffle)
		m.refresh()
		return m, nil
	case "r":
		m.app.Store.SetRepeat(m.snap.Repeat.Cycle())
		m.refresh()
		return m, nil
	case "+", "=":
		m.app.Store.SetVolume(m.snap.Volume + volumeStep)
		m.refresh()
		return m, nil
	case "-":
		m.app.Store.SetVolume(m.snap.Volume - volumeStep)
		m.refresh()
		return m, nil
	case "left":
		m.app.Store.SeekTo(m.snap.Position - seekStep)
		m.refresh()
		return m, nil
	case "right":
		m.app.Store.SeekTo(m.snap.Position + seekStep)
		m.refresh()
		return m, nil
	case "c":
		m.app.Store.Close()
		m.refresh()
		return m, nil
	case "o":
		if m.snap.Current != nil {
			if err := browser.Open(m.snap.Current.WatchURL()); err != nil {
				m.setError(err)
			}
		}
		return m, nil
	}

	return m.handlePanelKeyPress(msg)
}

func (m Model) handlePanelKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.focused {
	case PanelQueue:
		switch msg.String() {
		case "j", "down":
			m.queueList.MoveDown(len(m.snap.Queue))
		case "k", "up":
			m.queueList.MoveUp()
		case "enter":
			if t, ok := pick(m.snap.Queue, m.queueList.Cursor()); ok {
				m.app.Store.PlayTrack(t)
				m.refresh()
			}
		case "d", "x":
			if t, ok := pick(m.snap.Queue, m.queueList.Cursor()); ok {
				m.app.Store.Dequeue(t.ID)
				m.refresh()
			}
		}

	case PanelBrowse:
		switch msg.String() {
		case "j", "down":
			m.browseList.MoveDown(len(m.recs))
		case "k", "up":
			m.browseList.MoveUp()
		case "enter":
			if t, ok := pick(m.recs, m.browseList.Cursor()); ok {
				m.app.Store.Enqueue(t)
				m.app.Store.PlayTrack(t)
				m.refresh()
			}
		case "a":
			if t, ok := pick(m.recs, m.browseList.Cursor()); ok {
				m.app.Store.Enqueue(t)
				m.refresh()
			}
		case "R":
			m.loading = true
			return m, m.loadRecommendations()
		}

	case PanelHistory:
		switch msg.String() {
		case "j", "down":
			m.recentList.MoveDown(len(m.recent))
		case "k", "up":
			m.recentList.MoveUp()
		case "enter":
			if t, ok := pick(m.recent, m.recentList.Cursor()); ok {
				m.app.Store.Enqueue(t)
				m.app.Store.PlayTrack(t)
				m.refresh()
			}
		case "a":
			if t, ok := pick(m.recent, m.recentList.Cursor()); ok {
				m.app.Store.Enqueue(t)
				m.refresh()
			}
		}
	}

	return m, nil
}

func (m Model) handleSearchKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg.String() {
	case "esc":
		m.showSearch = false
		m.searchInput.Blur()
		return m, nil

	case "enter":
		if t, ok := pick(m.searchResults, m.searchCursor); ok {
			m.showSearch = false
			m.searchInput.Blur()
			m.app.Store.Enqueue(t)
			m.app.Store.PlayTrack(t)
			m.refresh()
		}
		return m, nil

	case "up", "ctrl+p":
		if m.searchCursor > 0 {
			m.searchCursor--
		}
		return m, nil

	case "down", "ctrl+n":
		if m.searchCursor < len(m.searchResults)-1 {
			m.searchCursor++
		}
		return m, nil

	case "ctrl+q":
		if t, ok := pick(m.searchResults, m.searchCursor); ok {
			m.app.Store.Enqueue(t)
			m.refresh()
		}
		return m, nil
	}

	var inputCmd tea.Cmd
	m.searchInput, inputCmd = m.searchInput.Update(msg)
	cmds = append(cmds, inputCmd)

	// Debounce search
	if m.searchInput.Value() != m.lastQuery {
		cmds = append(cmds, tea.Tick(searchDebounce, func(time.Time) tea.Msg {
			return searchDebounceMsg{query: m.searchInput.Value()}
		}))
	}

	return m, tea.Batch(cmds...)
}

func pick(tracks []core.Track, i int) (core.Track, bool) {
	if i < 0 || i >= len(tracks) {
		return core.Track{}, false
	}
	return tracks[i], true
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}
	if m.showSearch {
		return m.renderSearch()
	}

	// Main layout: two columns.
	// Left: Now Playing (top), Queue (bottom)
	// Right: Browse (top), History (bottom)
	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 2
	topHeight := m.height * 40 / 100
	bottomHeight := m.height - topHeight - 2

	currentID := ""
	if m.snap.Current != nil {
		currentID = m.snap.Current.ID
	}

	nowPlaying := m.nowPlaying.Render(m.snap, leftWidth-2, topHeight-2, m.focused == PanelNowPlaying)
	queueView := m.queueList.Render(m.snap.Queue, currentID, leftWidth-2, bottomHeight-2, m.focused == PanelQueue)
	browseView := m.browseList.Render(m.recs, currentID, rightWidth-2, topHeight-2, m.focused == PanelBrowse)
	recentView := m.recentList.Render(m.recent, currentID, rightWidth-2, bottomHeight-2, m.focused == PanelHistory)

	leftCol := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, queueView)
	rightCol := lipgloss.JoinVertical(lipgloss.Left, browseView, recentView)
	main := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render("q:quit  ?:help  /:search  space:play/pause  n:next  p:prev  s:shuffle  r:repeat  +/-:volume  tab:panel")

	if m.loading {
		status = styles.Muted.Render("Loading recommendations...")
	}
	if m.lastError != nil {
		status = styles.Paused.Render("Error: " + m.lastError.Error())
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := "Strum - Keyboard Shortcuts"
	divider := styles.Repeat("═", len(title))

	help := `
  ` + title + `
  ` + divider + `

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help
  /            Search
  Tab          Next panel
  Shift+Tab    Previous panel

  Playback
  ────────
  Space        Play/Pause
  n            Next track
  p            Previous track
  s            Toggle shuffle
  r            Cycle repeat (off/all/one)
  +/=          Volume up
  -            Volume down
  ←/→          Seek 5s
  c            Close player (keeps queue)
  o            Open current track in browser

  Lists (Queue / Browse / History)
  ────────────────────────────────
  j/↓          Select next
  k/↑          Select previous
  Enter        Play selected
  a            Add to queue
  d/x          Remove from queue (queue panel)
  R            Reload recommendations (browse panel)

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

func (m Model) renderSearch() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.Primary)
	b.WriteString(titleStyle.Render("Search"))
	b.WriteString("\n\n")

	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")

	subtitleStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
	errorStyle := lipgloss.NewStyle().Foreground(styles.Error)

	if m.searchErr != nil {
		b.WriteString(errorStyle.Render("Error: " + m.searchErr.Error()))
	} else if m.searching {
		b.WriteString(subtitleStyle.Render("Searching..."))
	} else if len(m.searchResults) == 0 && m.searchInput.Value() != "" && m.lastQuery != "" {
		b.WriteString(subtitleStyle.Render("No results found"))
	} else {
		maxResults := 10
		for i, t := range m.searchResults {
			if i >= maxResults {
				b.WriteString(subtitleStyle.Render("  ...and more"))
				break
			}

			line := t.Title
			if t.Artist != "" {
				line += " " + subtitleStyle.Render(t.Artist)
			}

			if i == m.searchCursor {
				b.WriteString(styles.Selected.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("↑/↓:nav  Enter:play  Ctrl+q:queue  Esc:close"))

	content := lipgloss.NewStyle().
		Width(60).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.FocusedBorder.Render(content))
}

// Run starts the TUI application
func Run(app *App) error {
	model := NewModel(app)
	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err := p.Run()
	return err
}
