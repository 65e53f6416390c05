package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/state"
)

// Pane identifies a focusable pane.
type Pane int

const (
	PaneActivity Pane = iota
	PaneOutput
	PaneGroups
	paneCount
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Address   string // shown in the header
	PollTick  time.Duration
	ThemeName string
	Filter    string
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	store     *state.Store
	address   string
	prefsPath string
	pollTick  time.Duration
	keys      keyMap

	theme    Theme
	width    int
	height   int
	ready    bool
	focus    Pane
	showHelp bool

	snapshot    state.Snapshot
	lastUpdated time.Time

	filter   eventFilter
	selected int

	output       viewport.Model
	followOutput bool
	groups       viewport.Model
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	return Model{
		ctx:          ctx,
		store:        opts.Store,
		address:      opts.Address,
		prefsPath:    prefsPath,
		pollTick:     pollTick,
		keys:         DefaultKeyMap(),
		theme:        GetTheme(opts.ThemeName),
		filter:       parseFilter(opts.Filter),
		followOutput: true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.output = viewport.New(0, 0)
			m.groups = viewport.New(0, 0)
		}
		m.ready = true
		m.layoutViewports()
		return m, nil

	case tickMsg:
		if m.ctx.Err() != nil {
			return m, tea.Quit
		}
		cmds := []tea.Cmd{tickCmd(m.pollTick)}
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.clampSelection()
		m.refreshViewports()
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderPanes())
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.refreshViewports()
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.focus = (m.focus + 1) % paneCount
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.focus = (m.focus + paneCount - 1) % paneCount
		return m, nil
	case key.Matches(msg, m.keys.CycleFilter):
		m.filter = m.filter.next()
		m.selected = 0
		m.savePrefs()
		return m, nil
	}

	switch m.focus {
	case PaneActivity:
		return m.handleActivityKey(msg)
	case PaneOutput:
		if key.Matches(msg, m.keys.ToggleFollow) {
			m.followOutput = !m.followOutput
			if m.followOutput {
				m.output.GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		// Scrolling up detaches from the tail.
		if !m.output.AtBottom() {
			m.followOutput = false
		}
		return m, cmd
	case PaneGroups:
		var cmd tea.Cmd
		m.groups, cmd = m.groups.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.visibleEvents())
	if count == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selected < count-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = count - 1
	}
	return m, nil
}

func (m *Model) clampSelection() {
	count := len(m.visibleEvents())
	if m.selected >= count {
		m.selected = max(count-1, 0)
	}
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, Filter: m.filter.String()})
}

// layoutViewports sizes the bottom panes. The screen is header, command
// bar, then the activity pane over the output and groups panes.
func (m *Model) layoutViewports() {
	_, bottomHeight := m.paneHeights()
	outputWidth, groupsWidth := m.bottomWidths()

	// -2 for the box borders on each axis.
	m.output.Width = max(outputWidth-2, 0)
	m.output.Height = max(bottomHeight-2, 0)
	m.groups.Width = max(groupsWidth-2, 0)
	m.groups.Height = max(bottomHeight-2, 0)
	m.refreshViewports()
}

func (m *Model) refreshViewports() {
	if !m.ready {
		return
	}
	m.output.SetContent(m.renderOutputContent())
	if m.followOutput {
		m.output.GotoBottom()
	}
	m.groups.SetContent(m.renderGroupsContent())
}

func (m Model) paneHeights() (top, bottom int) {
	content := max(m.height-2, 0) // header + command bar
	top = content / 2
	return top, content - top
}

func (m Model) bottomWidths() (output, groups int) {
	groups = m.width * 35 / 100
	if groups < 24 {
		groups = min(24, m.width/2)
	}
	return m.width - groups, groups
}

type tickMsg time.Time

type snapshotMsg state.Snapshot

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		// Cancelled from outside (signal); not a UI failure.
		return nil
	}
	return err
}
