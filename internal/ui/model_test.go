package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/state"
)

func sampleSnapshot() state.Snapshot {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return state.Snapshot{
		HasStatus: true,
		Status: state.Status{
			Running:   true,
			PID:       4242,
			Account:   "+4900",
			StartedAt: time.Now().Add(-90 * time.Minute),
			Counters:  state.Counters{Received: 2, Replied: 1, ReplyFailures: 1},
			Recent: []state.Event{
				{Time: base, Kind: state.EventReceived, Peer: "+4912345", Text: "hello"},
				{Time: base.Add(time.Second), Kind: state.EventReplied, Peer: "+4912345", Text: "hi there"},
				{Time: base.Add(2 * time.Second), Kind: state.EventReplyFailed, Peer: "+4912345", Error: "responder timeout"},
				{Time: base.Add(3 * time.Second), Kind: state.EventSent, Peer: "abcd", Text: "group note"},
			},
			DaemonOutput: []string{"Envelope from: +4912345 (device: 1)", "Body: hello"},
		},
		Groups: map[string]string{"Family": "abcd", "Work": "ef01"},
	}
}

func newSizedModel(t *testing.T, snap state.Snapshot) Model {
	t.Helper()
	m := New(Options{Address: "127.0.0.1:5000", PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	updated, _ = updated.Update(snapshotMsg(snap))
	return updated.(Model)
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func TestView_LoadingBeforeSize(t *testing.T) {
	m := New(Options{})
	assert.Equal(t, "Loading...", m.View())
}

func TestView_RendersPanes(t *testing.T) {
	m := newSizedModel(t, sampleSnapshot())
	view := m.View()

	assert.Contains(t, view, "courier")
	assert.Contains(t, view, "RUNNING pid 4242")
	assert.Contains(t, view, "+4900")
	assert.Contains(t, view, "Activity")
	assert.Contains(t, view, "hi there")
	assert.Contains(t, view, "responder timeout")
	assert.Contains(t, view, "Body: hello")
	assert.Contains(t, view, "Groups (2)")
	assert.Contains(t, view, "Family")
}

func TestView_OfflineHeader(t *testing.T) {
	snap := state.Snapshot{LastError: errors.New("dial tcp: connection refused"), ConsecutiveFailures: 2}
	m := newSizedModel(t, snap)

	view := m.View()
	assert.Contains(t, view, "API OFFLINE")
	assert.Contains(t, view, "Retrying")
}

func TestVisibleEvents_NewestFirstAndFiltered(t *testing.T) {
	m := newSizedModel(t, sampleSnapshot())

	events := m.visibleEvents()
	require.Len(t, events, 4)
	assert.Equal(t, state.EventSent, events[0].Kind)
	assert.Equal(t, state.EventReceived, events[3].Kind)

	m = press(t, m, "f")
	assert.Equal(t, filterFailures, m.filter)
	events = m.visibleEvents()
	require.Len(t, events, 1)
	assert.Equal(t, state.EventReplyFailed, events[0].Kind)

	m = press(t, m, "f")
	assert.Equal(t, filterInbound, m.filter)
	assert.Len(t, m.visibleEvents(), 3)

	m = press(t, m, "f")
	assert.Equal(t, filterAll, m.filter)
}

func TestActivitySelectionClamps(t *testing.T) {
	m := newSizedModel(t, sampleSnapshot())

	m = press(t, m, "j", "j", "j", "j", "j")
	assert.Equal(t, 3, m.selected)
	m = press(t, m, "k")
	assert.Equal(t, 2, m.selected)
	m = press(t, m, "g")
	assert.Equal(t, 0, m.selected)
	m = press(t, m, "G")
	assert.Equal(t, 3, m.selected)

	// A smaller snapshot pulls the selection back into range.
	snap := sampleSnapshot()
	snap.Status.Recent = snap.Status.Recent[:1]
	updated, _ := m.Update(snapshotMsg(snap))
	assert.Equal(t, 0, updated.(Model).selected)
}

func TestFocusCycles(t *testing.T) {
	m := newSizedModel(t, sampleSnapshot())
	require.Equal(t, PaneActivity, m.focus)

	m = press(t, m, "tab")
	assert.Equal(t, PaneOutput, m.focus)
	m = press(t, m, "tab")
	assert.Equal(t, PaneGroups, m.focus)
	m = press(t, m, "tab")
	assert.Equal(t, PaneActivity, m.focus)
	m = press(t, m, "shift+tab")
	assert.Equal(t, PaneGroups, m.focus)
}

func TestOutputFollowToggle(t *testing.T) {
	m := newSizedModel(t, sampleSnapshot())
	m = press(t, m, "tab")
	require.True(t, m.followOutput)

	m = press(t, m, " ")
	assert.False(t, m.followOutput)
	assert.Contains(t, m.View(), "paused")

	m = press(t, m, " ")
	assert.True(t, m.followOutput)
}

func TestThemeAndFilterPersist(t *testing.T) {
	m := newSizedModel(t, sampleSnapshot())
	m = press(t, m, "T", "f")

	assert.Equal(t, "Slate", m.theme.Name)
	saved := prefs.Load(m.prefsPath)
	assert.Equal(t, "Slate", saved.Theme)
	assert.Equal(t, "failures", saved.Filter)
}

func TestHelpOverlay(t *testing.T) {
	m := newSizedModel(t, sampleSnapshot())
	m = press(t, m, "?")
	require.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m = press(t, m, "x")
	assert.False(t, m.showHelp)
}

func TestQuitKey(t *testing.T) {
	m := newSizedModel(t, sampleSnapshot())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRenderTitledBoxDimensions(t *testing.T) {
	m := newSizedModel(t, sampleSnapshot())
	box := m.renderTitledBox("Title", "one\ntwo", 30, 5, true)

	lines := strings.Split(box, "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "Title")
	assert.Contains(t, lines[1], "one")
	assert.Contains(t, lines[2], "two")
}

func TestNewUsesPrefsFilter(t *testing.T) {
	m := New(Options{Filter: "inbound"})
	assert.Equal(t, filterInbound, m.filter)
	assert.Equal(t, "Dracula", m.theme.Name)
}
