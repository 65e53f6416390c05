package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/courier/internal/state"
)

// eventFilter narrows the activity pane.
type eventFilter int

const (
	filterAll eventFilter = iota
	filterFailures
	filterInbound
)

func parseFilter(name string) eventFilter {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "failures":
		return filterFailures
	case "inbound":
		return filterInbound
	default:
		return filterAll
	}
}

func (f eventFilter) String() string {
	switch f {
	case filterFailures:
		return "failures"
	case filterInbound:
		return "inbound"
	default:
		return "all"
	}
}

func (f eventFilter) next() eventFilter {
	return (f + 1) % 3
}

func (f eventFilter) match(e state.Event) bool {
	switch f {
	case filterFailures:
		return e.Failed()
	case filterInbound:
		return e.Kind == state.EventReceived || e.Kind == state.EventReplied || e.Kind == state.EventReplyFailed
	default:
		return true
	}
}

// visibleEvents returns the filtered activity, newest first.
func (m Model) visibleEvents() []state.Event {
	recent := m.snapshot.Status.Recent
	out := make([]state.Event, 0, len(recent))
	for _, e := range slices.Backward(recent) {
		if m.filter.match(e) {
			out = append(out, e)
		}
	}
	return out
}

func (m Model) renderPanes() string {
	topHeight, bottomHeight := m.paneHeights()
	outputWidth, groupsWidth := m.bottomWidths()

	activityTitle := fmt.Sprintf("Activity · %s", titleCase(m.filter.String()))
	activity := m.renderTitledBox(activityTitle,
		m.renderActivityRows(m.width-2, topHeight-2),
		m.width, topHeight, m.focus == PaneActivity)

	outputTitle := "signal-cli output"
	if !m.followOutput {
		outputTitle += " · paused"
	}
	output := m.renderTitledBox(outputTitle, m.output.View(), outputWidth, bottomHeight, m.focus == PaneOutput)

	groupsTitle := fmt.Sprintf("Groups (%d)", len(m.snapshot.Groups))
	groups := m.renderTitledBox(groupsTitle, m.groups.View(), groupsWidth, bottomHeight, m.focus == PaneGroups)

	return lipgloss.JoinVertical(lipgloss.Left,
		activity,
		lipgloss.JoinHorizontal(lipgloss.Top, output, groups),
	)
}

// renderActivityRows renders at most height rows, scrolled so the selected
// row stays visible.
func (m Model) renderActivityRows(width, height int) string {
	styles := m.theme.Styles()
	events := m.visibleEvents()
	if len(events) == 0 {
		msg := "No activity yet"
		if m.filter != filterAll {
			msg = "No " + m.filter.String() + " activity"
		}
		return styles.MutedText.Render(msg)
	}

	start := 0
	if height > 0 && m.selected >= height {
		start = m.selected - height + 1
	}
	end := len(events)
	if height > 0 {
		end = min(end, start+height)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.formatEventRow(events[i], width, i == m.selected && m.focus == PaneActivity))
	}
	return strings.Join(lines, "\n")
}

// formatEventRow renders "15:04:05  kind  peer  text".
func (m Model) formatEventRow(e state.Event, width int, selected bool) string {
	styles := m.theme.Styles()
	timeStyle, kindStyle, peerStyle, textStyle := styles.MutedText, styles.KindStyle(e.Kind), styles.AccentText, styles.Text
	if e.Failed() {
		textStyle = styles.DangerText
	}
	if selected {
		sel := lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.SelectionText)).
			Background(lipgloss.Color(m.theme.SelectionBg))
		timeStyle, kindStyle, peerStyle, textStyle = sel, sel.Bold(true), sel, sel
	}

	clock := e.Time.Local().Format("15:04:05")
	kind := padRight(eventLabel(e.Kind), 12)
	peer := padRight(truncate(e.Peer, 20), 20)

	body := e.Text
	if e.Error != "" {
		body = e.Error
	}
	body = strings.ReplaceAll(body, "\n", " ⏎ ")
	bodyWidth := max(width-len(clock)-12-20-6, 8)

	sep := "  "
	if selected {
		sep = textStyle.Render(sep)
	}
	row := timeStyle.Render(clock) + sep +
		kindStyle.Render(kind) + sep +
		peerStyle.Render(peer) + sep +
		textStyle.Render(truncate(body, bodyWidth))
	if selected {
		return lipgloss.NewStyle().Background(lipgloss.Color(m.theme.SelectionBg)).Width(width).Render(row)
	}
	return row
}

func eventLabel(kind string) string {
	switch kind {
	case state.EventReceived:
		return "← received"
	case state.EventReplied:
		return "→ replied"
	case state.EventReplyFailed:
		return "✗ reply"
	case state.EventSent:
		return "→ sent"
	case state.EventSendFailed:
		return "✗ send"
	case state.EventDaemon:
		return "● daemon"
	default:
		return kind
	}
}

func (m Model) renderOutputContent() string {
	lines := m.snapshot.Status.DaemonOutput
	if len(lines) == 0 {
		return m.theme.Styles().MutedText.Render("No output captured")
	}
	width := m.output.Width
	out := make([]string, len(lines))
	for i, line := range lines {
		if width > 0 {
			line = truncate(line, width)
		}
		out[i] = line
	}
	return strings.Join(out, "\n")
}

func (m Model) renderGroupsContent() string {
	styles := m.theme.Styles()
	if len(m.snapshot.Groups) == 0 {
		return styles.MutedText.Render("No groups")
	}
	names := make([]string, 0, len(m.snapshot.Groups))
	for name := range m.snapshot.Groups {
		names = append(names, name)
	}
	slices.Sort(names)

	width := m.groups.Width
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(styles.Text.Bold(true).Render(truncate(name, max(width, 8))))
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render(truncateMiddle(m.snapshot.Groups[name], max(width-2, 8))))
	}
	return b.String()
}

// renderTitledBox draws a bordered pane with the title centred in the top
// border.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	if width < 4 || height < 2 {
		return ""
	}
	borderColor, bgColor := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColor, bgColor = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := lipgloss.Color(bgColor)
	border := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor)).Background(bg)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text)).Background(bg)

	inner := width - 2
	title = truncate(title, max(inner-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((inner-titleLen-2)/2, 0)
	rightPad := max(inner-titleLen-2-leftPad, 0)

	top := border.Render("┌"+strings.Repeat("─", leftPad)) +
		titleStyle.Render(" "+title+" ") +
		border.Render(strings.Repeat("─", rightPad)+"┐")
	bottom := border.Render("└" + strings.Repeat("─", inner) + "┘")

	body := lipgloss.NewStyle().Width(inner).MaxWidth(inner).Background(bg)
	lines := strings.Split(content, "\n")
	rows := make([]string, 0, height-2)
	for i := 0; i < height-2; i++ {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		rows = append(rows, border.Render("│")+body.Render(line)+border.Render("│"))
	}

	return top + "\n" + strings.Join(rows, "\n") + "\n" + bottom
}
