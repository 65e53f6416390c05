package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status line: daemon state, account and counters,
// or the connection problem while the API is unreachable.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	sep := styles.Text.Render("  ")

	parts := []string{styles.Logo.Render("courier")}

	switch {
	case !m.snapshot.HasStatus && m.snapshot.LastError == nil:
		parts = append(parts, styles.MutedText.Render("Connecting to "+m.address+"..."))
	case m.snapshot.LastError != nil && (m.snapshot.IsOffline() || !m.snapshot.HasStatus):
		last := "never"
		if !m.lastUpdated.IsZero() {
			last = m.lastUpdated.Format("15:04:05")
		}
		parts = append(parts,
			styles.DangerText.Render("API "+classifyConnectionError(m.snapshot.LastError)),
			styles.WarningText.Bold(true).Render("Retrying..."),
			styles.MutedText.Render(last),
		)
	default:
		parts = append(parts, m.statusParts(styles)...)
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		MaxWidth(m.width).
		Render(strings.Join(parts, sep))
}

func (m Model) statusParts(styles Styles) []string {
	st := m.snapshot.Status
	var parts []string

	if st.Running {
		uptime := ""
		if !st.StartedAt.IsZero() {
			uptime = " " + formatUptime(time.Since(st.StartedAt))
		}
		parts = append(parts, styles.SuccessText.Render(fmt.Sprintf("● RUNNING pid %d%s", st.PID, uptime)))
	} else {
		parts = append(parts, styles.DangerText.Render("● STOPPED"))
	}
	if st.Account != "" {
		parts = append(parts, styles.AccentText.Render(st.Account))
	}

	c := st.Counters
	counter := func(label string, n int, style lipgloss.Style) string {
		return styles.MutedText.Render(label+" ") + style.Render(fmt.Sprint(n))
	}
	parts = append(parts,
		counter("in", c.Received, styles.Text),
		counter("replied", c.Replied, styles.Text),
		counter("sent", c.Sent, styles.Text),
	)
	if failures := c.ReplyFailures + c.SendFailures; failures > 0 {
		parts = append(parts, counter("failed", failures, styles.DangerText))
	}
	if st.LastError != "" {
		parts = append(parts, styles.WarningText.Render(truncate(st.LastError, 40)))
	}
	return parts
}

// classifyConnectionError turns a transport error into a short label.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders key hints for the focused pane.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)

	type cmd struct{ key, desc string }
	commands := []cmd{{"tab", "Pane"}}
	switch m.focus {
	case PaneActivity:
		commands = append(commands, cmd{"j/k", "Navigate"}, cmd{"f", titleCase(m.filter.String())})
	case PaneOutput:
		follow := "Pause"
		if !m.followOutput {
			follow = "Follow"
		}
		commands = append(commands, cmd{"j/k", "Scroll"}, cmd{"space", follow})
	case PaneGroups:
		commands = append(commands, cmd{"j/k", "Scroll"})
	}
	commands = append(commands, cmd{"?", "Help"}, cmd{"q", "Quit"})

	colon := styles.Text.Render(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments, styles.AccentText.Render(c.key)+colon+styles.MutedText.Render(c.desc))
	}
	segments = append(segments, styles.AccentText.Render("T")+colon+styles.FaintText.Render(m.theme.Name))

	return styles.Header.Width(m.width).MaxWidth(m.width).Render(strings.Join(segments, styles.Text.Render("  ")))
}
