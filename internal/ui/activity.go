package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shooter/internal/logtail"
)

const activityHeight = 8

func (m *Model) initActivityViewport() {
	m.activity = viewport.New(maxInt(m.width-4, 10), activityHeight)
}

func (m *Model) resizeActivityViewport() {
	m.activity.Width = maxInt(m.width-4, 10)
	m.activity.Height = activityHeight
	m.refreshActivityContent()
}

// handleActivity stores freshly read log entries, following the tail when the
// view was already at the bottom.
func (m *Model) handleActivity(msg activityMsg) {
	if msg.err != nil {
		m.entries = []logtail.Entry{{Level: "ERROR", Message: "read activity log: " + msg.err.Error()}}
	} else {
		m.entries = msg.entries
	}
	follow := m.activity.AtBottom() || m.activity.TotalLineCount() == 0
	m.refreshActivityContent()
	if follow {
		m.activity.GotoBottom()
	}
}

func (m *Model) refreshActivityContent() {
	if len(m.entries) == 0 {
		m.activity.SetContent(m.theme.Styles().FaintText.Render("No activity yet"))
		return
	}
	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		lines = append(lines, m.colorizeEntry(e))
	}
	m.activity.SetContent(strings.Join(lines, "\n"))
}

// colorizeEntry renders one record with the level colored by severity.
func (m Model) colorizeEntry(e logtail.Entry) string {
	styles := m.theme.Styles()
	width := maxInt(m.activity.Width, 10)
	if e.Level == "" {
		return styles.MutedText.Render(truncate(e.Message, width))
	}

	levelStyle := styles.InfoText
	switch e.Level {
	case "WARN":
		levelStyle = styles.WarningText
	case "ERROR", "FATAL", "PANIC":
		levelStyle = styles.DangerText
	case "DEBUG", "TRACE":
		levelStyle = styles.FaintText
	}

	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(styles.FaintText.Render(e.Time.Local().Format("15:04:05")))
		b.WriteString(" ")
	}
	b.WriteString(levelStyle.Render(padRight(e.Level, 5)))
	b.WriteString(" ")
	b.WriteString(styles.Text.Render(truncate(logtail.Body(e), width-15)))
	return b.String()
}

func (m Model) renderActivity() string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderMuted)).
		Padding(0, 1).
		Render(m.activity.View())
}
