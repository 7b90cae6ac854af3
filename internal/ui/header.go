package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: logo, job phase, credits.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := "  "

	parts := []string{
		bg.Render("shooter", styles.Logo),
		styles.StatusStyle(m.job.Phase).Render(strings.ToUpper(m.job.Phase.String())),
	}

	if m.job.Phase.Busy() && m.job.Handle.TaskID != "" {
		parts = append(parts,
			bg.Render("Task", styles.MutedText)+bg.Space()+
				bg.Render(truncateMiddle(m.job.Handle.TaskID, 18), styles.Text))
	}

	parts = append(parts, m.renderCredits(styles, bg))

	if n := len(m.view.Entries); n > 0 {
		parts = append(parts,
			bg.Render("Gallery", styles.MutedText)+bg.Space()+
				bg.Render(m.printer.Sprintf("%d", n), styles.Text))
	}

	if !m.lastUpdated.IsZero() && m.width >= 100 {
		parts = append(parts, bg.Render(m.lastUpdated.Format("15:04:05"), styles.FaintText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, sep))
}

// renderCredits shows the server-reported balance, or a dash until the server
// has reported one.
func (m Model) renderCredits(styles Styles, bg BgStyle) string {
	label := bg.Render("Credits", styles.MutedText) + bg.Space()
	if !m.view.HasCredits {
		return label + bg.Render("–", styles.FaintText)
	}
	style := styles.SuccessText
	if m.view.Credits < m.currentCount() {
		style = styles.WarningText
	}
	return label + bg.Render(m.printer.Sprintf("%d", m.view.Credits), style)
}

// renderFooter renders the short help line and any transient notice.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, styles.AccentText.Render(h.Key)+" "+styles.MutedText.Render(h.Desc))
	}
	line := strings.Join(parts, styles.FaintText.Render("  ·  "))
	if m.notice != "" {
		line = styles.WarningText.Render(truncate(m.notice, maxInt(m.width-4, 10))) + "\n" + line
	}
	return styles.Footer.Width(m.width).Render(line)
}
