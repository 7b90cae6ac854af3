package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shooter/internal/shooter"
	"github.com/five82/shooter/internal/state"
)

const formLabelWidth = 8

// renderForm renders the submission form. Fields are dimmed while a job runs.
func (m Model) renderForm() string {
	styles := m.theme.Styles()
	ready := m.UiState().Ready()

	rows := []string{
		m.formRow("Image", m.imageInput.View(), m.focus == focusImage),
		m.formRow("Prompt", m.promptInput.View(), m.focus == focusPrompt),
		m.formRow("Count", m.renderChoices(tierLabels(m.tiers), m.countIdx, m.focus == focusCount), m.focus == focusCount) +
			"  " + styles.FaintText.Render(m.costHint()),
		m.formRow("Mode", m.renderChoices(modeLabels(m.modes), m.modeIdx, m.focus == focusMode), m.focus == focusMode),
	}

	border := m.theme.Border
	if ready && m.focus != focusGallery {
		border = m.theme.BorderFocus
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1).
		Width(maxInt(m.width-2, 20))
	if !ready {
		box = box.Foreground(lipgloss.Color(m.theme.Muted))
	}
	return box.Render(strings.Join(rows, "\n"))
}

func (m Model) formRow(label, value string, focused bool) string {
	styles := m.theme.Styles()
	labelStyle := styles.MutedText.Width(formLabelWidth)
	if focused {
		labelStyle = styles.AccentText.Bold(true).Width(formLabelWidth)
	}
	return labelStyle.Render(label) + value
}

// renderChoices renders a horizontal selector such as "‹ 1  [2]  4 ›".
func (m Model) renderChoices(labels []string, selected int, focused bool) string {
	styles := m.theme.Styles()
	parts := make([]string, len(labels))
	for i, label := range labels {
		switch {
		case i == selected && focused:
			parts[i] = styles.Selected.Render(" " + label + " ")
		case i == selected:
			parts[i] = styles.AccentText.Render("[" + label + "]")
		default:
			parts[i] = styles.MutedText.Render(" " + label + " ")
		}
	}
	out := strings.Join(parts, " ")
	if focused {
		out = styles.FaintText.Render("‹ ") + out + styles.FaintText.Render(" ›")
	}
	return out
}

// costHint mirrors the web form's running cost label.
func (m Model) costHint() string {
	return m.printer.Sprintf("Cost: %d credits", m.currentCount())
}

// renderStatusLine shows progress, status text or the error text.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	switch {
	case m.view.Error != "":
		return " " + styles.DangerText.Render("✗ "+m.view.Error)
	case m.view.Progress || m.UiState().InProgress():
		text := m.view.Status
		if text == "" {
			text = "Working..."
		}
		return " " + styles.InfoText.Render(m.spinner.View()+" "+text) + m.renderSkeleton()
	case m.view.Status != "":
		return " " + styles.SuccessText.Render("✓ "+m.view.Status)
	default:
		return " " + styles.FaintText.Render(readyHint(m.UiState()))
	}
}

// renderSkeleton draws one placeholder per requested image while a job runs.
func (m Model) renderSkeleton() string {
	if m.job.Phase != state.PhasePolling {
		return ""
	}
	styles := m.theme.Styles()
	return "  " + styles.FaintText.Render(strings.TrimSpace(strings.Repeat("▒▒ ", m.currentCount())))
}

func readyHint(u state.UiState) string {
	if u == state.UiAwaitingUpload {
		return "Choose an image file to get started"
	}
	return "Ready"
}

func tierLabels(tiers []int) []string {
	out := make([]string, len(tiers))
	for i, t := range tiers {
		out[i] = fmt.Sprintf("%d", t)
	}
	return out
}

func modeLabels(modes []shooter.Mode) []string {
	out := make([]string, len(modes))
	for i, mode := range modes {
		out[i] = string(mode)
	}
	return out
}
