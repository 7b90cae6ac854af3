package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shooter/internal/present"
)

// Modal is an overlay that owns the keyboard while open. Update reports
// closed=true when the overlay should go away.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (next Modal, cmd tea.Cmd, closed bool)
	View(theme Theme, width, height int) string
}

// previewModal is the terminal stand-in for the web lightbox: it shows the
// entry's preview and download references and can trigger a download.
type previewModal struct {
	entry    present.Entry
	position int
	total    int
	download func([]present.Entry) tea.Cmd
}

func newPreviewModal(entry present.Entry, position, total int, download func([]present.Entry) tea.Cmd) Modal {
	return previewModal{entry: entry, position: position, total: total, download: download}
}

func (p previewModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Download):
		var cmd tea.Cmd
		if p.download != nil {
			cmd = p.download([]present.Entry{p.entry})
		}
		return p, cmd, true
	case key.Matches(keyMsg, keys.Escape), key.Matches(keyMsg, keys.Preview), keyMsg.String() == "q":
		return p, nil, true
	}
	return p, nil, false
}

func (p previewModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	inner := minInt(maxInt(width-10, 30), 100)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Image preview"))
	b.WriteString(styles.FaintText.Render(fmt.Sprintf("  %d/%d", p.position, p.total)))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", inner)))
	b.WriteString("\n\n")

	rows := []struct{ label, value string }{
		{"Task", p.entry.TaskID},
		{"Added", p.entry.AddedAt.Local().Format("2006-01-02 15:04:05")},
		{"Preview", p.entry.PreviewURL},
		{"Download", p.entry.DownloadURL},
	}
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Warning)).Width(10)
	for _, row := range rows {
		b.WriteString(labelStyle.Render(row.label))
		b.WriteString(styles.Text.Render(truncateMiddle(row.value, inner-10)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("d download  ·  esc close"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(inner + 4)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
