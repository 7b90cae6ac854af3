package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shooter/internal/present"
)

// galleryHeight is the number of rows left for gallery entries.
func (m Model) galleryHeight() int {
	// header 1, form 6, status 1, footer 1-2, gallery border 2
	used := 11
	if m.notice != "" {
		used++
	}
	if m.showActivity {
		used += m.activity.Height + 2
	}
	return maxInt(m.height-used, 3)
}

// renderGallery lists entries newest first, keeping the selection visible.
func (m Model) renderGallery(height int) string {
	styles := m.theme.Styles()
	width := maxInt(m.width-2, 20)

	border := m.theme.Border
	if m.focus == focusGallery {
		border = m.theme.BorderFocus
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Width(width).
		Height(height)

	entries := m.view.Entries
	if len(entries) == 0 {
		return box.Render(styles.FaintText.Render(" No images yet. Generated images appear here, newest first."))
	}

	start := 0
	if m.selected >= height {
		start = m.selected - height + 1
	}
	end := minInt(start+height, len(entries))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderGalleryRow(i, entries[i], width-2))
	}
	return box.Render(strings.Join(lines, "\n"))
}

func (m Model) renderGalleryRow(i int, e present.Entry, width int) string {
	styles := m.theme.Styles()
	ts := e.AddedAt.Local().Format("15:04:05")
	task := truncateMiddle(e.TaskID, 12)
	prefix := fmt.Sprintf(" %3d  %s  %-12s  ", i+1, ts, task)
	name := truncateMiddle(e.PreviewURL, maxInt(width-len([]rune(prefix)), 10))
	row := padRight(prefix+name, width)
	if i == m.selected && m.focus == focusGallery {
		return styles.Selected.Render(row)
	}
	if i == m.selected {
		return styles.AccentText.Render(row)
	}
	return styles.Text.Render(row)
}

func (m *Model) clampSelection() {
	n := len(m.view.Entries)
	switch {
	case n == 0:
		m.selected = 0
	case m.selected >= n:
		m.selected = n - 1
	case m.selected < 0:
		m.selected = 0
	}
}

func (m Model) selectedEntry() (present.Entry, bool) {
	if m.selected < 0 || m.selected >= len(m.view.Entries) {
		return present.Entry{}, false
	}
	return m.view.Entries[m.selected], true
}

// handleGalleryKey processes keyboard input while the gallery has focus.
func (m Model) handleGalleryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.view.Entries)
	if n == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selected < n-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = n - 1
	case key.Matches(msg, m.keys.Preview):
		if entry, ok := m.selectedEntry(); ok {
			m.modal = newPreviewModal(entry, m.selected+1, n, m.downloadCmd)
		}
	case key.Matches(msg, m.keys.Download):
		if entry, ok := m.selectedEntry(); ok {
			return m, m.downloadCmd([]present.Entry{entry})
		}
	case key.Matches(msg, m.keys.SaveAll):
		return m, m.downloadCmd(m.view.Entries)
	}
	return m, nil
}

// downloadCmd saves entries in a command goroutine.
func (m Model) downloadCmd(entries []present.Entry) tea.Cmd {
	if m.downloader == nil || len(entries) == 0 {
		return nil
	}
	d := m.downloader
	ctx := m.ctx
	batch := append([]present.Entry(nil), entries...)
	return func() tea.Msg {
		paths, err := d.Entries(ctx, batch)
		return downloadDoneMsg{paths: paths, dir: d.Dir(), err: err}
	}
}
