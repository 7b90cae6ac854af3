package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/five82/shooter/internal/download"
	"github.com/five82/shooter/internal/logtail"
	"github.com/five82/shooter/internal/prefs"
	"github.com/five82/shooter/internal/present"
	"github.com/five82/shooter/internal/shooter"
	"github.com/five82/shooter/internal/state"
)

// focusArea is the part of the screen receiving keys.
type focusArea int

const (
	focusImage focusArea = iota
	focusPrompt
	focusCount
	focusMode
	focusGallery
	numFocusAreas
)

const activityLines = 200

// GenerateFunc runs one submission to completion. Its progress reaches the UI
// through the Board and Machine, not through the return value.
type GenerateFunc func(ctx context.Context, req shooter.GenerationRequest) error

// DismissFunc clears a shown error and returns the form to idle.
type DismissFunc func() bool

// RefuseFunc shows a problem found before anything was sent, the same way a
// rejected submission is shown.
type RefuseFunc func(message string) bool

// Options configures the UI.
type Options struct {
	Context      context.Context
	Generate     GenerateFunc
	Dismiss      DismissFunc
	Refuse       RefuseFunc
	Board        *present.Board
	Machine      *state.Machine
	Downloader   *download.Downloader
	Tiers        []int
	Modes        []shooter.Mode
	DefaultCount int
	DefaultMode  shooter.Mode
	LogPath      string
	RefreshTick  time.Duration
	ThemeName    string
	PrefsPath    string
	Language     language.Tag
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	generate    GenerateFunc
	dismiss     DismissFunc
	refuse      RefuseFunc
	board       *present.Board
	machine     *state.Machine
	downloader  *download.Downloader
	logPath     string
	prefsPath   string
	refreshTick time.Duration
	printer     *message.Printer

	// UI state
	keys   keyMap
	theme  Theme
	width  int
	height int
	ready  bool
	focus  focusArea

	// Form
	imageInput  textinput.Model
	promptInput textinput.Model
	tiers       []int
	countIdx    int
	modes       []shooter.Mode
	modeIdx     int

	// Data state
	view        present.BoardSnapshot
	job         state.Snapshot
	lastUpdated time.Time
	spinner     spinner.Model
	notice      string
	// inFlight counts submissions whose generateDoneMsg has not arrived.
	inFlight int

	// Gallery
	selected int
	modal    Modal

	// Activity pane
	showActivity bool
	activity     viewport.Model
	entries      []logtail.Entry

	// Help overlay
	showHelp bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.RefreshTick
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	board := opts.Board
	if board == nil {
		board = &present.Board{}
	}
	machine := opts.Machine
	if machine == nil {
		machine = state.NewMachine()
	}

	tiers := opts.Tiers
	if len(tiers) == 0 {
		tiers = shooter.DefaultTiers
	}
	modes := opts.Modes
	if len(modes) == 0 {
		modes = shooter.DefaultModes
	}

	lang := opts.Language
	if lang == language.Und {
		lang = language.English
	}

	image := textinput.New()
	image.Placeholder = "~/Pictures/product.png"
	image.Prompt = ""
	image.CharLimit = 4096
	image.Focus()

	prompt := textinput.New()
	prompt.Placeholder = "optional instructions for the generator"
	prompt.Prompt = ""
	prompt.CharLimit = 2000

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot

	return Model{
		ctx:         ctx,
		generate:    opts.Generate,
		dismiss:     opts.Dismiss,
		refuse:      opts.Refuse,
		board:       board,
		machine:     machine,
		downloader:  opts.Downloader,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		refreshTick: tick,
		printer:     message.NewPrinter(lang),
		keys:        DefaultKeyMap(),
		theme:       GetTheme(themeName),
		focus:       focusImage,
		imageInput:  image,
		promptInput: prompt,
		tiers:       tiers,
		countIdx:    indexOf(tiers, opts.DefaultCount),
		modes:       modes,
		modeIdx:     indexOf(modes, opts.DefaultMode),
		spinner:     spin,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		textinput.Blink,
		m.spinner.Tick,
		tickCmd(m.refreshTick),
		fetchSnapshotCmd(m.board, m.machine),
	)
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
			m.initActivityViewport()
		}
		m.ready = true
		m.resizeActivityViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.view = msg.board
		m.job = msg.job
		m.lastUpdated = time.Now()
		m.clampSelection()
		return m, nil

	case activityMsg:
		m.handleActivity(msg)
		return m, nil

	case generateDoneMsg:
		if m.inFlight > 0 {
			m.inFlight--
		}
		if msg.err != nil && m.view.Error == "" {
			m.notice = msg.err.Error()
		}
		return m, fetchSnapshotCmd(m.board, m.machine)

	case downloadDoneMsg:
		if msg.err != nil {
			m.notice = "Download failed: " + msg.err.Error()
		} else {
			m.notice = fmt.Sprintf("Saved %d file(s) to %s", len(msg.paths), truncateMiddle(msg.dir, 40))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocusedInput(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// UiState projects the job phase onto the form. The phase is read from the
// machine, not the last snapshot, so enablement never lags a submission.
func (m Model) UiState() state.UiState {
	return state.Project(m.machine.Snapshot().Phase, strings.TrimSpace(m.imageInput.Value()) != "")
}

// canSubmit reports whether enter may start a job.
func (m Model) canSubmit() bool {
	return m.inFlight == 0 && m.UiState().Ready()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		next, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
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
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.setFocus((m.focus + 1) % numFocusAreas)
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab):
		m.setFocus((m.focus + numFocusAreas - 1) % numFocusAreas)
		return m, nil

	case key.Matches(msg, m.keys.Activity):
		m.showActivity = !m.showActivity
		m.resizeActivityViewport()
		if m.showActivity {
			return m, readActivityCmd(m.logPath)
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit) && m.focus != focusGallery:
		if !m.canSubmit() {
			m.notice = "A job is already running; press ctrl+r to replace it"
			return m, nil
		}
		return m.submit()

	case key.Matches(msg, m.keys.Restart):
		return m.submit()

	case key.Matches(msg, m.keys.Escape):
		m.notice = ""
		if m.focus == focusGallery {
			m.setFocus(focusImage)
		}
		if m.job.Phase == state.PhaseErrored && m.dismiss != nil {
			dismiss := m.dismiss
			return m, tea.Sequence(
				func() tea.Msg { dismiss(); return nil },
				fetchSnapshotCmd(m.board, m.machine),
			)
		}
		return m, nil
	}

	if m.showActivity && !m.editingText() {
		switch {
		case key.Matches(msg, m.keys.PageUp):
			m.activity.PageUp()
			return m, nil
		case key.Matches(msg, m.keys.PageDown):
			m.activity.PageDown()
			return m, nil
		case key.Matches(msg, m.keys.HalfPageUp):
			m.activity.HalfPageUp()
			return m, nil
		case key.Matches(msg, m.keys.HalfPageDown):
			m.activity.HalfPageDown()
			return m, nil
		}
	}

	switch m.focus {
	case focusCount:
		if idx, ok := m.stepOption(msg, m.countIdx, len(m.tiers)); ok {
			m.countIdx = idx
			m.savePrefs()
		}
		return m, nil
	case focusMode:
		if idx, ok := m.stepOption(msg, m.modeIdx, len(m.modes)); ok {
			m.modeIdx = idx
			m.savePrefs()
		}
		return m, nil
	case focusGallery:
		return m.handleGalleryKey(msg)
	}
	return m.updateFocusedInput(msg)
}

// stepOption moves a selector left or right, wrapping around.
func (m Model) stepOption(msg tea.KeyMsg, idx, n int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	switch {
	case key.Matches(msg, m.keys.PrevOpt):
		return (idx + n - 1) % n, true
	case key.Matches(msg, m.keys.NextOpt):
		return (idx + 1) % n, true
	default:
		return idx, false
	}
}

// editingText reports whether a text input owns the keyboard.
func (m Model) editingText() bool {
	return m.focus == focusImage || m.focus == focusPrompt
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	m.imageInput.Blur()
	m.promptInput.Blur()
	switch f {
	case focusImage:
		m.imageInput.Focus()
	case focusPrompt:
		m.promptInput.Focus()
	}
}

func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusImage:
		m.imageInput, cmd = m.imageInput.Update(msg)
	case focusPrompt:
		m.promptInput, cmd = m.promptInput.Update(msg)
	}
	return m, cmd
}

// submit builds a request from the form and hands it to the generate function
// in a command goroutine.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.generate == nil {
		m.notice = "Generation is not available"
		return m, nil
	}
	m.notice = ""
	req := shooter.GenerationRequest{
		Count:      m.currentCount(),
		Mode:       m.currentMode(),
		UserPrompt: strings.TrimSpace(m.promptInput.Value()),
	}
	path := strings.TrimSpace(m.imageInput.Value())
	ctx := m.ctx
	generate := m.generate
	refuse := m.refuse
	m.inFlight++

	return m, tea.Batch(
		func() tea.Msg {
			if path != "" {
				resolved := expandHome(path)
				data, err := os.ReadFile(resolved)
				if err != nil {
					err = fmt.Errorf("read image: %w", err)
					if refuse != nil && refuse(err.Error()) {
						return generateDoneMsg{}
					}
					return generateDoneMsg{err: err}
				}
				req.Image = data
				req.Filename = filepath.Base(resolved)
			}
			return generateDoneMsg{err: generate(ctx, req)}
		},
		fetchSnapshotCmd(m.board, m.machine),
	)
}

func (m Model) currentCount() int {
	if len(m.tiers) == 0 {
		return 0
	}
	return m.tiers[m.countIdx]
}

func (m Model) currentMode() shooter.Mode {
	if len(m.modes) == 0 {
		return ""
	}
	return m.modes[m.modeIdx]
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{
		Theme: m.theme.Name,
		Count: m.currentCount(),
		Mode:  string(m.currentMode()),
	})
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{fetchSnapshotCmd(m.board, m.machine)}
	if m.showActivity {
		cmds = append(cmds, readActivityCmd(m.logPath))
	}
	cmds = append(cmds, tickCmd(m.refreshTick))
	return m, tea.Batch(cmds...)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderForm())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderGallery(m.galleryHeight()))
	if m.showActivity {
		b.WriteString("\n")
		b.WriteString(m.renderActivity())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	board present.BoardSnapshot
	job   state.Snapshot
}

type generateDoneMsg struct {
	err error
}

type downloadDoneMsg struct {
	paths []string
	dir   string
	err   error
}

type activityMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(board *present.Board, machine *state.Machine) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{board: board.Snapshot(), job: machine.Snapshot()}
	}
}

func readActivityCmd(path string) tea.Cmd {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	return func() tea.Msg {
		entries, err := logtail.ReadEntries(path, activityLines)
		return activityMsg{entries: entries, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}

func indexOf[T comparable](values []T, want T) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return 0
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
