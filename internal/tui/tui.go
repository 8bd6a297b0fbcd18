// Package tui provides the Bubble Tea interactive chat interface.
package tui

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mfern/kestrel/internal/approval"
	"github.com/mfern/kestrel/internal/auth"
	"github.com/mfern/kestrel/internal/backend"
	"github.com/mfern/kestrel/internal/complete"
	"github.com/mfern/kestrel/internal/domain"
	"github.com/mfern/kestrel/internal/logging"
	"github.com/mfern/kestrel/internal/session"
	"github.com/mfern/kestrel/internal/skills"
	"github.com/mfern/kestrel/internal/stream"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	thinkingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	toolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	toolOutputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	inputBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)

	approvalBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("214")).
				Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("205"))

	pinStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

const renderInterval = 33 * time.Millisecond

type mode int

const (
	modeChat mode = iota
	modeSessions
)

type (
	chatEventMsg struct {
		event domain.ChatEvent
		ok    bool
	}
	renderTickMsg struct{}
)

// Options wires the Model's collaborators.
type Options struct {
	Backend      backend.Backend
	Auth         *auth.Store
	Settings     domain.Settings
	SettingsPath string
	Policy       *approval.Policy
	Version      string
}

// Model is the root Bubble Tea model. Mutable collaborators are held by
// pointer so they survive the value copies Bubble Tea makes on every
// update.
type Model struct {
	controller  *session.Controller
	assembler   *stream.Assembler
	coordinator *approval.Coordinator
	engine      *complete.Engine
	backend     backend.Backend
	auth        *auth.Store
	log         *logging.Logger

	sink    *viewSink
	sched   *tickScheduler
	history *strings.Builder

	events    <-chan domain.ChatEvent
	lastUsage *domain.Usage
	version   string

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	mode          mode
	sessionCursor int
	notice        string
	width         int
	height        int
	ready         bool
	quitting      bool
}

// NewModel builds the TUI around an already-constructed backend.
func NewModel(opts Options) Model {
	ctrl := session.NewController(opts.Backend, opts.Auth, opts.Settings, opts.SettingsPath)

	sink := newViewSink()
	sched := &tickScheduler{}
	asm := stream.NewAssembler(sink, sched, opts.Backend)

	eng := complete.NewEngine(complete.DefaultCommands(), opts.Backend)
	eng.SetWorkDir(ctrl.WorkDir())
	home, _ := os.UserHomeDir()
	found, _ := skills.Discover(home, ctrl.WorkDir(), opts.Settings.SkillsDir)
	eng.SetSkills(found)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textarea.New()
	ti.Placeholder = "Message kestrel... (/ for commands, @ for files, $ for skills)"
	ti.CharLimit = 4000
	ti.SetWidth(80)
	ti.SetHeight(3)
	ti.ShowLineNumbers = false
	ti.Focus()

	return Model{
		controller:  ctrl,
		assembler:   asm,
		coordinator: approval.NewCoordinator(opts.Backend, opts.Policy),
		engine:      eng,
		backend:     opts.Backend,
		auth:        opts.Auth,
		log:         logging.New("tui"),
		sink:        sink,
		sched:       sched,
		history:     &strings.Builder{},
		version:     opts.Version,
		input:       ti,
		spinner:     s,
	}
}

// Run starts the TUI event loop and blocks until the user quits.
func Run(opts Options) error {
	m := NewModel(opts)
	if err := m.controller.LoadSessions(context.Background()); err != nil {
		m.log.Warn("load_sessions_failed", nil, err)
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) streaming() bool {
	return m.controller.State() == session.ActiveStreaming
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case chatEventMsg:
		return m.handleChatEventMsg(msg)

	case renderTickMsg:
		m.sched.flush()
		m.refreshViewport()
		return m, m.renderCmd()

	case spinner.TickMsg:
		if !m.streaming() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.mode == modeChat {
		return m.updateInput(msg)
	}
	return m, nil
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := msg.Height - chromeHeight
	if vpHeight < 5 {
		vpHeight = 5
	}
	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(msg.Width - 6)
	m.refreshViewport()
	return m, nil
}

// updateInput forwards a message to the textarea and re-derives the
// autocomplete session from the resulting text and cursor.
func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.streaming() || m.coordinator.Pending() != nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.engine.Update(context.Background(), m.input.Value(), m.cursorOffset())
	return m, cmd
}

// cursorOffset flattens the textarea's row/column cursor into a byte
// offset into Value, the coordinate space the autocomplete engine uses.
func (m Model) cursorOffset() int {
	value := m.input.Value()
	rows := strings.Split(value, "\n")
	row := m.input.Line()
	if row >= len(rows) {
		return len(value)
	}
	offset := 0
	for i := 0; i < row; i++ {
		offset += len(rows[i]) + 1
	}
	info := m.input.LineInfo()
	col := info.StartColumn + info.ColumnOffset
	runes := []rune(rows[row])
	if col > len(runes) {
		col = len(runes)
	}
	return offset + len(string(runes[:col]))
}

// setCursorOffset places the cursor at a byte offset after SetValue,
// which leaves it at the end of the text. The textarea only exposes
// column positioning on the current row, so offsets on an earlier row
// stay at the end.
func (m *Model) setCursorOffset(offset int) {
	value := m.input.Value()
	if offset > len(value) {
		offset = len(value)
	}
	prefix := value[:offset]
	if strings.Count(prefix, "\n") != strings.Count(value, "\n") {
		m.input.CursorEnd()
		return
	}
	tail := prefix[strings.LastIndexByte(prefix, '\n')+1:]
	m.input.SetCursor(len([]rune(tail)))
}

// renderCmd arms the coalescing render timer when the assembler has
// work queued. At most one timer is in flight at a time.
func (m *Model) renderCmd() tea.Cmd {
	if len(m.sched.pending) == 0 || m.sched.armed {
		return nil
	}
	m.sched.armed = true
	return tea.Tick(renderInterval, func(time.Time) tea.Msg { return renderTickMsg{} })
}
