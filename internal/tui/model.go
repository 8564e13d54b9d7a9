package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"pacdeck/internal/progress"
	"pacdeck/pkg/pacman"
)

// maxLines bounds the scrollback kept in memory.
const maxLines = 1000

type (
	eventMsg        progress.Event
	eventsClosedMsg struct{}
	resultMsg       pacman.Result
)

// Model is the bubbletea model of one running operation.
type Model struct {
	title   string
	events  <-chan progress.Event
	results <-chan pacman.Result
	cancel  func()

	keys    KeyMap
	styles  *Styles
	spinner spinner.Model
	view    viewport.Model
	help    help.Model

	lines     []string
	step      string
	detail    string
	follow    bool
	ready     bool
	canceling bool
	done      bool
	result    pacman.Result
}

// NewModel creates the view. cancel is called when the user asks to stop.
func NewModel(title string, events <-chan progress.Event, results <-chan pacman.Result, cancel func()) *Model {
	styles := DefaultStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return &Model{
		title:   title,
		events:  events,
		results: results,
		cancel:  cancel,
		keys:    DefaultKeyMap(),
		styles:  styles,
		spinner: sp,
		view:    viewport.New(80, 15),
		help:    help.New(),
		follow:  true,
	}
}

// Result returns the operation result once Done reports true.
func (m *Model) Result() pacman.Result {
	return m.result
}

// Done reports whether the operation has finished.
func (m *Model) Done() bool {
	return m.done
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events), waitForResult(m.results))
}

func waitForEvent(events <-chan progress.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func waitForResult(results <-chan pacman.Result) tea.Cmd {
	return func() tea.Msg {
		return resultMsg(<-results)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view.Width = msg.Width - 4
		m.view.Height = max(msg.Height-8, 3)
		m.help.Width = msg.Width
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.addEvent(progress.Event(msg))
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, nil

	case resultMsg:
		m.done = true
		m.result = pacman.Result(msg)
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.done {
			return m, tea.Quit
		}
		if !m.canceling && m.cancel != nil {
			m.canceling = true
			m.cancel()
		}
	case key.Matches(msg, m.keys.Quit):
		if m.done {
			return m, tea.Quit
		}
	case key.Matches(msg, m.keys.Up):
		m.follow = false
		m.view.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.view.LineDown(1)
	case key.Matches(msg, m.keys.Follow):
		m.follow = true
		m.view.GotoBottom()
	}
	return m, nil
}

func (m *Model) addEvent(ev progress.Event) {
	var line string
	switch ev.Step {
	case progress.StepStdout:
		line = m.styles.Stdout.Render(ev.Detail)
	case progress.StepStderr:
		line = m.styles.Stderr.Render(ev.Detail)
	default:
		m.step, m.detail = ev.Step, ev.Detail
		line = m.styles.Step.Render("["+ev.Step+"]") + " " + m.styles.Detail.Render(ev.Detail)
	}

	m.lines = append(m.lines, line)
	if len(m.lines) > maxLines {
		m.lines = m.lines[len(m.lines)-maxLines:]
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.view.SetContent(strings.Join(m.lines, "\n"))
	if m.follow {
		m.view.GotoBottom()
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("pacdeck · " + m.title))
	b.WriteString("\n\n")

	switch {
	case m.done && m.result.Success:
		b.WriteString(m.styles.Success.Render("✓ " + m.result.Message))
	case m.done:
		b.WriteString(m.styles.Error.Render("✗ " + firstLine(m.result.Message)))
	case m.canceling:
		b.WriteString(m.spinner.View() + " " + m.styles.Warning.Render("Canceling..."))
	case m.step != "":
		b.WriteString(fmt.Sprintf("%s %s %s", m.spinner.View(), m.styles.Step.Render(m.step), m.styles.Muted.Render(m.detail)))
	default:
		b.WriteString(m.spinner.View() + " " + m.styles.Muted.Render("Waiting..."))
	}
	b.WriteString("\n")

	b.WriteString(m.styles.Border.Render(m.view.View()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
