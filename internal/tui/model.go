package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/civicdesk/tomas/internal/chatui"
	"github.com/civicdesk/tomas/internal/model/chat"
)

// Controller is the part of *chatui.Controller the screen drives.
type Controller interface {
	Greet(markdown string)
	Submit(ctx context.Context, text string)
	SpeakMessage(id string) bool
	StopSpeech()
}

const inputHeight = 3

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	ctx      context.Context
	ctrl     Controller
	botName  string
	greeting string

	entries  []chatui.Entry
	speaking map[string]bool
	selected string // id of the selected bot entry
	loading  bool

	width  int
	height int

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
}

// New returns the chat screen. greeting, when set, becomes the first bot
// message once the program starts.
func New(ctx context.Context, ctrl Controller, botName, greeting string) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your question… (Enter to send, Alt+Enter for newline)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = loadingStyle

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		botName:  botName,
		greeting: greeting,
		speaking: make(map[string]bool),
		viewport: viewport.New(80, 20),
		input:    ta,
		spinner:  sp,
	}
}

// Init greets the user.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.greeting != "" {
		greeting, ctrl := m.greeting, m.ctrl
		cmds = append(cmds, func() tea.Msg {
			ctrl.Greet(greeting)
			return nil
		})
	}
	return tea.Batch(cmds...)
}

// Update handles input and the messages sent by ProgramView.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(msg.Width, 10))
		m.viewport.Width = max(msg.Width, 10)
		m.viewport.Height = max(msg.Height-inputHeight-3, 3)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case appendMsg:
		follow := m.selected == "" || m.selected == m.lastBotID()
		m.entries = append(m.entries, msg.entry)
		if msg.entry.Speakable && follow {
			m.selected = msg.entry.ID
		}
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil

	case clearInputMsg:
		m.input.Reset()
		return m, nil

	case loadingMsg:
		m.loading = msg.loading
		if m.loading {
			m.input.Blur()
			return m, m.spinner.Tick
		}
		return m, nil

	case focusInputMsg:
		return m, m.input.Focus()

	case speakingMsg:
		if msg.speaking {
			m.speaking[msg.button] = true
		} else {
			delete(m.speaking, msg.button)
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		ctrl := m.ctrl
		return m, tea.Sequence(func() tea.Msg {
			ctrl.StopSpeech()
			return nil
		}, tea.Quit)

	case key.Matches(msg, keys.Speak):
		if m.selected == "" {
			return m, nil
		}
		id, ctrl := m.selected, m.ctrl
		return m, func() tea.Msg {
			ctrl.SpeakMessage(id)
			return nil
		}

	case key.Matches(msg, keys.Prev):
		m.moveSelection(-1)
		m.refresh()
		return m, nil

	case key.Matches(msg, keys.Next):
		m.moveSelection(1)
		m.refresh()
		return m, nil

	case key.Matches(msg, keys.PageUp), key.Matches(msg, keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// the input and send control are disabled while a request is pending
	if m.loading {
		return m, nil
	}

	if key.Matches(msg, keys.Send) {
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		ctx, ctrl := m.ctx, m.ctrl
		return m, func() tea.Msg {
			ctrl.Submit(ctx, text)
			return nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) moveSelection(delta int) {
	var bots []string
	current := -1
	for _, e := range m.entries {
		if e.Speakable {
			if e.ID == m.selected {
				current = len(bots)
			}
			bots = append(bots, e.ID)
		}
	}
	if len(bots) == 0 {
		return
	}
	if current < 0 {
		m.selected = bots[len(bots)-1]
		return
	}
	next := min(max(current+delta, 0), len(bots)-1)
	m.selected = bots[next]
}

func (m Model) lastBotID() string {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].Speakable {
			return m.entries[i].ID
		}
	}
	return ""
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	width := max(m.viewport.Width-4, 10)

	var sb strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderEntry(e, width))
		sb.WriteString("\n")
	}
	m.viewport.SetContent(sb.String())
}

func (m Model) renderEntry(e chatui.Entry, width int) string {
	var header string
	if e.Sender == chat.SenderUser {
		header = userLabelStyle.Render("You")
	} else {
		marker := idleAudioStyle.Render(audioIdle)
		if m.speaking[e.ID] {
			marker = speakingStyle.Render(audioSpeaking)
		}
		header = botLabelStyle.Render(m.botName) + " " + marker
	}

	block := lipgloss.JoinVertical(lipgloss.Left, header, bodyStyle.Width(width).Render(e.Text))
	if e.Speakable && e.ID == m.selected {
		return selectedStyle.Render(block)
	}
	return block
}

// View draws the transcript, the loading indicator and the input.
func (m Model) View() string {
	status := helpStyle.Render("enter send • alt+enter newline • ctrl+p/ctrl+n select reply • ctrl+s read aloud • ctrl+c quit")
	if m.loading {
		status = m.spinner.View() + loadingStyle.Render(" "+m.botName+" is typing…")
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), status, m.input.View())
}

// Entries returns the transcript as displayed.
func (m Model) Entries() []chatui.Entry {
	return append([]chatui.Entry(nil), m.entries...)
}

// Loading reports whether the loading indicator is shown.
func (m Model) Loading() bool {
	return m.loading
}

// Selected returns the id of the selected bot entry.
func (m Model) Selected() string {
	return m.selected
}

// Speaking reports whether the audio marker of entry id is active.
func (m Model) Speaking(id string) bool {
	return m.speaking[id]
}

// InputValue returns the text in the input box.
func (m Model) InputValue() string {
	return m.input.Value()
}

// InputFocused reports whether the input accepts keystrokes.
func (m Model) InputFocused() bool {
	return m.input.Focused()
}
