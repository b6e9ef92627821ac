// Package tui hosts the terminal chat widget.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/advice-chat/internal/model/chat"
	"github.com/zhouzirui/advice-chat/internal/view"
)

const Placeholder = "Ask for advice..."

// chrome is the number of rows used around the viewport.
const chrome = 6

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))

// Conversation is the part of the controller the widget drives.
type Conversation interface {
	Submit(text string) bool
	SetInput(text string) uint64
	ClearConversation()
	Subscribe() (<-chan chat.State, func())
}

type stateMsg chat.State

type closedMsg struct{}

// Model is the bubbletea model for one conversation.
type Model struct {
	conv        Conversation
	updates     <-chan chat.State
	unsubscribe func()

	input    textinput.Model
	viewport viewport.Model
	renderer view.Renderer
	ready    bool

	state    chat.State
	revision uint64
	inputRev uint64
}

// New subscribes to conv. The subscription ends when the program quits or
// the conversation is closed.
func New(conv Conversation) Model {
	ti := textinput.New()
	ti.Placeholder = Placeholder
	ti.Prompt = "> "
	ti.CharLimit = 1000
	ti.Focus()

	updates, unsubscribe := conv.Subscribe()
	return Model{
		conv:        conv,
		updates:     updates,
		unsubscribe: unsubscribe,
		input:       ti,
		viewport:    viewport.New(80, 20),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForState(m.updates))
}

func waitForState(updates <-chan chat.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return stateMsg(s)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case stateMsg:
		m.applyState(chat.State(msg))
		return m, waitForState(m.updates)

	case closedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.unsubscribe()
			return m, tea.Quit
		case tea.KeyEnter:
			m.conv.Submit(m.input.Value())
			return m, nil
		case tea.KeyCtrlL:
			m.conv.ClearConversation()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		if rev := m.conv.SetInput(after); rev > m.inputRev {
			m.inputRev = rev
		}
	}
	return m, cmd
}

// applyState takes a snapshot from the controller. Pending input only
// overwrites the text box when it is newer than anything typed here.
func (m *Model) applyState(s chat.State) {
	m.state = s

	if s.InputRevision > m.inputRev {
		m.inputRev = s.InputRevision
		m.input.SetValue(s.PendingInput)
		m.input.CursorEnd()
	}

	m.viewport.SetContent(m.renderer.Thread(s))
	if s.Revision != m.revision || s.IsTyping {
		m.revision = s.Revision
		m.viewport.GotoBottom()
	}
}

func (m *Model) resize(width, height int) {
	h := height - chrome
	if h < 1 {
		h = 1
	}
	m.viewport.Width = width
	m.viewport.Height = h
	m.renderer.Width = width
	m.input.Width = width - lipgloss.Width(m.input.Prompt) - 1
	m.ready = true

	m.viewport.SetContent(m.renderer.Thread(m.state))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderer.Header())
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderer.Status(m.state))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: send • ctrl+l: clear chat • esc: quit"))
	return b.String()
}

// State returns the last snapshot the model rendered.
func (m Model) State() chat.State {
	return m.state
}

// Input returns the text currently in the input box.
func (m Model) Input() string {
	return m.input.Value()
}
