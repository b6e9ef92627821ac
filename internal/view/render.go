// Package view renders conversation state for terminals.
package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/advice-chat/internal/model/chat"
)

const (
	Title            = "Travel Advisor Chatbot"
	TypingText       = "Bot is typing..."
	ConfirmationText = "Message Sent!"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).Padding(0, 1)

	userStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#3C6EB4")).Padding(0, 1)
	botStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).
			Background(lipgloss.Color("#E4E4E4")).Padding(0, 1)

	typingStyle       = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#AFAFAF"))
	confirmationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065"))
	emptyStyle        = lipgloss.NewStyle().Faint(true)
)

// Renderer turns a chat.State into terminal text. Width bounds each bubble;
// zero leaves lines unwrapped.
type Renderer struct {
	Width int
}

// Header renders the title bar.
func (r Renderer) Header() string {
	return titleStyle.Render(Title)
}

// Thread renders the messages followed by the typing indicator.
func (r Renderer) Thread(state chat.State) string {
	if len(state.Messages) == 0 && !state.IsTyping {
		return emptyStyle.Render("Ask about destinations, budgets, packing or visas.")
	}

	lines := make([]string, 0, len(state.Messages)+1)
	for _, msg := range state.Messages {
		lines = append(lines, r.Message(msg))
	}
	if state.IsTyping {
		lines = append(lines, r.align(chat.RoleBot, typingStyle.Render(TypingText)))
	}
	return strings.Join(lines, "\n")
}

// Message renders one bubble, right aligned for the user.
func (r Renderer) Message(msg chat.Message) string {
	style := botStyle
	if msg.Role == chat.RoleUser {
		style = userStyle
	}
	if r.Width > 0 {
		style = style.Width(min(lipgloss.Width(msg.Text)+2, r.bubbleWidth()))
	}
	return r.align(msg.Role, style.Render(msg.Text))
}

// Status renders the transient confirmation, or nothing.
func (r Renderer) Status(state chat.State) string {
	if !state.MessageSent {
		return ""
	}
	return confirmationStyle.Render(ConfirmationText)
}

// Render is the full widget without an input line.
func (r Renderer) Render(state chat.State) string {
	parts := []string{r.Header(), r.Thread(state)}
	if status := r.Status(state); status != "" {
		parts = append(parts, status)
	}
	return strings.Join(parts, "\n\n")
}

func (r Renderer) bubbleWidth() int {
	w := r.Width * 3 / 4
	if w < 10 {
		w = r.Width
	}
	return w
}

func (r Renderer) align(role chat.Role, s string) string {
	if r.Width <= 0 || role != chat.RoleUser {
		return s
	}
	return lipgloss.PlaceHorizontal(r.Width, lipgloss.Right, s)
}
