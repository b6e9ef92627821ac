package view

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/advice-chat/internal/model/chat"
)

func TestRenderShowsMessagesInOrder(t *testing.T) {
	state := chat.State{Messages: []chat.Message{
		chat.UserMessage("Where in May?"),
		chat.BotMessage("Try Porto."),
	}}

	out := Renderer{}.Render(state)

	assert.Contains(t, out, Title)
	user := strings.Index(out, "Where in May?")
	bot := strings.Index(out, "Try Porto.")
	assert.True(t, user >= 0 && bot > user)
	assert.NotContains(t, out, TypingText)
	assert.NotContains(t, out, ConfirmationText)
}

func TestRenderIndicators(t *testing.T) {
	state := chat.State{
		Messages:    []chat.Message{chat.UserMessage("hi")},
		IsTyping:    true,
		MessageSent: true,
	}

	out := Renderer{Width: 60}.Render(state)
	assert.Contains(t, out, TypingText)
	assert.Contains(t, out, ConfirmationText)
	assert.Less(t, strings.Index(out, "hi"), strings.Index(out, TypingText))
}

func TestStatusEmptyWhenNotSent(t *testing.T) {
	assert.Empty(t, Renderer{}.Status(chat.State{}))
}

func TestThreadPlaceholderWhenEmpty(t *testing.T) {
	out := Renderer{}.Thread(chat.State{})
	assert.NotEmpty(t, out)
	assert.NotContains(t, out, TypingText)
}
