package chat

// Role identifies who authored a message in the conversation thread.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is one bubble in the thread. Its position in State.Messages is its
// only identity.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// UserMessage builds a user-authored message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// BotMessage builds a bot-authored message.
func BotMessage(text string) Message {
	return Message{Role: RoleBot, Text: text}
}
