package chat

// State is the full view-facing state of one conversation.
//
// Revision moves whenever the message sequence changes (append or clear) and
// InputRevision whenever PendingInput changes. Views use them to decide when
// to scroll and whether a snapshot is older than what they last wrote.
type State struct {
	Messages      []Message `json:"messages"`
	PendingInput  string    `json:"pendingInput"`
	IsTyping      bool      `json:"isTyping"`
	MessageSent   bool      `json:"messageSent"`
	Revision      uint64    `json:"revision"`
	InputRevision uint64    `json:"inputRevision"`
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s State) Clone() State {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}

// Last returns the newest message, if any.
func (s State) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
