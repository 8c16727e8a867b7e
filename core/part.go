package core

import "strings"

// Role identifies the conversational origin of a Message.
type Role string

const (
	// RoleUser marks input produced by the caller of an agent.
	RoleUser Role = "user"
	// RoleAgent marks output produced by an agent.
	RoleAgent Role = "agent"
)

// Part is a typed content fragment. Parts are immutable once constructed;
// MimeType defaults to plain text when empty.
type Part struct {
	Content  string `json:"content"`
	MimeType string `json:"mimeType,omitempty"`
}

// Message is an ordered sequence of Parts plus a role tag. A constructed
// Message always carries at least one Part.
type Message struct {
	Role  Role   `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// NewUserMessage builds a single-part text message with the user role.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{{Content: text}}}
}

// NewAgentMessage builds a single-part text message with the agent role.
func NewAgentMessage(text string) Message {
	return Message{Role: RoleAgent, Parts: []Part{{Content: text}}}
}

// Text returns the concatenation of all part contents in order.
func (m Message) Text() string {
	if len(m.Parts) == 1 {
		return m.Parts[0].Content
	}
	var b strings.Builder
	for _, p := range m.Parts {
		b.WriteString(p.Content)
	}
	return b.String()
}

// Empty reports whether the message carries no parts. Protocol consumers
// reject empty messages; see server request validation.
func (m Message) Empty() bool { return len(m.Parts) == 0 }

// JoinText concatenates the text of all messages separated by newlines.
// Useful when feeding a multi-message output as a single prompt.
func JoinText(msgs []Message) string {
	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		texts = append(texts, m.Text())
	}
	return strings.Join(texts, "\n")
}
