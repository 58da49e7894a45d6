package agent

import "github.com/user/segmenta/pkg/llm"

// History is the conversation carried across queries within one session, so
// follow-ups like "show them as JSON" can refer to a segment discovered by an
// earlier query. It lives in memory only; nothing is persisted.
type History struct {
	messages []llm.Message
}

// NewHistory starts a conversation seeded with a system prompt.
func NewHistory(systemPrompt string) *History {
	return &History{
		messages: []llm.Message{{Role: "system", Content: systemPrompt}},
	}
}

// Add appends a message.
func (h *History) Add(m llm.Message) {
	h.messages = append(h.messages, m)
}

// Messages returns a copy of the conversation so far.
func (h *History) Messages() []llm.Message {
	out := make([]llm.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages including the system prompt.
func (h *History) Len() int {
	return len(h.messages)
}
