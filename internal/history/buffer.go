// Package history keeps the short rolling list of turns sent to the
// question-answering API as conversation context.
package history

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// DefaultMaxTurns is the most turns a conversation keeps.
	DefaultMaxTurns = 20
	// DefaultAssistantCap is the most characters kept from one assistant reply.
	DefaultAssistantCap = 4000
)

// Turn is one message of a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Buffer is a bounded list of turns. Appending past the limit evicts the
// oldest turns first. A Buffer belongs to one conversation and is not safe
// for concurrent use; session.Manager serializes access per conversation.
type Buffer struct {
	turns    []Turn
	maxTurns int
}

// NewBuffer returns an empty buffer holding at most maxTurns turns.
// A non-positive maxTurns selects DefaultMaxTurns.
func NewBuffer(maxTurns int) *Buffer {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Buffer{maxTurns: maxTurns}
}

// Reset drops every turn.
func (b *Buffer) Reset() {
	b.turns = nil
}

func (b *Buffer) AppendUser(text string) {
	b.turns = append(b.turns, Turn{Role: RoleUser, Content: text})
	b.EvictToMax(b.maxTurns)
}

// AppendAssistant stores text cut to capLen characters. capLen <= 0 keeps
// the whole text.
func (b *Buffer) AppendAssistant(text string, capLen int) {
	b.turns = append(b.turns, Turn{Role: RoleAssistant, Content: truncate(text, capLen)})
	b.EvictToMax(b.maxTurns)
}

// EvictToMax removes the oldest turns until at most maxTurns remain.
func (b *Buffer) EvictToMax(maxTurns int) {
	if maxTurns < 0 {
		maxTurns = 0
	}
	if over := len(b.turns) - maxTurns; over > 0 {
		b.turns = append([]Turn(nil), b.turns[over:]...)
	}
}

// Turns returns a copy of the stored turns, oldest first.
func (b *Buffer) Turns() []Turn {
	out := make([]Turn, len(b.turns))
	copy(out, b.turns)
	return out
}

func (b *Buffer) Len() int {
	return len(b.turns)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
