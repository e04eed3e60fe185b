package bot

import (
	"strings"

	"github.com/lojasmm/askbot/internal/markup"
)

// Fixed replies. None of them carry error details to the user.
const (
	MsgGreeting = "Hey! I know a lot about using models and longevity research. " +
		"Ask me anything and I'll be happy to help!"
	MsgReset    = "Done, I forgot our conversation. Ask me anything!"
	MsgFailure  = "Sorry, something went wrong while looking for an answer. Please try again later."
	MsgNoAnswer = "Sorry, I couldn't find an answer to that question. Try rephrasing it."
)

// SourcesBlock renders titles as a list under a bold "Sources:" heading,
// escaping each title for the dialect.
func SourcesBlock(titles []string, dialect markup.Dialect) string {
	if len(titles) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n*Sources:*")
	for _, t := range titles {
		b.WriteString("\n- ")
		b.WriteString(dialect.Escape(t))
	}
	return b.String()
}
