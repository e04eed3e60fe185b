package bot

import (
	"github.com/tidwall/gjson"

	"github.com/lojasmm/askbot/internal/answer"
	"github.com/lojasmm/askbot/internal/markup"
	"github.com/lojasmm/askbot/internal/qa"
)

// Outcome labels how a question was resolved, for logs and chat stats.
type Outcome string

const (
	OutcomeAnswered Outcome = "answered"
	OutcomeNoAnswer Outcome = Outcome(qa.KindExtractionAbsent)
	OutcomeFailed   Outcome = "failed"
)

// Reply is the formatted answer to one question.
type Reply struct {
	// Text is what gets chunked and sent to the chat.
	Text string
	// Remember is stored as the assistant turn; empty means nothing is stored.
	Remember string
	Outcome  Outcome
}

// Compose turns the transport result into the reply text. Transport errors
// and error objects become MsgFailure, a response without an answer becomes
// MsgNoAnswer. Source titles are escaped for legacy Markdown.
func Compose(resp gjson.Result, err error, maxTitles int) Reply {
	if err == nil {
		if qe := qa.StructuredError(resp); qe != nil {
			err = qe
		}
	}
	if err != nil {
		return Reply{Text: MsgFailure, Outcome: Outcome(qa.KindOf(err))}
	}

	text, ok := answer.Text(resp)
	if !ok {
		return Reply{Text: MsgNoAnswer, Remember: MsgNoAnswer, Outcome: OutcomeNoAnswer}
	}

	out := markup.Normalize(text)
	out += SourcesBlock(answer.SourceTitles(resp, maxTitles), markup.DialectMarkdown)
	return Reply{Text: out, Remember: text, Outcome: OutcomeAnswered}
}
