package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/lojasmm/askbot/internal/history"
	"github.com/lojasmm/askbot/internal/logging"
	"github.com/lojasmm/askbot/internal/markup"
	"github.com/lojasmm/askbot/internal/session"
)

// ErrFormattingRejected is wrapped by a ChatChannel when the chat platform
// refuses a message because its markup does not parse.
var ErrFormattingRejected = errors.New("formatting rejected")

// Transport asks the question-answering API. It does not retry.
type Transport interface {
	Ask(ctx context.Context, query string, turns []history.Turn) (gjson.Result, error)
}

// ChatChannel delivers messages to a conversation.
type ChatChannel interface {
	SendText(ctx context.Context, conversationID, text string, dialect markup.Dialect) error
	// SendProgress shows a best-effort "working" indicator.
	SendProgress(ctx context.Context, conversationID string)
}

// Recorder counts question outcomes per conversation.
type Recorder interface {
	RecordOutcome(conversationID string, outcome string) error
}

const DefaultProgressInterval = 4 * time.Second

type Options struct {
	MessageLimit     int
	MaxSourceTitles  int
	AssistantCap     int
	ProgressInterval time.Duration
}

type Handler struct {
	transport Transport
	chat      ChatChannel
	sessions  *session.Manager
	recorder  Recorder
	opts      Options
	log       *slog.Logger
}

// NewHandler wires the pipeline. recorder may be nil.
func NewHandler(t Transport, chat ChatChannel, sessions *session.Manager, recorder Recorder, opts Options) *Handler {
	if opts.MessageLimit <= 0 {
		opts.MessageLimit = markup.DefaultLimit
	}
	if opts.MaxSourceTitles <= 0 {
		opts.MaxSourceTitles = 5
	}
	if opts.AssistantCap <= 0 {
		opts.AssistantCap = history.DefaultAssistantCap
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	return &Handler{
		transport: t,
		chat:      chat,
		sessions:  sessions,
		recorder:  recorder,
		opts:      opts,
		log:       logging.NewModuleLogger("bot"),
	}
}

// HandleStart resets the conversation and greets the user.
func (h *Handler) HandleStart(ctx context.Context, conversationID string) {
	h.sessions.Reset(conversationID)
	h.sendPlain(ctx, h.log.With("conversation", conversationID), conversationID, MsgGreeting)
}

// HandleReset clears the conversation history.
func (h *Handler) HandleReset(ctx context.Context, conversationID string) {
	h.sessions.Reset(conversationID)
	h.sendPlain(ctx, h.log.With("conversation", conversationID), conversationID, MsgReset)
}

// HandleMessage answers one user question. Blank messages are ignored. Any
// failure after the question is accepted ends in MsgFailure being sent.
func (h *Handler) HandleMessage(ctx context.Context, conversationID, text string) {
	query := strings.TrimSpace(text)
	if query == "" {
		return
	}

	log := h.log.With("conversation", conversationID, "request_id", uuid.NewString())
	start := time.Now()

	var outcome Outcome
	err := h.sessions.WithLock(conversationID, func(buf *history.Buffer) error {
		var err error
		outcome, err = h.answer(ctx, log, conversationID, query, buf)
		return err
	})
	if err != nil {
		outcome = OutcomeFailed
		log.Error("answer pipeline failed", "error", err)
		h.sendPlain(ctx, log, conversationID, MsgFailure)
	}

	log.Info("question handled", "outcome", outcome, "duration", time.Since(start))
	if h.recorder != nil {
		if err := h.recorder.RecordOutcome(conversationID, string(outcome)); err != nil {
			log.Warn("failed to record outcome", "error", err)
		}
	}
}

func (h *Handler) answer(ctx context.Context, log *slog.Logger, conversationID, query string, buf *history.Buffer) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while answering: %v", r)
		}
	}()

	prior := buf.Turns()
	buf.AppendUser(query)

	halt, wait := h.startProgress(ctx, conversationID)
	defer wait()
	defer halt()

	resp, askErr := h.transport.Ask(ctx, query, prior)
	halt()
	if askErr != nil {
		log.Warn("question failed", "error", askErr)
	}
	reply := Compose(resp, askErr, h.opts.MaxSourceTitles)

	err = h.emit(ctx, log, conversationID, reply.Text)
	if reply.Remember != "" {
		buf.AppendAssistant(reply.Remember, h.opts.AssistantCap)
	}
	return reply.Outcome, err
}

// startProgress sends the progress signal now and then every interval until
// halt is called. Each send is bounded by the interval. wait blocks until the
// last send has returned; halt does not, so an in-flight send never holds up
// the reply.
func (h *Handler) startProgress(ctx context.Context, conversationID string) (halt, wait func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(h.opts.ProgressInterval)
		defer ticker.Stop()
		for {
			sendCtx, sendCancel := context.WithTimeout(ctx, h.opts.ProgressInterval)
			h.chat.SendProgress(sendCtx, conversationID)
			sendCancel()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return cancel, func() { <-done }
}

// emit sends text in segments. A segment whose markup is rejected is sent
// once more as plain text.
func (h *Handler) emit(ctx context.Context, log *slog.Logger, conversationID, text string) error {
	for i, seg := range markup.Chunk(text, h.opts.MessageLimit) {
		err := h.chat.SendText(ctx, conversationID, seg, markup.DialectMarkdown)
		if errors.Is(err, ErrFormattingRejected) {
			log.Warn("markdown rejected, resending as plain text", "segment", i, "error", err)
			err = h.chat.SendText(ctx, conversationID, seg, markup.DialectPlain)
		}
		if err != nil {
			return fmt.Errorf("sending segment %d: %w", i, err)
		}
	}
	return nil
}

func (h *Handler) sendPlain(ctx context.Context, log *slog.Logger, conversationID, text string) {
	if err := h.chat.SendText(ctx, conversationID, text, markup.DialectPlain); err != nil {
		log.Error("failed to send message", "error", err)
	}
}
