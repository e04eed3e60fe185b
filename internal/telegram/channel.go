// Package telegram connects the bot handler to Telegram through long polling.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/lojasmm/askbot/internal/bot"
	"github.com/lojasmm/askbot/internal/logging"
	"github.com/lojasmm/askbot/internal/markup"
)

// Sender is the part of the Telegram Bot API the channel uses.
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	SendChatAction(ctx context.Context, params *telego.SendChatActionParams) error
}

// Channel sends replies and typing indicators to Telegram chats.
type Channel struct {
	api Sender
	log *slog.Logger
}

func NewChannel(api Sender) *Channel {
	return &Channel{api: api, log: logging.NewModuleLogger("telegram")}
}

// SendText sends text to the chat, asking Telegram to parse it as dialect.
// Entity parse failures wrap bot.ErrFormattingRejected.
func (c *Channel) SendText(ctx context.Context, conversationID, text string, dialect markup.Dialect) error {
	chatID, err := parseChatID(conversationID)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}

	msg := tu.Message(tu.ID(chatID), text)
	msg.ParseMode = parseMode(dialect)

	if _, err := c.api.SendMessage(ctx, msg); err != nil {
		if msg.ParseMode != "" && isParseError(err) {
			return fmt.Errorf("%w: %v", bot.ErrFormattingRejected, err)
		}
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// SendProgress shows "typing..." in the chat. Errors are only logged.
func (c *Channel) SendProgress(ctx context.Context, conversationID string) {
	chatID, err := parseChatID(conversationID)
	if err != nil {
		return
	}
	err = c.api.SendChatAction(ctx, tu.ChatAction(tu.ID(chatID), telego.ChatActionTyping))
	if err != nil && ctx.Err() == nil {
		c.log.Debug("failed to send chat action", "chat_id", conversationID, "error", err)
	}
}

func parseMode(d markup.Dialect) string {
	switch d {
	case markup.DialectMarkdown:
		return telego.ModeMarkdown
	case markup.DialectMarkdownV2:
		return telego.ModeMarkdownV2
	default:
		return ""
	}
}

func isParseError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "can't parse entities") || strings.Contains(s, "can't find end of")
}

// ConversationKey identifies the conversation a message belongs to: its chat.
func ConversationKey(msg telego.Message) string {
	return strconv.FormatInt(msg.Chat.ID, 10)
}

func parseChatID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// --- polling ---

// Poll receives updates by long polling and routes /start, /reset and text
// messages to h until ctx is cancelled.
func Poll(ctx context.Context, b *telego.Bot, h *bot.Handler) error {
	log := logging.NewModuleLogger("telegram")

	updates, err := b.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{Timeout: 30})
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	bh, err := th.NewBotHandler(b, updates)
	if err != nil {
		return fmt.Errorf("failed to create bot handler: %w", err)
	}

	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		h.HandleStart(ctx, ConversationKey(message))
		return nil
	}, th.CommandEqual("start"))

	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		h.HandleReset(ctx, ConversationKey(message))
		return nil
	}, th.CommandEqual("reset"))

	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		if message.Text == "" || strings.HasPrefix(message.Text, "/") {
			return nil
		}
		h.HandleMessage(ctx, ConversationKey(message), message.Text)
		return nil
	}, th.AnyMessage())

	log.Info("telegram bot connected", "username", b.Username())

	go func() {
		<-ctx.Done()
		bh.Stop()
	}()

	return bh.Start()
}
