package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/cotebot/internal/chat"
	"github.com/edgard/cotebot/internal/database"
	"github.com/edgard/cotebot/internal/domain/model"
	"github.com/edgard/cotebot/internal/logger"
)

// updateWorkers bounds concurrent update handling so a running summary does
// not block opt-in commands.
const updateWorkers = 4

// Client is a chat.Platform backed by the Telegram Bot API and the message log.
type Client struct {
	bot        *bot.Bot
	store      database.Store
	readChatID string
	handler    atomic.Pointer[chat.IncomingHandler]
	logger     *slog.Logger
}

var _ chat.Platform = (*Client)(nil)

// New creates a Client that logs messages of readChatID into store.
func New(token string, store database.Store, readChatID string, log *slog.Logger) (*Client, error) {
	c := newClient(store, readChatID, log)

	b, err := NewTelegramBot(token, log,
		bot.WithMiddlewares(logger.TelegramMiddleware(c.logger)),
		bot.WithDefaultHandler(c.onUpdate),
		bot.WithWorkers(updateWorkers),
	)
	if err != nil {
		return nil, err
	}
	c.bot = b
	return c, nil
}

func newClient(store database.Store, readChatID string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		store:      store,
		readChatID: readChatID,
		logger:     log.With("component", "telegram"),
	}
}

// Listen polls for updates until ctx is done.
func (c *Client) Listen(ctx context.Context, handle chat.IncomingHandler) error {
	c.handler.Store(&handle)
	defer c.handler.Store(nil)

	c.logger.InfoContext(ctx, "Starting Telegram polling", "read_chat_id", c.readChatID)
	c.bot.Start(ctx)
	return ctx.Err()
}

// Close is a no-op; polling stops with the Listen context.
func (c *Client) Close() error { return nil }

// onUpdate records text messages and forwards them to the active handler.
func (c *Client) onUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return
	}
	msg := toMessage(update.Message)
	if msg.Content == "" {
		return
	}
	from := update.Message.From

	if !from.IsBot {
		if err := c.store.UpsertKnownUser(ctx, from.ID, msg.AuthorName); err != nil {
			c.logger.WarnContext(ctx, "Failed to record user name", "user_id", from.ID, "error", err)
		}
		if msg.ChannelID == c.readChatID {
			err := c.store.SaveMessage(ctx, &database.Message{
				ChatID:     msg.ChannelID,
				MessageID:  msg.ID,
				UserID:     int64(msg.AuthorID),
				AuthorName: msg.AuthorName,
				Content:    msg.Content,
				Timestamp:  msg.Timestamp.UnixMilli(),
			})
			if err != nil {
				c.logger.ErrorContext(ctx, "Failed to log message", "chat_id", msg.ChannelID, "error", err)
			}
		}
	}

	if h := c.handler.Load(); h != nil {
		(*h)(ctx, chat.Incoming{Message: msg, AuthorBot: from.IsBot})
	}
}

// History serves the logged messages of the read chat. Other chats are not
// logged and cannot be resolved.
func (c *Client) History(ctx context.Context, channelID string, since time.Time) ([]model.Message, error) {
	if channelID != c.readChatID {
		return nil, fmt.Errorf("chat %s has no message log: %w", channelID, chat.ErrChannelNotFound)
	}

	rows, err := c.store.GetMessagesSince(ctx, channelID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read message log: %w", err)
	}

	msgs := make([]model.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, model.Message{
			ID:         r.MessageID,
			ChannelID:  r.ChatID,
			AuthorID:   model.UserID(r.UserID),
			AuthorName: r.AuthorName,
			Content:    r.Content,
			Timestamp:  r.Time(),
		})
	}
	return msgs, nil
}

// Send posts text to channelID.
func (c *Client) Send(ctx context.Context, channelID, text string) error {
	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: channelID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to send message to chat %s: %w", channelID, err)
	}
	return nil
}

// DisplayName uses the last name seen in the chat, then the user's private
// chat info, then the decimal ID.
func (c *Client) DisplayName(ctx context.Context, _ string, id model.UserID) string {
	name, err := c.store.GetKnownUserName(ctx, int64(id))
	if err != nil {
		c.logger.WarnContext(ctx, "Known user lookup failed", "user_id", id, "error", err)
	}
	if name != "" {
		return name
	}

	if c.bot != nil {
		info, err := c.bot.GetChat(ctx, &bot.GetChatParams{ChatID: int64(id)})
		if err == nil && info != nil {
			if n := fullName(info.FirstName, info.LastName, info.Username); n != "" {
				return n
			}
		} else if err != nil {
			c.logger.DebugContext(ctx, "GetChat lookup failed, using ID as name", "user_id", id, "error", err)
		}
	}
	return id.String()
}

func toMessage(m *models.Message) model.Message {
	msg := model.Message{
		ID:        strconv.Itoa(m.ID),
		ChannelID: strconv.FormatInt(m.Chat.ID, 10),
		Content:   m.Text,
		Timestamp: time.Unix(int64(m.Date), 0),
	}
	if m.From != nil {
		msg.AuthorID = model.UserID(m.From.ID)
		msg.AuthorName = fullName(m.From.FirstName, m.From.LastName, m.From.Username)
	}
	return msg
}

func fullName(first, last, username string) string {
	if name := strings.TrimSpace(first + " " + last); name != "" {
		return name
	}
	return username
}
