// Package discord adapts a discordgo session to the chat ports.
package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/edgard/cotebot/internal/activity"
	"github.com/edgard/cotebot/internal/chat"
	"github.com/edgard/cotebot/internal/domain/model"
)

// discordEpochMillis is the first millisecond of 2015, the snowflake epoch.
const discordEpochMillis = 1420070400000

// pageSize is the maximum number of messages Discord returns per request.
const pageSize = 100

// Client is a chat.Platform backed by the Discord gateway and REST API.
type Client struct {
	session *discordgo.Session
	logger  *slog.Logger
}

var _ chat.Platform = (*Client)(nil)

// New creates a Client for a bot token. The gateway is not opened until Open.
func New(token string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	return &Client{session: session, logger: logger.With("component", "discord")}, nil
}

// Open connects to the gateway.
func (c *Client) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	if u := c.session.State.User; u != nil {
		c.logger.InfoContext(ctx, "Connected to Discord", "bot_id", u.ID, "bot_username", u.Username)
	}
	return nil
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	return c.session.Close()
}

// Listen delivers every created message to handle until ctx is done.
// discordgo runs each event handler on its own goroutine.
func (c *Client) Listen(ctx context.Context, handle chat.IncomingHandler) error {
	remove := c.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Message == nil || m.Author == nil {
			return
		}
		msg, err := toIncoming(m.Message)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping message with unparsable author", "message_id", m.ID, "error", err)
			return
		}
		handle(ctx, msg)
	})
	defer remove()

	<-ctx.Done()
	return ctx.Err()
}

// History pages forward from the first snowflake at or after since.
func (c *Client) History(ctx context.Context, channelID string, since time.Time) ([]model.Message, error) {
	if _, err := c.channel(ctx, channelID); err != nil {
		return nil, err
	}

	var raw []*discordgo.Message
	after := SnowflakeAt(since)
	for {
		batch, err := c.session.ChannelMessages(channelID, pageSize, "", after, "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch messages of channel %s: %w", channelID, mapError(err))
		}
		if len(batch) == 0 {
			break
		}
		raw = append(raw, batch...)
		after = maxID(batch)
		if len(batch) < pageSize {
			break
		}
	}

	msgs := collect(raw, since)
	c.logger.DebugContext(ctx, "Fetched channel history", "channel_id", channelID, "messages", len(msgs))
	return msgs, nil
}

// Send posts text to channelID.
func (c *Client) Send(ctx context.Context, channelID, text string) error {
	if _, err := c.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send message to channel %s: %w", channelID, mapError(err))
	}
	return nil
}

// DisplayName prefers the guild nickname, then the global display name or
// username, then the decimal ID.
func (c *Client) DisplayName(ctx context.Context, channelID string, id model.UserID) string {
	userID := id.String()

	if ch, err := c.channel(ctx, channelID); err == nil && ch.GuildID != "" {
		member, err := c.session.GuildMember(ch.GuildID, userID, discordgo.WithContext(ctx))
		if err == nil && member != nil {
			if member.Nick != "" {
				return member.Nick
			}
			if name := userName(member.User); name != "" {
				return name
			}
		} else if err != nil {
			c.logger.DebugContext(ctx, "Guild member lookup failed, falling back to user lookup", "user_id", userID, "error", err)
		}
	}

	user, err := c.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		c.logger.WarnContext(ctx, "User lookup failed, using ID as name", "user_id", userID, "error", err)
		return userID
	}
	if name := userName(user); name != "" {
		return name
	}
	return userID
}

// channel resolves channelID from the state cache or the REST API.
func (c *Client) channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if channelID == "" {
		return nil, fmt.Errorf("empty channel id: %w", chat.ErrChannelNotFound)
	}
	if c.session.State != nil {
		if ch, err := c.session.State.Channel(channelID); err == nil {
			return ch, nil
		}
	}
	ch, err := c.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve channel %s: %w", channelID, mapError(err))
	}
	return ch, nil
}

// mapError converts "unknown channel" REST failures to chat.ErrChannelNotFound.
func mapError(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownChannel {
			return fmt.Errorf("%w: %v", chat.ErrChannelNotFound, err)
		}
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %v", chat.ErrChannelNotFound, err)
		}
	}
	return err
}

// SnowflakeAt returns the largest snowflake strictly before t, so that an
// "after" query includes messages created exactly at t.
func SnowflakeAt(t time.Time) string {
	ms := t.UnixMilli() - discordEpochMillis
	if ms <= 0 {
		return "0"
	}
	return strconv.FormatUint(uint64(ms)<<22-1, 10)
}

func parseSnowflake(id string) uint64 {
	v, _ := strconv.ParseUint(id, 10, 64)
	return v
}

func maxID(batch []*discordgo.Message) string {
	var best uint64
	var bestID string
	for _, m := range batch {
		if v := parseSnowflake(m.ID); v >= best {
			best, bestID = v, m.ID
		}
	}
	return bestID
}

// collect drops duplicates and messages before since, and sorts oldest first.
func collect(raw []*discordgo.Message, since time.Time) []model.Message {
	seen := make(map[string]struct{}, len(raw))
	out := make([]model.Message, 0, len(raw))
	for _, m := range raw {
		if m == nil || m.Author == nil {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		if !activity.InWindow(m.Timestamp, since) {
			continue
		}
		in, err := toIncoming(m)
		if err != nil {
			continue
		}
		out = append(out, in.Message)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return parseSnowflake(out[i].ID) < parseSnowflake(out[j].ID)
	})
	return out
}

func toIncoming(m *discordgo.Message) (chat.Incoming, error) {
	authorID, err := model.ParseUserID(m.Author.ID)
	if err != nil {
		return chat.Incoming{}, err
	}
	name := userName(m.Author)
	if m.Member != nil && m.Member.Nick != "" {
		name = m.Member.Nick
	}
	return chat.Incoming{
		Message: model.Message{
			ID:         m.ID,
			ChannelID:  m.ChannelID,
			AuthorID:   authorID,
			AuthorName: name,
			Content:    m.Content,
			Timestamp:  m.Timestamp,
		},
		AuthorBot: m.Author.Bot,
	}, nil
}

func userName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
