// Package chat defines the ports the summarization pipeline needs from a
// chat platform.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/edgard/cotebot/internal/domain/model"
)

// ErrChannelNotFound is returned when a channel ID cannot be resolved.
var ErrChannelNotFound = errors.New("channel not found")

// Source reads channel history.
type Source interface {
	// History returns every message in channelID at or after since, oldest first.
	History(ctx context.Context, channelID string, since time.Time) ([]model.Message, error)
}

// Sink posts text to a channel.
type Sink interface {
	Send(ctx context.Context, channelID, text string) error
}

// Directory resolves display names. It never fails; an unresolvable user
// yields the decimal ID.
type Directory interface {
	DisplayName(ctx context.Context, channelID string, id model.UserID) string
}

// Platform is everything the bot needs from a chat service.
type Platform interface {
	Source
	Sink
	Directory

	// Listen delivers incoming messages to handle until ctx is done.
	Listen(ctx context.Context, handle IncomingHandler) error
	// Close releases the platform connection.
	Close() error
}

// Incoming is a message received live from the platform.
type Incoming struct {
	Message   model.Message
	AuthorBot bool
}

// IncomingHandler processes one live message.
type IncomingHandler func(ctx context.Context, msg Incoming)
