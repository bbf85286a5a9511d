// Package handlers contains the chat command handlers, their registration
// and the router that dispatches incoming messages to them.
package handlers

import (
	"context"
	"time"

	"github.com/edgard/cotebot/internal/chat"
)

// HandlerFunc processes one command message.
type HandlerFunc func(ctx context.Context, msg chat.Incoming)

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// LogCommand logs every dispatched command with its duration.
func LogCommand(deps HandlerDeps, command string) Middleware {
	log := deps.Logger.With("middleware", "LogCommand", "command", command)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg chat.Incoming) {
			start := time.Now()
			log.InfoContext(ctx, "Handling command",
				"user_id", msg.Message.AuthorID,
				"channel_id", msg.Message.ChannelID)
			next(ctx, msg)
			log.DebugContext(ctx, "Command handled", "duration", time.Since(start))
		}
	}
}

func chain(h HandlerFunc, mws []Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
