package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/edgard/cotebot/internal/chat"
)

// RegisteredHandler represents a command handler with its middleware.
type RegisteredHandler struct {
	Command    string
	Handler    HandlerFunc
	Middleware []Middleware
}

// RegisterAllCommands returns every command handler keyed by its command word.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	cmds := deps.Config.Commands
	handlers := make(map[string]RegisteredHandler)

	register := func(command string, h HandlerFunc) {
		handlers[command] = RegisteredHandler{
			Command:    command,
			Handler:    h,
			Middleware: []Middleware{LogCommand(deps, command)},
		}
	}

	register(cmds.Summarize, NewSummarizeHandler(deps))
	register(cmds.OptIn, NewOptInHandler(deps))
	register(cmds.OptOut, NewOptOutHandler(deps))
	register(cmds.List, NewListHandler(deps))

	deps.Logger.Info("Registered chat commands", "count", len(handlers))
	return handlers
}

// Router dispatches incoming messages to command handlers. A message matches
// a command only when its first whitespace-separated token equals the command
// word, so "!인증취소" never triggers "!인증".
type Router struct {
	handlers map[string]HandlerFunc
	deps     HandlerDeps
}

// NewRouter builds a Router from the registered commands.
func NewRouter(deps HandlerDeps) *Router {
	registered := RegisterAllCommands(deps)
	handlers := make(map[string]HandlerFunc, len(registered))
	for cmd, rh := range registered {
		handlers[cmd] = chain(rh.Handler, rh.Middleware)
	}
	return &Router{handlers: handlers, deps: deps}
}

// Handle is a chat.IncomingHandler. Bot authors and non-command messages are
// ignored.
func (r *Router) Handle(ctx context.Context, msg chat.Incoming) {
	if msg.AuthorBot {
		return
	}
	fields := strings.Fields(msg.Message.Content)
	if len(fields) == 0 {
		return
	}
	h, ok := r.handlers[fields[0]]
	if !ok {
		return
	}
	h(ctx, msg)
}

// reply sends text to channelID, logging failures.
func reply(ctx context.Context, deps HandlerDeps, log *slog.Logger, channelID, text string) {
	if err := deps.Chat.Send(ctx, channelID, text); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "channel_id", channelID)
	}
}
