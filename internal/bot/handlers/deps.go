package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/cotebot/internal/authz"
	"github.com/edgard/cotebot/internal/chat"
	"github.com/edgard/cotebot/internal/config"
)

// Runner runs the summary pipeline once.
type Runner interface {
	Run(ctx context.Context) error
}

// Replier is the part of the chat platform that command handlers use.
type Replier interface {
	chat.Sink
	chat.Directory
}

// HandlerDeps provides dependencies for chat command handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Auth     authz.Store
	Pipeline Runner
	Chat     Replier
}
