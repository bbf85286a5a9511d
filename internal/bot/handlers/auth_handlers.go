package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edgard/cotebot/internal/authz"
	"github.com/edgard/cotebot/internal/chat"
)

// NewOptInHandler returns a handler that adds the sender to the tracked users.
func NewOptInHandler(deps HandlerDeps) HandlerFunc {
	return optHandler{deps: deps, name: "opt_in", add: true}.Handle
}

// NewOptOutHandler returns a handler that removes the sender from the tracked users.
func NewOptOutHandler(deps HandlerDeps) HandlerFunc {
	return optHandler{deps: deps, name: "opt_out", add: false}.Handle
}

type optHandler struct {
	deps HandlerDeps
	name string
	add  bool
}

func (h optHandler) Handle(ctx context.Context, msg chat.Incoming) {
	log := h.deps.Logger.With("handler", h.name)
	m := msg.Message
	texts := h.deps.Config.Messages

	var err error
	if h.add {
		err = h.deps.Auth.Add(ctx, m.AuthorID)
	} else {
		err = h.deps.Auth.Remove(ctx, m.AuthorID)
	}

	var text string
	switch {
	case errors.Is(err, authz.ErrImmutable):
		log.InfoContext(ctx, "Authorization change rejected, list is static", "user_id", m.AuthorID)
		text = texts.AuthImmutable
	case err != nil:
		log.ErrorContext(ctx, "Failed to update authorization list", "error", err, "user_id", m.AuthorID)
		text = texts.AuthError
	default:
		name := m.AuthorName
		if name == "" {
			name = m.AuthorID.String()
		}
		format := texts.OptedOut
		if h.add {
			format = texts.OptedIn
		}
		log.InfoContext(ctx, "Authorization list updated", "user_id", m.AuthorID, "tracked", h.add)
		text = fmt.Sprintf(format, name)
	}

	reply(ctx, h.deps, log, m.ChannelID, text)
}

// NewListHandler returns a handler that lists the tracked users by name.
func NewListHandler(deps HandlerDeps) HandlerFunc {
	return listHandler{deps}.Handle
}

type listHandler struct {
	deps HandlerDeps
}

func (h listHandler) Handle(ctx context.Context, msg chat.Incoming) {
	log := h.deps.Logger.With("handler", "list")
	texts := h.deps.Config.Messages
	ids := h.deps.Auth.Snapshot()

	if len(ids) == 0 {
		reply(ctx, h.deps, log, msg.Message.ChannelID, texts.NoTrackedUsers)
		return
	}

	var b strings.Builder
	b.WriteString(texts.TrackedHeader)
	for _, id := range ids {
		b.WriteString("\n- ")
		b.WriteString(h.deps.Chat.DisplayName(ctx, msg.Message.ChannelID, id))
	}
	reply(ctx, h.deps, log, msg.Message.ChannelID, b.String())
}
