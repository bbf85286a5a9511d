package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/edgard/cotebot/internal/chat"
	"github.com/edgard/cotebot/internal/pipeline"
)

// NewSummarizeHandler returns a handler that runs the summary pipeline on demand.
func NewSummarizeHandler(deps HandlerDeps) HandlerFunc {
	return summarizeHandler{deps}.Handle
}

// summarizeHandler processes the summarize command using injected dependencies.
type summarizeHandler struct {
	deps HandlerDeps
}

// Handle blocks until the run completes. A failed run posts nothing.
func (h summarizeHandler) Handle(ctx context.Context, msg chat.Incoming) {
	log := h.deps.Logger.With("handler", "summarize")
	start := time.Now()

	err := h.deps.Pipeline.Run(ctx)
	switch {
	case err == nil:
		log.InfoContext(ctx, "Manual summary run completed", "duration", time.Since(start))
	case errors.Is(err, pipeline.ErrRunTimeout):
		log.WarnContext(ctx, "Manual summary run timed out", "error", err, "requested_by", msg.Message.AuthorID)
	case errors.Is(err, chat.ErrChannelNotFound):
		log.ErrorContext(ctx, "Manual summary run aborted: channel not found", "error", err)
	default:
		log.ErrorContext(ctx, "Manual summary run failed", "error", err)
	}
}
