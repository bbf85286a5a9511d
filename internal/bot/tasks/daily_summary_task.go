package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edgard/cotebot/internal/chat"
	"github.com/edgard/cotebot/internal/pipeline"
)

// newDailySummaryTask runs the same pipeline entry point as the summarize command.
func newDailySummaryTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "daily_summary")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled summary run...")
		startTime := time.Now()

		err := deps.Pipeline.Run(ctx)
		duration := time.Since(startTime)

		switch {
		case err == nil:
			log.InfoContext(ctx, "Scheduled summary run completed successfully", "duration", duration)
			return nil
		case errors.Is(err, pipeline.ErrRunTimeout):
			log.WarnContext(ctx, "Scheduled summary run timed out", "error", err, "duration", duration)
			return fmt.Errorf("daily summary timed out: %w", err)
		case errors.Is(err, chat.ErrChannelNotFound):
			log.ErrorContext(ctx, "Scheduled summary run aborted: channel not found", "error", err)
			return fmt.Errorf("daily summary aborted: %w", err)
		default:
			log.ErrorContext(ctx, "Scheduled summary run failed", "error", err, "duration", duration)
			return fmt.Errorf("daily summary failed: %w", err)
		}
	}
}
