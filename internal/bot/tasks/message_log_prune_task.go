package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/cotebot/internal/activity"
)

// newMessageLogPruneTask deletes logged messages from before the current
// activity window, so the log never holds more than one day.
func newMessageLogPruneTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "message_log_prune")

	return func(ctx context.Context) error {
		cutoff := activity.StartOfDay(deps.Now(), deps.Config.Location())
		log.InfoContext(ctx, "Pruning message log", "before", cutoff)

		deleted, err := deps.Store.DeleteMessagesBefore(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Message log prune failed", "error", err)
			return fmt.Errorf("message log prune failed: %w", err)
		}

		log.InfoContext(ctx, "Message log pruned", "deleted", deleted, "before", cutoff.Format(time.RFC3339))
		return nil
	}
}
