package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// maintenanceTimeout bounds VACUUM so a large log cannot hold the
// single connection through the next summary run.
const maintenanceTimeout = 10 * time.Minute

// newSQLMaintenanceTask compacts the sqlite file after the log was pruned.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, maintenanceTimeout)
		defer cancel()

		if err := deps.Store.Ping(ctx); err != nil {
			log.ErrorContext(ctx, "Database unreachable, skipping maintenance", "error", err)
			return fmt.Errorf("sql maintenance: ping: %w", err)
		}

		started := deps.Now()
		err := deps.Store.RunSQLMaintenance(ctx)
		took := deps.Now().Sub(started)

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			log.WarnContext(ctx, "SQL maintenance ran out of time", "timeout", maintenanceTimeout)
			return fmt.Errorf("sql maintenance: %w", err)
		case err != nil:
			log.ErrorContext(ctx, "SQL maintenance failed", "error", err, "duration", took)
			return fmt.Errorf("sql maintenance: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance done", "duration", took)
		return nil
	}
}
