package tasks

import (
	"context"
	"time"

	"github.com/edgard/cotebot/internal/config"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns the scheduled tasks keyed by the names used in the
// scheduler.tasks configuration section. Database tasks are only registered
// when a store is available.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	tasks := make(map[string]ScheduledTaskFunc)
	tasks[config.TaskDailySummary] = newDailySummaryTask(deps)
	if deps.Store != nil {
		tasks[config.TaskMessageLogPrune] = newMessageLogPruneTask(deps)
		tasks[config.TaskSQLMaintenance] = newSQLMaintenanceTask(deps)
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
