// Package tasks implements the scheduled tasks of the bot: the daily summary
// run and the maintenance of the sqlite message log.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgard/cotebot/internal/config"
	"github.com/edgard/cotebot/internal/database"
)

// Runner runs the summary pipeline once.
type Runner interface {
	Run(ctx context.Context) error
}

// TaskDeps contains all dependencies required by scheduled tasks. Store is
// nil when the configuration does not use the database.
type TaskDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Pipeline Runner
	Store    database.Store
	Now      func() time.Time
}
