package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/cotebot/internal/bot/tasks"
	"github.com/edgard/cotebot/internal/config"
	"github.com/edgard/cotebot/internal/logger"
)

// Scheduler manages scheduled tasks using the gocron library.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a scheduler that fires jobs in loc.
func NewScheduler(log *slog.Logger, cfg *config.SchedulerConfig, loc *time.Location, taskMap map[string]tasks.ScheduledTaskFunc) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithLogger(logger.NewGocronLogger(log)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    log.With("component", "scheduler"),
		cfg:       cfg,
		taskMap:   taskMap,
	}, nil
}

// jobDefinition turns a schedule string into a gocron job definition. "HH:MM"
// is a daily wall-clock time; anything else is a cron expression, with a
// seconds field when it has six fields.
func jobDefinition(schedule string) (gocron.JobDefinition, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, fmt.Errorf("empty schedule")
	}

	if at, err := time.Parse("15:04", schedule); err == nil {
		return gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(uint(at.Hour()), uint(at.Minute()), 0),
		)), nil
	}

	withSeconds := len(strings.Fields(schedule)) == 6
	return gocron.CronJob(schedule, withSeconds), nil
}

// Start schedules all enabled tasks and starts the scheduler. ctx is passed
// to every task run and should live as long as the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.logger.Debug("Configuring scheduler jobs...")

	scheduledCount := 0
	if s.cfg != nil {
		for taskName, taskConfig := range s.cfg.Tasks {
			if !taskConfig.Enabled {
				s.logger.Info("Skipping disabled task", "task_name", taskName)
				continue
			}

			taskFunc, exists := s.taskMap[taskName]
			if !exists {
				s.logger.Warn("Scheduled task configured but not found in registry, skipping", "task_name", taskName)
				continue
			}

			def, err := jobDefinition(taskConfig.Schedule)
			if err != nil {
				s.logger.Warn("Scheduled task has an invalid schedule, skipping", "task_name", taskName, "error", err)
				continue
			}

			job, err := s.scheduler.NewJob(
				def,
				gocron.NewTask(func() {
					s.logger.Info("Running scheduled task", "task_name", taskName)
					startTime := time.Now()
					if taskErr := taskFunc(ctx); taskErr != nil {
						s.logger.Error("Scheduled task failed", "task_name", taskName, "error", taskErr)
					}
					s.logger.Info("Finished scheduled task", "task_name", taskName, "duration", time.Since(startTime))
				}),
				gocron.WithName(taskName),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			)
			if err != nil {
				s.logger.Error("Failed to schedule task", "task_name", taskName, "schedule", taskConfig.Schedule, "error", err)
				continue
			}

			s.logger.Info("Scheduled task", "task_name", taskName, "schedule", taskConfig.Schedule, "job_id", job.ID())
			scheduledCount++
		}
	}

	if scheduledCount == 0 {
		s.logger.Warn("No scheduler tasks configured.")
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler initialized and started", "tasks_scheduled", scheduledCount)

	for _, job := range s.scheduler.Jobs() {
		if next, err := job.NextRun(); err == nil {
			s.logger.Info("Next scheduled run", "task_name", job.Name(), "at", next)
		}
	}
	return nil
}

// JobNames returns the names of the scheduled jobs.
func (s *Scheduler) JobNames() []string {
	var names []string
	for _, job := range s.scheduler.Jobs() {
		names = append(names, job.Name())
	}
	return names
}

// Stop gracefully stops the scheduler, waiting for running jobs to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Scheduler is not running, nothing to stop.")
		return nil
	}

	s.logger.Debug("Stopping scheduler gracefully (waiting for jobs)...")
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully.")
	}

	s.running = false
	return err
}
