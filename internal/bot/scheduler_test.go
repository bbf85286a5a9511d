package bot

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/edgard/cotebot/internal/bot/tasks"
	"github.com/edgard/cotebot/internal/config"
)

func TestJobDefinition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{name: "daily time", schedule: "09:05"},
		{name: "cron five fields", schedule: "0 4 * * 0"},
		{name: "cron six fields", schedule: "30 0 4 * * 0"},
		{name: "empty", schedule: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			def, err := jobDefinition(tt.schedule)
			if (err != nil) != tt.wantErr {
				t.Fatalf("jobDefinition(%q) error = %v, wantErr %v", tt.schedule, err, tt.wantErr)
			}
			if !tt.wantErr && def == nil {
				t.Errorf("jobDefinition(%q) returned nil definition", tt.schedule)
			}
		})
	}
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		config.TaskDailySummary:    {Enabled: true, Schedule: "09:05"},
		config.TaskSQLMaintenance:  {Enabled: true, Schedule: "0 4 * * 0"},
		config.TaskMessageLogPrune: {Enabled: false, Schedule: "00:05"},
		"unregistered":             {Enabled: true, Schedule: "00:00"},
		"bad_schedule":             {Enabled: true, Schedule: "not a schedule"},
	}}
	taskMap := map[string]tasks.ScheduledTaskFunc{
		config.TaskDailySummary:    noop,
		config.TaskSQLMaintenance:  noop,
		config.TaskMessageLogPrune: noop,
		"bad_schedule":             noop,
	}

	s, err := NewScheduler(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg, time.UTC, taskMap)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start() error = nil")
	}

	names := s.JobNames()
	slices.Sort(names)
	want := []string{config.TaskDailySummary, config.TaskSQLMaintenance}
	if !slices.Equal(names, want) {
		t.Errorf("JobNames() = %v, want %v", names, want)
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
