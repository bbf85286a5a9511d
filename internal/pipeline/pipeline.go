// Package pipeline runs one fetch, filter, summarize, compose and deliver
// cycle. Manual and scheduled triggers share the same Pipeline so runs never
// overlap.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/edgard/cotebot/internal/activity"
	"github.com/edgard/cotebot/internal/authz"
	"github.com/edgard/cotebot/internal/chat"
	"github.com/edgard/cotebot/internal/domain/model"
	"github.com/edgard/cotebot/internal/report"
	"github.com/edgard/cotebot/internal/summary"
)

// ErrRunTimeout is returned when a run exceeds its deadline. Nothing is
// delivered in that case.
var ErrRunTimeout = errors.New("summary run deadline exceeded")

// Options configures a Pipeline.
type Options struct {
	ReadChannelID    string
	WriteChannelID   string
	Keyword          string
	Commands         []string
	RunTimeout       time.Duration
	Concurrency      int
	MaxMessageLength int
	Location         *time.Location
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Logger     *slog.Logger
	Auth       authz.Store
	Source     chat.Source
	Sink       chat.Sink
	Directory  chat.Directory
	Summarizer *summary.Summarizer
	Composer   *report.Composer
}

// Pipeline produces and delivers the daily report.
type Pipeline struct {
	opts   Options
	deps   Deps
	lock   *semaphore.Weighted
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Pipeline.
func New(opts Options, deps Deps) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.WriteChannelID == "" {
		opts.WriteChannelID = opts.ReadChannelID
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		opts:   opts,
		deps:   deps,
		lock:   semaphore.NewWeighted(1),
		now:    time.Now,
		logger: logger.With("component", "pipeline"),
	}
}

// Run executes one pipeline run. It waits for any run in progress to finish
// first. Only a missing channel, the run deadline, a delivery failure or
// cancellation of ctx produce an error; per-user failures are rendered into
// the report.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.lock.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for previous run: %w", err)
	}
	defer p.lock.Release(1)

	runCtx, cancel := context.WithTimeout(ctx, p.opts.RunTimeout)
	defer cancel()

	start := p.now()
	since := activity.StartOfDay(start, p.opts.Location)
	ids := p.deps.Auth.Snapshot()

	log := p.logger.With("read_channel", p.opts.ReadChannelID, "write_channel", p.opts.WriteChannelID)
	log.InfoContext(ctx, "Starting summary run", "tracked_users", len(ids), "since", since)

	msgs, err := p.deps.Source.History(runCtx, p.opts.ReadChannelID, since)
	if err != nil {
		if errors.Is(err, chat.ErrChannelNotFound) {
			log.ErrorContext(ctx, "Channel not found, aborting run", "error", err)
			return err
		}
		if runErr := p.runError(ctx, runCtx); runErr != nil {
			log.ErrorContext(ctx, "Run aborted while fetching history", "error", runErr)
			return runErr
		}
		log.ErrorContext(ctx, "Failed to fetch channel history", "error", err)
		return fmt.Errorf("failed to fetch channel history: %w", err)
	}
	log.DebugContext(ctx, "Fetched activity window", "messages", len(msgs))

	users := make([]model.TrackedUser, len(ids))
	for i, id := range ids {
		users[i] = model.TrackedUser{
			ID:          id,
			DisplayName: p.deps.Directory.DisplayName(runCtx, p.opts.ReadChannelID, id),
		}
	}

	// Results are written by index so the report keeps snapshot order
	// regardless of completion order.
	results := make([]model.Summary, len(users))
	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)
	for i, user := range users {
		g.Go(func() error {
			filtered := activity.Filter(msgs, user.ID, p.opts.Keyword, p.opts.Commands)
			results[i] = p.deps.Summarizer.Summarize(runCtx, user, filtered)
			return nil
		})
	}
	_ = g.Wait()

	if runErr := p.runError(ctx, runCtx); runErr != nil {
		log.ErrorContext(ctx, "Run aborted before delivery", "error", runErr)
		return runErr
	}

	text := p.deps.Composer.Compose(results, start.In(p.opts.Location))
	chunks := report.Split(text, p.opts.MaxMessageLength)
	for i, chunk := range chunks {
		if err := p.deps.Sink.Send(runCtx, p.opts.WriteChannelID, chunk); err != nil {
			if runErr := p.runError(ctx, runCtx); runErr != nil {
				return runErr
			}
			log.ErrorContext(ctx, "Failed to deliver report", "chunk", i+1, "chunks", len(chunks), "error", err)
			return fmt.Errorf("failed to deliver report chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	log.InfoContext(ctx, "Summary run finished",
		"duration", p.now().Sub(start),
		"outcomes", outcomeCounts(results),
		"chunks", len(chunks))
	return nil
}

// runError maps an expired run context to ErrRunTimeout, or to the parent's
// cancellation error.
func (p *Pipeline) runError(parent, runCtx context.Context) error {
	if runCtx.Err() == nil {
		return nil
	}
	if parent.Err() != nil {
		return parent.Err()
	}
	return fmt.Errorf("%w (%s)", ErrRunTimeout, p.opts.RunTimeout)
}

func outcomeCounts(results []model.Summary) map[string]int {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Outcome.String()]++
	}
	return counts
}
