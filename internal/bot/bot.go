// Package bot wires the chat platform, the command router and the scheduler
// into one supervised process.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/cotebot/internal/bot/handlers"
	"github.com/edgard/cotebot/internal/chat"
)

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	platform  chat.Platform
	router    *handlers.Router
	scheduler *Scheduler
}

// NewBot creates a new instance of the bot.
func NewBot(logger *slog.Logger, platform chat.Platform, router *handlers.Router, scheduler *Scheduler) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		platform:  platform,
		router:    router,
		scheduler: scheduler,
	}
}

// Run starts the listener and the scheduler and blocks until ctx is cancelled
// or one of them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting chat listener...")

		err := b.platform.Listen(gCtx, b.router.Handle)
		b.logger.Info("Chat listener stopped.")

		if gCtx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("chat listener failed: %w", err)
		}
		b.logger.Warn("Chat listener stopped unexpectedly without context cancellation.")
		return fmt.Errorf("chat listener stopped unexpectedly")
	})

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(gCtx); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
