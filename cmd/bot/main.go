// Package main contains the entrypoint for the cotebot chat-summary bot.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/edgard/cotebot/internal/authz"
	"github.com/edgard/cotebot/internal/bot"
	"github.com/edgard/cotebot/internal/bot/handlers"
	"github.com/edgard/cotebot/internal/bot/tasks"
	"github.com/edgard/cotebot/internal/chat"
	"github.com/edgard/cotebot/internal/config"
	"github.com/edgard/cotebot/internal/database"
	"github.com/edgard/cotebot/internal/discord"
	"github.com/edgard/cotebot/internal/llm"
	"github.com/edgard/cotebot/internal/logger"
	"github.com/edgard/cotebot/internal/pipeline"
	"github.com/edgard/cotebot/internal/report"
	"github.com/edgard/cotebot/internal/summary"
	"github.com/edgard/cotebot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all components, runs the bot (or a single pipeline run in
// -once mode) and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Path to an optional dotenv file")
	once := flag.Bool("once", false, "Run the summary pipeline once and exit")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Failed to load dotenv file", "path", *envPath, "error", err)
		return 1
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	var store database.Store
	if cfg.UsesDatabase() {
		db, err := database.Open(ctx, cfg.Database.Path, log)
		if err != nil {
			log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
			return 1
		}
		defer database.Close(db, log)
		store = database.NewStore(db, log)
	}

	auth, err := authz.New(cfg.Auth, store, log)
	if err != nil {
		log.Error("Failed to initialize authorization store", "mode", cfg.Auth.Mode, "error", err)
		return 1
	}
	if err := auth.Load(ctx); err != nil {
		log.Error("Failed to load authorization store", "error", err)
		return 1
	}
	log.Info("Authorization store ready", "mode", cfg.Auth.Mode, "tracked_users", len(auth.Snapshot()))

	llmClient, err := llm.NewClient(ctx, cfg.LLM, log)
	if err != nil {
		log.Error("Failed to initialize LLM client", "error", err)
		return 1
	}

	platform, err := newPlatform(ctx, cfg, store, log)
	if err != nil {
		log.Error("Failed to connect to chat platform", "platform", cfg.Platform, "error", err)
		return 1
	}
	defer func() {
		if err := platform.Close(); err != nil {
			log.Error("Error closing chat platform", "error", err)
		}
	}()

	p := pipeline.New(pipeline.Options{
		ReadChannelID:    cfg.Summary.ReadChannelID,
		WriteChannelID:   cfg.Summary.WriteChannelID,
		Keyword:          cfg.Summary.Keyword,
		Commands:         cfg.Commands.Words(),
		RunTimeout:       cfg.Summary.RunTimeout,
		Concurrency:      cfg.Summary.Concurrency,
		MaxMessageLength: cfg.MaxMessageLength(),
		Location:         cfg.Location(),
	}, pipeline.Deps{
		Logger:     log,
		Auth:       auth,
		Source:     platform,
		Sink:       platform,
		Directory:  platform,
		Summarizer: summary.New(llmClient, cfg.Summary.CallTimeout, log),
		Composer:   report.NewComposer(cfg.Summary, cfg.Messages),
	})

	if *once {
		log.Info("Running summary pipeline once...")
		if err := p.Run(ctx); err != nil {
			log.Error("Summary run failed", "error", err)
			return 1
		}
		log.Info("Summary run completed.")
		return 0
	}

	router := handlers.NewRouter(handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Auth:     auth,
		Pipeline: p,
		Chat:     platform,
	})
	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:   log,
		Config:   cfg,
		Pipeline: p,
		Store:    store,
	})
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, cfg.Location(), taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, platform, router, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}

// newPlatform connects the configured chat platform.
func newPlatform(ctx context.Context, cfg *config.Config, store database.Store, log *slog.Logger) (chat.Platform, error) {
	switch cfg.Platform {
	case config.PlatformTelegram:
		return telegram.New(cfg.Telegram.Token, store, cfg.Summary.ReadChannelID, log)
	default:
		dc, err := discord.New(cfg.Discord.Token, log)
		if err != nil {
			return nil, err
		}
		if err := dc.Open(ctx); err != nil {
			return nil, err
		}
		return dc, nil
	}
}
