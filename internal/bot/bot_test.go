package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/edgard/cotebot/internal/authz"
	"github.com/edgard/cotebot/internal/bot/handlers"
	"github.com/edgard/cotebot/internal/chat"
	"github.com/edgard/cotebot/internal/config"
	"github.com/edgard/cotebot/internal/domain/model"
)

type fakePlatform struct {
	incoming  []chat.Incoming
	listenErr error
	sent      []string
}

func (f *fakePlatform) History(context.Context, string, time.Time) ([]model.Message, error) {
	return nil, nil
}

func (f *fakePlatform) Send(_ context.Context, _ string, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakePlatform) DisplayName(_ context.Context, _ string, id model.UserID) string {
	return id.String()
}

func (f *fakePlatform) Listen(ctx context.Context, handle chat.IncomingHandler) error {
	for _, msg := range f.incoming {
		handle(ctx, msg)
	}
	if f.listenErr != nil {
		return f.listenErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakePlatform) Close() error { return nil }

type nopRunner struct{}

func (nopRunner) Run(context.Context) error { return nil }

func newTestBot(t *testing.T, platform *fakePlatform, auth authz.Store) *Bot {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := handlers.NewRouter(handlers.HandlerDeps{
		Logger:   log,
		Config:   &config.Config{Commands: config.DefaultCommands, Messages: config.DefaultMessages},
		Auth:     auth,
		Pipeline: nopRunner{},
		Chat:     platform,
	})
	s, err := NewScheduler(log, &config.SchedulerConfig{}, time.UTC, nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewBot(log, platform, router, s)
}

func TestBotRunDispatchesAndStops(t *testing.T) {
	t.Parallel()

	auth, _ := authz.NewStaticStore("")
	platform := &fakePlatform{incoming: []chat.Incoming{{Message: model.Message{
		ChannelID: "c", AuthorID: 1, AuthorName: "민수", Content: "!인증목록",
	}}}}
	b := newTestBot(t, platform, auth)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := b.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(platform.sent) != 1 || platform.sent[0] != config.DefaultMessages.NoTrackedUsers {
		t.Errorf("sent = %q", platform.sent)
	}
}

func TestBotRunListenerFailure(t *testing.T) {
	t.Parallel()

	auth, _ := authz.NewStaticStore("")
	platform := &fakePlatform{listenErr: errors.New("gateway closed")}
	b := newTestBot(t, platform, auth)

	if err := b.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want listener failure")
	}
}
