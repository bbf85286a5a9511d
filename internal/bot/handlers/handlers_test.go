package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/edgard/cotebot/internal/authz"
	"github.com/edgard/cotebot/internal/chat"
	"github.com/edgard/cotebot/internal/config"
	"github.com/edgard/cotebot/internal/domain/model"
)

type fakeChat struct {
	mu    sync.Mutex
	sent  []string
	names map[model.UserID]string
}

func (f *fakeChat) Send(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeChat) DisplayName(_ context.Context, _ string, id model.UserID) string {
	if name, ok := f.names[id]; ok {
		return name
	}
	return id.String()
}

type fakeRunner struct {
	runs int
	err  error
}

func (f *fakeRunner) Run(context.Context) error {
	f.runs++
	return f.err
}

func newDeps(t *testing.T, auth authz.Store) (HandlerDeps, *fakeChat, *fakeRunner) {
	t.Helper()
	c := &fakeChat{names: map[model.UserID]string{1: "민수", 2: "지연"}}
	r := &fakeRunner{}
	return HandlerDeps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:   &config.Config{Commands: config.DefaultCommands, Messages: config.DefaultMessages},
		Auth:     auth,
		Pipeline: r,
		Chat:     c,
	}, c, r
}

func incoming(author model.UserID, name, content string) chat.Incoming {
	return chat.Incoming{Message: model.Message{
		ChannelID:  "chan",
		AuthorID:   author,
		AuthorName: name,
		Content:    content,
	}}
}

func TestRouterCommands(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	auth := authz.NewFileStore(filepath.Join(t.TempDir(), "authorized_users.json"), nil)
	deps, c, r := newDeps(t, auth)
	router := NewRouter(deps)

	router.Handle(ctx, incoming(1, "민수", "!인증"))
	if !auth.Contains(1) {
		t.Fatal("opt-in did not add the sender")
	}

	router.Handle(ctx, incoming(1, "민수", "!인증취소"))
	if auth.Contains(1) {
		t.Fatal("opt-out did not remove the sender; prefix matching regression")
	}

	router.Handle(ctx, incoming(2, "지연", "!요약 please"))
	if r.runs != 1 {
		t.Errorf("pipeline runs = %d, want 1", r.runs)
	}

	want := []string{"민수님이 인증되었습니다.", "민수님의 인증이 취소되었습니다."}
	if len(c.sent) != len(want) {
		t.Fatalf("replies = %q, want %q", c.sent, want)
	}
	for i := range want {
		if c.sent[i] != want[i] {
			t.Errorf("reply[%d] = %q, want %q", i, c.sent[i], want[i])
		}
	}
}

func TestRouterIgnores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  chat.Incoming
	}{
		{name: "plain text", msg: incoming(1, "a", "백준 1000 풀었어요")},
		{name: "empty", msg: incoming(1, "a", "   ")},
		{name: "command not first", msg: incoming(1, "a", "저도 !요약")},
		{name: "command suffix", msg: incoming(1, "a", "!요약해줘")},
		{name: "bot author", msg: chat.Incoming{Message: model.Message{Content: "!요약"}, AuthorBot: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			auth, _ := authz.NewStaticStore("")
			deps, c, r := newDeps(t, auth)
			NewRouter(deps).Handle(context.Background(), tt.msg)
			if r.runs != 0 || len(c.sent) != 0 {
				t.Errorf("message handled: runs=%d replies=%q", r.runs, c.sent)
			}
		})
	}
}

func TestOptInStaticStore(t *testing.T) {
	t.Parallel()

	auth, err := authz.NewStaticStore("1")
	if err != nil {
		t.Fatal(err)
	}
	deps, c, _ := newDeps(t, auth)
	NewRouter(deps).Handle(context.Background(), incoming(2, "지연", "!인증"))

	if auth.Contains(2) {
		t.Error("static store was mutated")
	}
	if len(c.sent) != 1 || c.sent[0] != config.DefaultMessages.AuthImmutable {
		t.Errorf("replies = %q, want immutable notice", c.sent)
	}
}

func TestSummarizeFailureSendsNothing(t *testing.T) {
	t.Parallel()

	auth, _ := authz.NewStaticStore("1")
	deps, c, r := newDeps(t, auth)
	r.err = errors.New("channel not found")

	NewRouter(deps).Handle(context.Background(), incoming(1, "민수", "!요약"))
	if r.runs != 1 {
		t.Errorf("runs = %d, want 1", r.runs)
	}
	if len(c.sent) != 0 {
		t.Errorf("replies = %q, want none", c.sent)
	}
}

func TestListHandler(t *testing.T) {
	t.Parallel()

	empty, _ := authz.NewStaticStore("")
	deps, c, _ := newDeps(t, empty)
	NewRouter(deps).Handle(context.Background(), incoming(1, "민수", "!인증목록"))
	if len(c.sent) != 1 || c.sent[0] != config.DefaultMessages.NoTrackedUsers {
		t.Errorf("replies = %q, want empty-list notice", c.sent)
	}

	listed, _ := authz.NewStaticStore("2,1,99")
	deps, c, _ = newDeps(t, listed)
	NewRouter(deps).Handle(context.Background(), incoming(1, "민수", "!인증목록"))
	want := "인증된 유저 목록:\n- 지연\n- 민수\n- 99"
	if len(c.sent) != 1 || c.sent[0] != want {
		t.Errorf("replies = %q, want %q", c.sent, want)
	}
}
