package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { Close(db, nil) })

	return NewStore(db, nil)
}

func TestMessageLog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	messages := []Message{
		{ChatID: "-100", MessageID: "1", UserID: 10, AuthorName: "alice", Content: "yesterday", Timestamp: base.Add(-time.Hour).UnixMilli()},
		{ChatID: "-100", MessageID: "3", UserID: 20, AuthorName: "bob", Content: "second", Timestamp: base.Add(2 * time.Hour).UnixMilli()},
		{ChatID: "-100", MessageID: "2", UserID: 10, AuthorName: "alice", Content: "first", Timestamp: base.Add(time.Hour).UnixMilli()},
		{ChatID: "-200", MessageID: "4", UserID: 10, AuthorName: "alice", Content: "elsewhere", Timestamp: base.Add(time.Hour).UnixMilli()},
	}
	for i := range messages {
		if err := store.SaveMessage(ctx, &messages[i]); err != nil {
			t.Fatalf("SaveMessage(%d) error = %v", i, err)
		}
		if messages[i].ID == 0 {
			t.Errorf("SaveMessage(%d) did not set ID", i)
		}
	}

	got, err := store.GetMessagesSince(ctx, "-100", base)
	if err != nil {
		t.Fatalf("GetMessagesSince() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetMessagesSince() returned %d messages, want 2", len(got))
	}
	if got[0].Content != "first" || got[1].Content != "second" {
		t.Errorf("GetMessagesSince() order = %q, %q; want first, second", got[0].Content, got[1].Content)
	}
	if !got[0].Time().Equal(base.Add(time.Hour)) {
		t.Errorf("Time() = %s, want %s", got[0].Time(), base.Add(time.Hour))
	}

	deleted, err := store.DeleteMessagesBefore(ctx, base)
	if err != nil {
		t.Fatalf("DeleteMessagesBefore() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteMessagesBefore() deleted %d rows, want 1", deleted)
	}
}

func TestSaveMessageValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	now := time.Now().UnixMilli()

	tests := []struct {
		name string
		msg  *Message
	}{
		{name: "nil message", msg: nil},
		{name: "missing chat", msg: &Message{UserID: 1, Content: "x", Timestamp: now}},
		{name: "missing user", msg: &Message{ChatID: "1", Content: "x", Timestamp: now}},
		{name: "missing content", msg: &Message{ChatID: "1", UserID: 1, Timestamp: now}},
		{name: "missing timestamp", msg: &Message{ChatID: "1", UserID: 1, Content: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.SaveMessage(ctx, tt.msg); err == nil {
				t.Error("SaveMessage() error = nil, want validation error")
			}
		})
	}
}

func TestKnownUsers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	name, err := store.GetKnownUserName(ctx, 42)
	if err != nil || name != "" {
		t.Fatalf("GetKnownUserName(unknown) = %q, %v; want empty, nil", name, err)
	}

	if err := store.UpsertKnownUser(ctx, 42, "old"); err != nil {
		t.Fatalf("UpsertKnownUser() error = %v", err)
	}
	if err := store.UpsertKnownUser(ctx, 42, "new"); err != nil {
		t.Fatalf("UpsertKnownUser() error = %v", err)
	}

	name, err = store.GetKnownUserName(ctx, 42)
	if err != nil || name != "new" {
		t.Errorf("GetKnownUserName() = %q, %v; want new, nil", name, err)
	}
}

func TestTrackedUsers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	for _, id := range []int64{30, 10, 20, 10} {
		if err := store.AddTrackedUser(ctx, id); err != nil {
			t.Fatalf("AddTrackedUser(%d) error = %v", id, err)
		}
	}
	if err := store.RemoveTrackedUser(ctx, 20); err != nil {
		t.Fatalf("RemoveTrackedUser() error = %v", err)
	}
	if err := store.RemoveTrackedUser(ctx, 99); err != nil {
		t.Fatalf("RemoveTrackedUser(absent) error = %v", err)
	}

	ids, err := store.ListTrackedUsers(ctx)
	if err != nil {
		t.Fatalf("ListTrackedUsers() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != 30 || ids[1] != 10 {
		t.Errorf("ListTrackedUsers() = %v, want [30 10]", ids)
	}

	if err := store.RunSQLMaintenance(ctx); err != nil {
		t.Errorf("RunSQLMaintenance() error = %v", err)
	}
}

func TestDatabaseName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dsn  string
		want string
	}{
		{dsn: "cotebot.db", want: "cotebot.db"},
		{dsn: "file:cotebot.db", want: "cotebot.db"},
		{dsn: "file:/var/lib/cotebot.db?_pragma=busy_timeout(5000)", want: "/var/lib/cotebot.db"},
		{dsn: "data/my%20bot.db", want: "data/my bot.db"},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			t.Parallel()
			if got := databaseName(tt.dsn); got != tt.want {
				t.Errorf("databaseName(%q) = %q, want %q", tt.dsn, got, tt.want)
			}
		})
	}
}
