package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage appends a message to the message log.
	SaveMessage(ctx context.Context, message *Message) error

	// GetMessagesSince returns every logged message of chatID at or after since,
	// oldest first.
	GetMessagesSince(ctx context.Context, chatID string, since time.Time) ([]Message, error)

	// DeleteMessagesBefore removes logged messages older than before and
	// returns how many rows were deleted.
	DeleteMessagesBefore(ctx context.Context, before time.Time) (int64, error)

	// UpsertKnownUser records the latest display name seen for a user.
	UpsertKnownUser(ctx context.Context, userID int64, displayName string) error

	// GetKnownUserName returns the recorded display name, or "" when unknown.
	GetKnownUserName(ctx context.Context, userID int64) (string, error)

	// ListTrackedUsers returns tracked user IDs in insertion order.
	ListTrackedUsers(ctx context.Context) ([]int64, error)

	// AddTrackedUser inserts a tracked user; adding an existing user is a no-op.
	AddTrackedUser(ctx context.Context, userID int64) error

	// RemoveTrackedUser deletes a tracked user; removing an absent user is a no-op.
	RemoveTrackedUser(ctx context.Context, userID int64) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    time.Now,
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveMessage appends a message to the log after validating required fields.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.ChatID == "" {
		return fmt.Errorf("message must have a non-empty chat_id")
	}
	if message.UserID == 0 {
		return fmt.Errorf("message must have a non-zero user_id")
	}
	if message.Content == "" {
		return fmt.Errorf("message must have non-empty content")
	}
	if message.Timestamp == 0 {
		return fmt.Errorf("message must have a non-zero timestamp")
	}

	message.CreatedAt = s.now().UnixMilli()

	query := `
        INSERT INTO messages (chat_id, message_id, user_id, author_name, content, timestamp, created_at)
        VALUES (:chat_id, :message_id, :user_id, :author_name, :content, :timestamp, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "chat_id", message.ChatID, "user_id", message.UserID, "error", err)
		return fmt.Errorf("failed to save message (chat %s, user %d): %w", message.ChatID, message.UserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		message.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving message",
			"chat_id", message.ChatID, "user_id", message.UserID, "error", err)
	}

	s.logger.DebugContext(ctx, "Message saved successfully",
		"chat_id", message.ChatID, "user_id", message.UserID, "id", message.ID)
	return nil
}

// GetMessagesSince returns the logged messages of a chat inside the window.
func (s *sqlxStore) GetMessagesSince(ctx context.Context, chatID string, since time.Time) ([]Message, error) {
	if chatID == "" {
		return nil, fmt.Errorf("chat_id cannot be empty")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var messages []Message
	query := `
        SELECT id, chat_id, message_id, user_id, author_name, content, timestamp, created_at
        FROM messages
        WHERE chat_id = ? AND timestamp >= ?
        ORDER BY timestamp ASC, id ASC;
    `
	if err := s.db.SelectContext(ctx, &messages, query, chatID, since.UnixMilli()); err != nil {
		s.logger.ErrorContext(ctx, "Error getting messages since", "chat_id", chatID, "since", since, "error", err)
		return nil, fmt.Errorf("failed to get messages for chat %s: %w", chatID, err)
	}

	s.logger.DebugContext(ctx, "Retrieved messages since", "chat_id", chatID, "since", since, "count", len(messages))
	return messages, nil
}

// DeleteMessagesBefore prunes the message log.
func (s *sqlxStore) DeleteMessagesBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE timestamp < ?;`, before.UnixMilli())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning message log", "before", before, "error", err)
		return 0, fmt.Errorf("failed to delete messages before %s: %w", before.Format(time.RFC3339), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not read affected rows after pruning", "error", err)
		return 0, nil
	}
	s.logger.InfoContext(ctx, "Pruned message log", "before", before, "deleted", affected)
	return affected, nil
}

// UpsertKnownUser records the display name last seen for a user.
func (s *sqlxStore) UpsertKnownUser(ctx context.Context, userID int64, displayName string) error {
	if userID == 0 || displayName == "" {
		return fmt.Errorf("known user requires a user_id and a display name")
	}
	query := `
        INSERT INTO known_users (user_id, display_name, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET display_name = excluded.display_name, updated_at = excluded.updated_at;
    `
	if _, err := s.db.ExecContext(ctx, query, userID, displayName, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to upsert known user %d: %w", userID, err)
	}
	return nil
}

// GetKnownUserName returns "" and no error when the user was never seen.
func (s *sqlxStore) GetKnownUserName(ctx context.Context, userID int64) (string, error) {
	var name string
	err := s.db.GetContext(ctx, &name, `SELECT display_name FROM known_users WHERE user_id = ?;`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get known user %d: %w", userID, err)
	}
	return name, nil
}

// ListTrackedUsers returns tracked user IDs in the order they were added.
func (s *sqlxStore) ListTrackedUsers(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, `SELECT user_id FROM tracked_users ORDER BY id ASC;`); err != nil {
		return nil, fmt.Errorf("failed to list tracked users: %w", err)
	}
	return ids, nil
}

// AddTrackedUser inserts a tracked user unless already present.
func (s *sqlxStore) AddTrackedUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO tracked_users (user_id, created_at) VALUES (?, ?);`,
		userID, s.now().UnixMilli())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding tracked user", "user_id", userID, "error", err)
		return fmt.Errorf("failed to add tracked user %d: %w", userID, err)
	}
	return nil
}

// RemoveTrackedUser deletes a tracked user if present.
func (s *sqlxStore) RemoveTrackedUser(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tracked_users WHERE user_id = ?;`, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error removing tracked user", "user_id", userID, "error", err)
		return fmt.Errorf("failed to remove tracked user %d: %w", userID, err)
	}
	return nil
}

// RunSQLMaintenance runs PRAGMA optimize followed by VACUUM.
// VACUUM cannot run inside a transaction, so both are issued directly.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")
	startTime := time.Now()

	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		s.logger.WarnContext(ctx, "PRAGMA optimize failed, continuing with VACUUM", "error", err)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("database maintenance timed out: %w", err)
		}
		s.logger.ErrorContext(ctx, "VACUUM failed", "error", err)
		return fmt.Errorf("failed to vacuum database: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(startTime))
	return nil
}
