package authz

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/edgard/cotebot/internal/database"
	"github.com/edgard/cotebot/internal/domain/model"
)

// SQLStore keeps the tracked users in the tracked_users table and mirrors
// them in memory for Contains and Snapshot.
type SQLStore struct {
	db     database.Store
	set    *memberSet
	logger *slog.Logger
}

// NewSQLStore returns a store backed by db. Call Load before use.
func NewSQLStore(db database.Store, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SQLStore{
		db:     db,
		set:    newMemberSet(),
		logger: logger.With("component", "authz", "store", "database"),
	}
}

// Load refreshes the in-memory copy. A query failure leaves the set empty.
func (s *SQLStore) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows, err := s.db.ListTrackedUsers(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load tracked users, starting empty", "error", err)
		rows = nil
	}

	ids := make([]model.UserID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, model.UserID(r))
	}

	s.set.mu.Lock()
	s.set.reset(ids)
	s.set.mu.Unlock()
	return nil
}

// Contains reports whether id is tracked.
func (s *SQLStore) Contains(id model.UserID) bool { return s.set.contains(id) }

// Snapshot returns the tracked users in insertion order.
func (s *SQLStore) Snapshot() []model.UserID { return s.set.snapshot() }

// Add inserts the row, then the in-memory entry.
func (s *SQLStore) Add(ctx context.Context, id model.UserID) error {
	s.set.mu.Lock()
	defer s.set.mu.Unlock()
	if err := s.db.AddTrackedUser(ctx, int64(id)); err != nil {
		return fmt.Errorf("failed to persist tracked user: %w", err)
	}
	s.set.add(id)
	return nil
}

// Remove deletes the row, then the in-memory entry.
func (s *SQLStore) Remove(ctx context.Context, id model.UserID) error {
	s.set.mu.Lock()
	defer s.set.mu.Unlock()
	if err := s.db.RemoveTrackedUser(ctx, int64(id)); err != nil {
		return fmt.Errorf("failed to remove tracked user: %w", err)
	}
	s.set.remove(id)
	return nil
}
