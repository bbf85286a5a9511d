// Package authz holds the set of tracked users whose messages are summarized.
// The set is backed by a JSON file, a static list from configuration, or the
// sqlite database.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/edgard/cotebot/internal/config"
	"github.com/edgard/cotebot/internal/database"
	"github.com/edgard/cotebot/internal/domain/model"
)

// ErrImmutable is returned by Add and Remove on stores managed by configuration.
var ErrImmutable = errors.New("authorization list is read-only")

// Store is the set of tracked users.
type Store interface {
	// Load re-reads the backing state. A missing or unreadable backing store
	// leaves the set empty and is logged, not returned.
	Load(ctx context.Context) error
	// Contains reports membership. Unknown IDs are simply absent.
	Contains(id model.UserID) bool
	// Snapshot returns a copy of the members in insertion order.
	Snapshot() []model.UserID
	// Add inserts id and persists the set.
	Add(ctx context.Context, id model.UserID) error
	// Remove deletes id and persists the set.
	Remove(ctx context.Context, id model.UserID) error
}

// New builds the store selected by cfg.Mode. db is only required in
// database mode.
func New(cfg config.AuthConfig, db database.Store, logger *slog.Logger) (Store, error) {
	switch cfg.Mode {
	case config.AuthModeFile:
		return NewFileStore(cfg.FilePath, logger), nil
	case config.AuthModeStatic:
		return NewStaticStore(cfg.UserIDs)
	case config.AuthModeDatabase:
		if db == nil {
			return nil, fmt.Errorf("database auth mode requires a database store")
		}
		return NewSQLStore(db, logger), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// memberSet is an insertion-ordered set of user IDs. Callers hold the lock.
type memberSet struct {
	mu    sync.RWMutex
	order []model.UserID
	index map[model.UserID]struct{}
}

func newMemberSet() *memberSet {
	return &memberSet{index: make(map[model.UserID]struct{})}
}

// reset replaces the contents, dropping duplicates while keeping first position.
func (s *memberSet) reset(ids []model.UserID) {
	s.order = s.order[:0]
	s.index = make(map[model.UserID]struct{}, len(ids))
	for _, id := range ids {
		s.add(id)
	}
}

func (s *memberSet) add(id model.UserID) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *memberSet) remove(id model.UserID) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *memberSet) contains(id model.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

func (s *memberSet) snapshot() []model.UserID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.UserID, len(s.order))
	copy(out, s.order)
	return out
}
