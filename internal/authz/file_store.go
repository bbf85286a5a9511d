package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/edgard/cotebot/internal/domain/model"
)

// FileStore keeps the tracked users in a JSON array of integer IDs.
type FileStore struct {
	path   string
	set    *memberSet
	logger *slog.Logger
}

// NewFileStore returns a store backed by the file at path. Call Load before use.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FileStore{
		path:   path,
		set:    newMemberSet(),
		logger: logger.With("component", "authz", "store", "file"),
	}
}

// Load reads the file. A missing or corrupt file yields the empty set.
func (s *FileStore) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var ids []model.UserID
	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		s.logger.InfoContext(ctx, "Authorization file not found, starting empty", "path", s.path)
	case err != nil:
		s.logger.ErrorContext(ctx, "Failed to read authorization file, starting empty", "path", s.path, "error", err)
	default:
		if err := json.Unmarshal(data, &ids); err != nil {
			s.logger.ErrorContext(ctx, "Corrupt authorization file, starting empty", "path", s.path, "error", err)
			ids = nil
		}
	}

	s.set.mu.Lock()
	s.set.reset(ids)
	count := len(s.set.order)
	s.set.mu.Unlock()

	s.logger.DebugContext(ctx, "Authorization file loaded", "path", s.path, "users", count)
	return nil
}

// Contains reports whether id is tracked.
func (s *FileStore) Contains(id model.UserID) bool { return s.set.contains(id) }

// Snapshot returns the tracked users in insertion order.
func (s *FileStore) Snapshot() []model.UserID { return s.set.snapshot() }

// Add rewrites the file with id appended, then updates memory. The set is
// unchanged when the write fails.
func (s *FileStore) Add(ctx context.Context, id model.UserID) error {
	s.set.mu.Lock()
	defer s.set.mu.Unlock()
	if _, ok := s.set.index[id]; ok {
		return nil
	}
	if err := s.save(ctx, append(slices.Clone(s.set.order), id)); err != nil {
		return err
	}
	s.set.add(id)
	return nil
}

// Remove rewrites the file without id, then updates memory. The set is
// unchanged when the write fails.
func (s *FileStore) Remove(ctx context.Context, id model.UserID) error {
	s.set.mu.Lock()
	defer s.set.mu.Unlock()
	if _, ok := s.set.index[id]; !ok {
		return nil
	}
	next := slices.DeleteFunc(slices.Clone(s.set.order), func(v model.UserID) bool { return v == id })
	if err := s.save(ctx, next); err != nil {
		return err
	}
	s.set.remove(id)
	return nil
}

// save writes ids to a temp file next to the target and renames it into
// place. The caller holds the write lock.
func (s *FileStore) save(ctx context.Context, ids []model.UserID) error {
	if ids == nil {
		ids = []model.UserID{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode authorization list: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create authorization directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp authorization file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write authorization file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close authorization file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace authorization file: %w", err)
	}

	s.logger.DebugContext(ctx, "Authorization file saved", "path", s.path, "users", len(ids))
	return nil
}
