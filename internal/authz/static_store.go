package authz

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/edgard/cotebot/internal/domain/model"
)

// StaticStore is a read-only list parsed from configuration.
type StaticStore struct {
	set *memberSet
}

// NewStaticStore parses a list of decimal IDs separated by commas, semicolons
// or whitespace. Duplicates keep their first position. An unparsable token is
// an error.
func NewStaticStore(list string) (*StaticStore, error) {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})

	ids := make([]model.UserID, 0, len(fields))
	for _, f := range fields {
		id, err := model.ParseUserID(f)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q in static authorization list: %w", f, err)
		}
		ids = append(ids, id)
	}

	s := &StaticStore{set: newMemberSet()}
	s.set.reset(ids)
	return s, nil
}

// Load is a no-op; the list never changes after startup.
func (s *StaticStore) Load(ctx context.Context) error { return ctx.Err() }

// Contains reports whether id is listed.
func (s *StaticStore) Contains(id model.UserID) bool { return s.set.contains(id) }

// Snapshot returns the listed users in configuration order.
func (s *StaticStore) Snapshot() []model.UserID { return s.set.snapshot() }

// Add always fails with ErrImmutable.
func (s *StaticStore) Add(context.Context, model.UserID) error { return ErrImmutable }

// Remove always fails with ErrImmutable.
func (s *StaticStore) Remove(context.Context, model.UserID) error { return ErrImmutable }
