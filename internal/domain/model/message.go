// Package model contains the core domain entities for the cotebot application.
// These models represent the core business objects and are independent of external concerns.
package model

import (
	"strconv"
	"time"
)

// UserID is an opaque numeric participant identifier. Discord snowflakes and
// Telegram user IDs both fit in it.
type UserID int64

// String returns the decimal form of the ID.
func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseUserID parses the decimal form produced by String.
func ParseUserID(s string) (UserID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return UserID(v), nil
}

// Message is a read-only snapshot of a chat message pulled from the platform
// for a single pipeline run. It is never cached across runs.
type Message struct {
	ID         string
	ChannelID  string
	AuthorID   UserID
	AuthorName string
	Content    string
	Timestamp  time.Time
}
