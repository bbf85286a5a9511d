// Package activity selects the messages that make up one day of activity.
package activity

import (
	"strings"
	"time"

	"github.com/edgard/cotebot/internal/domain/model"
)

// DefaultKeyword is the gate used by the keyword-filtered design.
const DefaultKeyword = "코딩테스트"

// StartOfDay returns local midnight of the day containing now in loc.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// InWindow reports whether ts falls inside the window starting at since.
func InWindow(ts, since time.Time) bool {
	return !ts.Before(since)
}

// IsCommand reports whether the first word of content is one of commands.
func IsCommand(content string, commands []string) bool {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return false
	}
	for _, c := range commands {
		if c != "" && fields[0] == c {
			return true
		}
	}
	return false
}

// Filter returns the messages authored by id, in their original order.
// Bot commands never count as activity. A non-empty keyword additionally
// requires the content to contain it, ignoring case.
func Filter(msgs []model.Message, id model.UserID, keyword string, commands []string) []model.Message {
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	var out []model.Message
	for _, m := range msgs {
		if m.AuthorID != id || IsCommand(m.Content, commands) {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(m.Content), keyword) {
			continue
		}
		out = append(out, m)
	}
	return out
}
