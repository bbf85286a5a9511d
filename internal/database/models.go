package database

import "time"

// Message is one row of the Telegram message log. Timestamps are stored as
// unix milliseconds so range queries compare integers.
type Message struct {
	ID         int64  `db:"id"`
	ChatID     string `db:"chat_id"`
	MessageID  string `db:"message_id"`
	UserID     int64  `db:"user_id"`
	AuthorName string `db:"author_name"`
	Content    string `db:"content"`
	Timestamp  int64  `db:"timestamp"`
	CreatedAt  int64  `db:"created_at"`
}

// Time returns the message timestamp as a time.Time in UTC.
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp).UTC()
}

