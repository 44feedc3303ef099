package models

import "time"

// Message is the authoritative record of a chat message. Records are
// immutable once appended except for the Deleted flag, which only
// ever moves false to true. Deleted records are retained so a later
// delete broadcast stays matchable by id on every client.
type Message struct {
	ID            int64     `db:"id" json:"id"`
	AuthorID      int64     `db:"author_id" json:"user_id"`
	AuthorName    string    `db:"author_name" json:"username"`
	Avatar        string    `db:"avatar" json:"avatar"`
	Body          string    `db:"body" json:"message"`
	FileURL       string    `db:"file_url" json:"file_url,omitempty"`
	Private       bool      `db:"is_private" json:"is_private"`
	RecipientID   *int64    `db:"recipient_id" json:"recipient_id,omitempty"`
	RecipientName string    `db:"recipient_name" json:"recipient_username,omitempty"`
	ReplyTo       *int64    `db:"reply_to" json:"reply_to,omitempty"`
	Deleted       bool      `db:"deleted" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"-"`
}

// DayCount is one bucket of the per-day message histogram.
type DayCount struct {
	Day   string `db:"day" json:"day"`
	Count int    `db:"count" json:"count"`
}

// TopAuthor is the most active author in the archive.
type TopAuthor struct {
	Username string `db:"author_name" json:"username"`
	Count    int    `db:"count" json:"count"`
}

// ArchiveStats aggregates archive-wide counters for the stats endpoint.
type ArchiveStats struct {
	TotalMessages int        `json:"total_messages"`
	TotalPrivate  int        `json:"total_private_messages"`
	PerDay        []DayCount `json:"per_day"`
	TopAuthor     *TopAuthor `json:"top_author,omitempty"`
}
