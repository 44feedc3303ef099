package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-sync-service/internal/models"
)

// MessageArchive mirrors the authoritative message store into durable
// history for later fetches and aggregate stats.
type MessageArchive interface {
	RecordMessage(ctx context.Context, msg models.Message) error
	MarkDeleted(ctx context.Context, messageID int64) error
	ListRecentForUser(ctx context.Context, userID int64, limit int) ([]models.Message, error)
	Stats(ctx context.Context) (models.ArchiveStats, error)
	MaxMessageID(ctx context.Context) (int64, error)
}

// ArchiveRepo is a sqlx-backed archive.
type ArchiveRepo struct {
	db *sqlx.DB
}

// NewArchiveRepo constructs ArchiveRepo.
func NewArchiveRepo(db *sqlx.DB) *ArchiveRepo {
	return &ArchiveRepo{db: db}
}

// RecordMessage stores one message under the id the store assigned.
func (r *ArchiveRepo) RecordMessage(ctx context.Context, msg models.Message) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO archived_messages
        (id, author_id, author_name, avatar, body, file_url, is_private, recipient_id, recipient_name, reply_to, deleted, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (id) DO NOTHING`,
		msg.ID, msg.AuthorID, msg.AuthorName, msg.Avatar, msg.Body, msg.FileURL,
		msg.Private, msg.RecipientID, msg.RecipientName, msg.ReplyTo, msg.Deleted, msg.CreatedAt)
	return err
}

// MarkDeleted flips the archived copy's deleted flag.
func (r *ArchiveRepo) MarkDeleted(ctx context.Context, messageID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE archived_messages SET deleted = TRUE WHERE id=$1`, messageID)
	return err
}

// ListRecentForUser returns the newest messages visible to a user:
// public ones plus private ones the user sent or received. Deleted
// messages are filtered out. Rows come back newest first.
func (r *ArchiveRepo) ListRecentForUser(ctx context.Context, userID int64, limit int) ([]models.Message, error) {
	query := `SELECT id, author_id, author_name, avatar, body, file_url, is_private, recipient_id, recipient_name, reply_to, deleted, created_at
        FROM archived_messages
        WHERE deleted = FALSE
        AND (is_private = FALSE OR author_id = $1 OR recipient_id = $1)
        ORDER BY id DESC
        LIMIT $2`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, userID, limit)
	return msgs, err
}

// Stats aggregates archive-wide counters.
func (r *ArchiveRepo) Stats(ctx context.Context) (models.ArchiveStats, error) {
	var stats models.ArchiveStats

	if err := r.db.GetContext(ctx, &stats.TotalMessages,
		`SELECT COUNT(*) FROM archived_messages`); err != nil {
		return models.ArchiveStats{}, err
	}
	if err := r.db.GetContext(ctx, &stats.TotalPrivate,
		`SELECT COUNT(*) FROM archived_messages WHERE is_private = TRUE`); err != nil {
		return models.ArchiveStats{}, err
	}

	perDay := `SELECT to_char(created_at, 'YYYY-MM-DD') AS day, COUNT(*) AS count
        FROM archived_messages
        WHERE created_at >= NOW() - INTERVAL '7 days'
        GROUP BY day
        ORDER BY day`
	if err := r.db.SelectContext(ctx, &stats.PerDay, perDay); err != nil {
		return models.ArchiveStats{}, err
	}

	var top models.TopAuthor
	topQuery := `SELECT author_name, COUNT(*) AS count
        FROM archived_messages
        GROUP BY author_name
        ORDER BY count DESC
        LIMIT 1`
	err := r.db.GetContext(ctx, &top, topQuery)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Empty archive, no top author.
	case err != nil:
		return models.ArchiveStats{}, err
	default:
		stats.TopAuthor = &top
	}

	return stats, nil
}

// MaxMessageID returns the highest archived id, used to seed the
// store's id counter after a restart.
func (r *ArchiveRepo) MaxMessageID(ctx context.Context) (int64, error) {
	var maxID sql.NullInt64
	if err := r.db.GetContext(ctx, &maxID, `SELECT MAX(id) FROM archived_messages`); err != nil {
		return 0, err
	}
	return maxID.Int64, nil
}
