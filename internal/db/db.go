package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	database, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(database); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return database, nil
}

func runMigrations(database *sqlx.DB) error {
	// Ids come from the in-memory store, not a sequence: the archive
	// mirrors the authoritative record, it does not assign identity.
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS archived_messages (
            id BIGINT PRIMARY KEY,
            author_id BIGINT NOT NULL,
            author_name TEXT NOT NULL,
            avatar TEXT NOT NULL DEFAULT '',
            body TEXT NOT NULL DEFAULT '',
            file_url TEXT NOT NULL DEFAULT '',
            is_private BOOLEAN NOT NULL DEFAULT FALSE,
            recipient_id BIGINT,
            recipient_name TEXT NOT NULL DEFAULT '',
            reply_to BIGINT,
            deleted BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_archived_messages_created_at
            ON archived_messages (created_at);`,
	}

	for _, m := range migrations {
		if _, err := database.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
