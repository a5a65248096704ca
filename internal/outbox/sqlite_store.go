package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the queue in a local sqlite database, for devices
// where a single growing JSON blob is not wanted. It keeps the same
// whole-list save discipline as FileStore: one transaction replaces the
// full queue, preserving insertion order via the position column.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("db path cannot be empty")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS outbox_action (
			position    INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL,
			method      TEXT NOT NULL,
			target      TEXT NOT NULL,
			payload     BLOB,
			retry_count INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create outbox table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (_ []Action, err error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, method, target, payload, retry_count, created_at
		FROM outbox_action
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query outbox actions: %w", err)
	}
	defer rows.Close()

	actions := make([]Action, 0)
	for rows.Next() {
		var action Action
		var createdAt string
		if err := rows.Scan(
			&action.ID, &action.Method, &action.Target,
			&action.Payload, &action.RetryCount, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox action: %w", err)
		}
		action.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created at of action %s: %w", action.ID, err)
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return actions, nil
}

func (s *SQLiteStore) Save(ctx context.Context, actions []Action) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM outbox_action`); err != nil {
		return fmt.Errorf("clear outbox actions: %w", err)
	}

	for _, action := range actions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO outbox_action (id, method, target, payload, retry_count, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			action.ID, action.Method, action.Target,
			[]byte(action.Payload), action.RetryCount,
			action.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert action %s: %w", action.ID, err)
		}
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
