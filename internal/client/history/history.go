// Package history keeps a local log of finished uploads in a SQLite
// database next to the client, so past transfers survive restarts.
package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/akarpov/mediavault/internal/client/history/migrations"
	"github.com/akarpov/mediavault/internal/client/upload"
	"github.com/akarpov/mediavault/internal/dbx"
)

// Store records finished uploads. It satisfies upload.Recorder.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at dsn and applies any
// pending schema migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one finished upload to the log.
func (s *Store) Record(ctx context.Context, rec upload.HistoryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (task_id, name, hash, size, status, file_code, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.TaskID, rec.Name, rec.Hash, rec.Size, rec.Status, rec.FileCode, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert upload record: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]upload.HistoryRecord, error) {
	return listRecords(ctx, s.db, limit)
}

func listRecords(ctx context.Context, db dbx.DBTX, limit int) ([]upload.HistoryRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT task_id, name, hash, size, status, file_code, finished_at
		FROM uploads ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select upload records: %w", err)
	}
	defer rows.Close()

	var result []upload.HistoryRecord
	for rows.Next() {
		var rec upload.HistoryRecord
		if err := rows.Scan(&rec.TaskID, &rec.Name, &rec.Hash, &rec.Size,
			&rec.Status, &rec.FileCode, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan upload record: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate upload records: %w", err)
	}
	return result, nil
}
