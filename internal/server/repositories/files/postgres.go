package files

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/akarpov/mediavault/internal/api"
	"github.com/akarpov/mediavault/internal/common"
	"github.com/akarpov/mediavault/internal/dbx"
)

// PostgresRepository implements Repository over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, f *File) error {
	chunks, err := json.Marshal(f.Chunks)
	if err != nil {
		return fmt.Errorf("marshal chunk manifest: %w", err)
	}
	categories, err := json.Marshal(f.CategoryIDs)
	if err != nil {
		return fmt.Errorf("marshal category ids: %w", err)
	}
	tags, err := json.Marshal(f.TagIDs)
	if err != nil {
		return fmt.Errorf("marshal tag ids: %w", err)
	}

	query := `
		INSERT INTO files (code, name, hash, size, status, album, subject, author,
			level, remark, category_ids, tag_ids, chunks, thumbnail_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`
	err = r.db.QueryRowContext(ctx, query,
		f.Code, f.Name, f.Hash, f.Size, f.Status, f.Album, f.Subject, f.Author,
		f.Level, f.Remark, categories, tags, chunks, f.ThumbnailKey,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

const selectColumns = `id, code, name, hash, size, status, album, subject, author,
	level, remark, category_ids, tag_ids, chunks, thumbnail_key, created_at`

func (r *PostgresRepository) GetByHash(ctx context.Context, hash string) (*File, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM files WHERE hash = $1`, hash)
	return scanFile(row)
}

func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*File, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM files WHERE code = $1`, code)
	return scanFile(row)
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]*File, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count files: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM files ORDER BY id DESC OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("select files: %w", err)
	}
	defer rows.Close()

	var result []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PostgresRepository) SetThumbnail(ctx context.Context, id int64, key string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE files SET thumbnail_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("update thumbnail: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("file %d: %w", id, common.ErrorNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*File, error) {
	var f File
	var categories, tags, chunks []byte
	err := row.Scan(&f.ID, &f.Code, &f.Name, &f.Hash, &f.Size, &f.Status,
		&f.Album, &f.Subject, &f.Author, &f.Level, &f.Remark,
		&categories, &tags, &chunks, &f.ThumbnailKey, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	if err := json.Unmarshal(categories, &f.CategoryIDs); err != nil {
		return nil, fmt.Errorf("unmarshal category ids: %w", err)
	}
	if err := json.Unmarshal(tags, &f.TagIDs); err != nil {
		return nil, fmt.Errorf("unmarshal tag ids: %w", err)
	}
	f.Chunks = []api.ChunkRef{}
	if err := json.Unmarshal(chunks, &f.Chunks); err != nil {
		return nil, fmt.Errorf("unmarshal chunk manifest: %w", err)
	}
	return &f, nil
}
