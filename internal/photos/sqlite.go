package photos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteBlobStore struct {
	db *sql.DB
}

func NewSQLiteBlobStore(connectionString string) (*SQLiteBlobStore, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// SQLite пишет в один поток; для ":memory:" это ещё и одна общая БД
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS photo_blobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		photo_key TEXT NOT NULL,
		content_type TEXT NOT NULL,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create photo_blobs table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_photo_blobs_key ON photo_blobs (photo_key, id)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create photo_blobs index: %w", err)
	}

	return &SQLiteBlobStore{db: db}, nil
}

func (s *SQLiteBlobStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO photo_blobs (photo_key, content_type, data, created_at) VALUES (?, ?, ?, ?)",
		key, contentType, data, time.Now().UnixNano())
	return err
}

func (s *SQLiteBlobStore) Latest(ctx context.Context, key string) (*Blob, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT content_type, data, created_at FROM photo_blobs WHERE photo_key = ? ORDER BY id DESC LIMIT 1", key)

	blob := &Blob{Key: key}
	var created int64
	if err := row.Scan(&blob.ContentType, &blob.Data, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	blob.CreatedAt = time.Unix(0, created)
	return blob, nil
}

func (s *SQLiteBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM photo_blobs WHERE photo_key = ?)", key).Scan(&exists)
	return exists, err
}

func (s *SQLiteBlobStore) Prune(ctx context.Context, key string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM photo_blobs
		WHERE photo_key = ? AND id NOT IN (
			SELECT id FROM photo_blobs WHERE photo_key = ? ORDER BY id DESC LIMIT ?
		)`, key, key, keep)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteBlobStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT photo_key FROM photo_blobs ORDER BY photo_key")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteBlobStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
