// Package history persists upload attempts to a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mhoffm/shotrelay/internal/upload"
)

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL,
	size_bytes INTEGER NOT NULL DEFAULT 0,
	success INTEGER NOT NULL,
	status_code INTEGER,
	upload_ms INTEGER NOT NULL DEFAULT 0,
	total_ms INTEGER NOT NULL DEFAULT 0,
	error TEXT,
	deleted INTEGER NOT NULL DEFAULT 0,
	uploaded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_uploads_uploaded_at ON uploads(uploaded_at);
`

// Record is one stored upload attempt.
type Record struct {
	ID         int
	Path       string
	SizeBytes  int64
	Success    bool
	StatusCode int // 0 when no HTTP response was received
	UploadMs   int64
	TotalMs    int64
	Error      string
	Deleted    bool
	UploadedAt time.Time
}

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
}

// Open opens the database at dbPath, creating the parent directory and the
// schema if needed.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite works best with a single connection for writes
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() {
	s.db.Close()
}

// WriteResult stores one upload attempt. It implements watch.ResultWriter.
func (s *Store) WriteResult(ctx context.Context, path string, res *upload.Result) error {
	var statusCode any
	if res.StatusCode != 0 {
		statusCode = res.StatusCode
	}
	var errText any
	if res.Err != nil {
		errText = res.Err.Error()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (path, size_bytes, success, status_code, upload_ms, total_ms, error, deleted, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, path, res.SizeBytes, res.Success, statusCode,
		res.UploadDuration.Milliseconds(), res.TotalDuration.Milliseconds(),
		errText, res.Deleted, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert upload record: %w", err)
	}
	return nil
}

// Recent returns the most recent upload attempts, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, size_bytes, success, status_code, upload_ms, total_ms, error, deleted, uploaded_at
		FROM uploads
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var statusCode sql.NullInt64
		var errText sql.NullString
		var uploadedAt string
		if err := rows.Scan(&r.ID, &r.Path, &r.SizeBytes, &r.Success, &statusCode,
			&r.UploadMs, &r.TotalMs, &errText, &r.Deleted, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scan upload record: %w", err)
		}
		r.StatusCode = int(statusCode.Int64)
		r.Error = errText.String
		if t, err := time.Parse(time.RFC3339, uploadedAt); err == nil {
			r.UploadedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
