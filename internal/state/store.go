// Package state persists Sightline's operational history: data file
// uploads and page renders, kept in a small SQLite database.
package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// Store is the SQLite-backed history store.
type Store struct {
	db   *sql.DB
	path string
}

// UploadRecord is one data file replacement.
type UploadRecord struct {
	ID         string
	FileName   string
	SizeBytes  int64
	BackupPath string
	Source     string // "web" or "cli"
	UploadedAt time.Time
}

// RenderRecord summarizes one page render.
type RenderRecord struct {
	ID           string
	PageKey      string
	Rows         int
	FilteredRows int
	Took         time.Duration
	RenderedAt   time.Time
}

// PageStat aggregates render history per page. LastRows is the row count
// of the most recent render.
type PageStat struct {
	PageKey    string
	Renders    int
	LastRows   int
	LastRender time.Time
}

// NewStore creates an unopened store.
func NewStore() *Store {
	return &Store{}
}

// Open opens the SQLite database at path. Use ":memory:" for tests.
func (s *Store) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordUpload inserts an upload record, assigning it an ID when empty.
func (s *Store) RecordUpload(rec UploadRecord) (UploadRecord, error) {
	if s.db == nil {
		return rec, fmt.Errorf("database not opened")
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO uploads (id, file_name, size_bytes, backup_path, source, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FileName, rec.SizeBytes, rec.BackupPath, rec.Source, rec.UploadedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to record upload: %w", err)
	}
	return rec, nil
}

// ListUploads returns the most recent uploads, newest first.
func (s *Store) ListUploads(limit int) ([]UploadRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, file_name, size_bytes, backup_path, source, uploaded_at
		 FROM uploads ORDER BY uploaded_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []UploadRecord
	for rows.Next() {
		var rec UploadRecord
		var backup sql.NullString
		if err := rows.Scan(&rec.ID, &rec.FileName, &rec.SizeBytes, &backup, &rec.Source, &rec.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		rec.BackupPath = backup.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating uploads: %w", err)
	}
	return out, nil
}

// LastUploadFor returns the newest upload of the named file, or nil.
func (s *Store) LastUploadFor(fileName string) (*UploadRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var rec UploadRecord
	var backup sql.NullString
	err := s.db.QueryRow(
		`SELECT id, file_name, size_bytes, backup_path, source, uploaded_at
		 FROM uploads WHERE file_name = ? ORDER BY uploaded_at DESC LIMIT 1`, fileName,
	).Scan(&rec.ID, &rec.FileName, &rec.SizeBytes, &backup, &rec.Source, &rec.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	rec.BackupPath = backup.String
	return &rec, nil
}

// RecordRender inserts a page render record.
func (s *Store) RecordRender(pageKey string, rows, filteredRows int, took time.Duration) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`INSERT INTO renders (id, page_key, row_count, filtered_rows, took_ms, rendered_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), pageKey, rows, filteredRows, took.Milliseconds(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record render: %w", err)
	}
	return nil
}

// PageStats aggregates render counts and recency per page.
func (s *Store) PageStats() ([]PageStat, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT page_key, COUNT(*), MAX(rendered_at),
		        (SELECT row_count FROM renders latest
		         WHERE latest.page_key = r.page_key
		         ORDER BY latest.rendered_at DESC, latest.id LIMIT 1)
		 FROM renders r GROUP BY page_key ORDER BY page_key`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query page stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []PageStat
	for rows.Next() {
		var st PageStat
		if err := rows.Scan(&st.PageKey, &st.Renders, &st.LastRender, &st.LastRows); err != nil {
			return nil, fmt.Errorf("failed to scan page stat: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating page stats: %w", err)
	}
	return out, nil
}
