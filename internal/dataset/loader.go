package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Loader reads delimited data files into Datasets through DuckDB's CSV
// reader. Every column is read as varchar; type coercion is left to the
// guard helpers so one bad cell can never fail a whole load.
//
// Paths are always resolved relative to the configured data directory,
// never taken absolute from callers.
type Loader struct {
	db      *sql.DB
	dataDir string
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	modTime time.Time
	ds      *Dataset
}

// NewLoader opens an in-memory DuckDB handle for CSV ingestion rooted at
// dataDir.
func NewLoader(dataDir string, logger *slog.Logger) (*Loader, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	return &Loader{
		db:      db,
		dataDir: dataDir,
		logger:  logger,
		cache:   make(map[string]cacheEntry),
	}, nil
}

// Close releases the underlying DuckDB handle.
func (l *Loader) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Resolve turns a configured file name into a path under the data
// directory. Absolute paths and parent traversal are rejected so page
// configuration can never point outside the application root.
func (l *Loader) Resolve(file string) (string, error) {
	if file == "" {
		return "", fmt.Errorf("data file name is empty")
	}
	if filepath.IsAbs(file) {
		return "", fmt.Errorf("data file %q must be relative to the data directory", file)
	}
	clean := filepath.Clean(file)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("data file %q escapes the data directory", file)
	}
	return filepath.Join(l.dataDir, clean), nil
}

// ModTime returns the data file's last modification time.
func (l *Loader) ModTime(file string) (time.Time, error) {
	path, err := l.Resolve(file)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}

// Load reads the named file into a Dataset. Repeat loads of an unchanged
// file (same mtime) are served from cache.
func (l *Loader) Load(ctx context.Context, file string) (*Dataset, error) {
	path, err := l.Resolve(file)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("data file not found: %s: %w", path, err)
	}

	l.mu.Lock()
	if entry, ok := l.cache[path]; ok && entry.modTime.Equal(info.ModTime()) {
		l.mu.Unlock()
		return entry.ds, nil
	}
	l.mu.Unlock()

	ds, err := l.read(ctx, path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[path] = cacheEntry{modTime: info.ModTime(), ds: ds}
	l.mu.Unlock()

	l.logger.Debug("loaded data file", "file", file, "rows", ds.Len(), "columns", len(ds.Columns()))
	return ds, nil
}

func (l *Loader) read(ctx context.Context, path string) (*Dataset, error) {
	query := fmt.Sprintf(
		"SELECT * FROM read_csv_auto('%s', header=true, all_varchar=true)",
		strings.ReplaceAll(path, "'", "''"),
	)

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer func() { _ = rows.Close() }()

	rawCols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", path, err)
	}

	names := normalizeNames(rawCols)

	vals := make([][]string, len(names))
	nulls := make([][]bool, len(names))

	scan := make([]sql.NullString, len(names))
	ptrs := make([]any, len(names))
	for i := range scan {
		ptrs[i] = &scan[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", path, err)
		}
		for i, cell := range scan {
			if !cell.Valid {
				vals[i] = append(vals[i], "")
				nulls[i] = append(nulls[i], true)
				continue
			}
			vals[i] = append(vals[i], strings.TrimSpace(cell.String))
			nulls[i] = append(nulls[i], false)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", path, err)
	}

	ds := New()
	for i, name := range names {
		if err := ds.AddColumn(name, NewNullableSeries(vals[i], nulls[i])); err != nil {
			return nil, fmt.Errorf("failed to build dataset for %s: %w", path, err)
		}
	}
	return ds, nil
}

// normalizeNames lowercases and trims header names, suffixing duplicates so
// the unique-name invariant holds.
func normalizeNames(raw []string) []string {
	names := make([]string, 0, len(raw))
	seen := make(map[string]int, len(raw))
	for _, r := range raw {
		name := NormalizeName(r)
		if name == "" {
			name = "column"
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		if _, ok := seen[name]; !ok {
			seen[name] = 1
		}
		names = append(names, name)
	}
	return names
}
