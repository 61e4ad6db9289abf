// Package rendercache persists which (draft, commit, converter) combinations
// have already been rendered, so unchanged refs skip the converter subprocess
// on subsequent builds.
package rendercache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry records one completed rendering.
type Entry struct {
	Draft      string
	CommitHash string
	Converter  string // converter version string
	OutputPath string // path of the rendered text file
	RenderedAt time.Time
}

// Store is a SQLite-backed render cache.
// Use ":memory:" for an in-memory database, or a file path for persistence.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and initializes) the cache database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS renders (
		draft TEXT NOT NULL,
		commit_hash TEXT NOT NULL,
		converter TEXT NOT NULL,
		output_path TEXT NOT NULL,
		rendered_at INTEGER NOT NULL,
		PRIMARY KEY (draft, commit_hash, converter)
	);
	CREATE INDEX IF NOT EXISTS idx_renders_rendered_at ON renders(rendered_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Lookup returns the cache entry for the given key, if present.
func (s *Store) Lookup(ctx context.Context, draft, commitHash, converter string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT output_path, rendered_at FROM renders WHERE draft = ? AND commit_hash = ? AND converter = ?",
		draft, commitHash, converter,
	)

	var outputPath string
	var renderedAt int64
	if err := row.Scan(&outputPath, &renderedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("lookup render: %w", err)
	}

	return Entry{
		Draft:      draft,
		CommitHash: commitHash,
		Converter:  converter,
		OutputPath: outputPath,
		RenderedAt: time.Unix(renderedAt, 0),
	}, true, nil
}

// Record upserts a completed rendering.
func (s *Store) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	renderedAt := e.RenderedAt
	if renderedAt.IsZero() {
		renderedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO renders (draft, commit_hash, converter, output_path, rendered_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(draft, commit_hash, converter) DO UPDATE SET
		   output_path = excluded.output_path,
		   rendered_at = excluded.rendered_at`,
		e.Draft, e.CommitHash, e.Converter, e.OutputPath, renderedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record render: %w", err)
	}
	return nil
}

// Prune deletes entries older than maxAge and returns the number removed.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := s.db.ExecContext(ctx, "DELETE FROM renders WHERE rendered_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune renders: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
