package analysis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Conceptual-Machines/magda-patterns/internal/models"
)

// ErrNotFound is returned when a track has no stored analysis
var ErrNotFound = errors.New("analysis not found")

const createTableSQL = `
CREATE TABLE IF NOT EXISTS analysis_results (
	track TEXT PRIMARY KEY,
	tempo REAL NOT NULL DEFAULT 0,
	key TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_updated_at ON analysis_results(updated_at);
`

// Store persists analysis results in a local SQLite file
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// OpenStore opens (and creates if needed) the SQLite database at path.
// ":memory:" opens a private in-memory database.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or replaces the analysis for track
func (s *Store) Put(ctx context.Context, track string, result models.AnalysisResult) error {
	if track == "" {
		return fmt.Errorf("track name is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_results (track, tempo, key, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(track) DO UPDATE SET tempo = excluded.tempo, key = excluded.key, updated_at = excluded.updated_at`,
		track, result.Tempo, result.Key, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save analysis for %s: %w", track, err)
	}
	return nil
}

// Get returns the stored analysis for track or ErrNotFound
func (s *Store) Get(ctx context.Context, track string) (models.AnalysisResult, error) {
	var result models.AnalysisResult
	err := s.db.QueryRowContext(ctx, "SELECT tempo, key FROM analysis_results WHERE track = ?", track).
		Scan(&result.Tempo, &result.Key)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AnalysisResult{}, fmt.Errorf("%w: %s", ErrNotFound, track)
	}
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to load analysis for %s: %w", track, err)
	}
	return result, nil
}

// All returns every stored analysis
func (s *Store) All(ctx context.Context) (Results, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT track, tempo, key FROM analysis_results ORDER BY track")
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis results: %w", err)
	}
	defer rows.Close()

	results := Results{}
	for rows.Next() {
		var track string
		var result models.AnalysisResult
		if err := rows.Scan(&track, &result.Tempo, &result.Key); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		results[track] = result
	}
	return results, rows.Err()
}

// Import stores every entry of results in one transaction
func (s *Store) Import(ctx context.Context, results Results) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO analysis_results (track, tempo, key, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(track) DO UPDATE SET tempo = excluded.tempo, key = excluded.key, updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	now := s.now().Unix()
	for _, track := range results.Tracks() {
		r := results[track]
		if _, err := stmt.ExecContext(ctx, track, r.Tempo, r.Key, now); err != nil {
			return fmt.Errorf("failed to import %s: %w", track, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}
