package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteHistory implements History using SQLite.
type SQLiteHistory struct {
	db         *sql.DB
	maxEntries int
}

// NewSQLiteHistory opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteHistory(dbPath string, maxEntries int) (*SQLiteHistory, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &SQLiteHistory{db: db, maxEntries: maxEntries}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		path TEXT PRIMARY KEY,
		selections INTEGER NOT NULL DEFAULT 1,
		seq INTEGER NOT NULL,
		selected_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_history_seq ON history(seq);
	`
	_, err := db.Exec(schema)
	return err
}

// OrderedList returns up to maxEntries paths, oldest first.
func (s *SQLiteHistory) OrderedList(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM (
		     SELECT path, seq FROM history ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`,
		s.maxEntries,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	return paths, nil
}

// RecordSelection upserts path as the most recent selection and trims the
// table to maxEntries rows, in one transaction.
func (s *SQLiteHistory) RecordSelection(ctx context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO history (path, selections, seq, selected_at)
VALUES (?1, 1, (SELECT IFNULL(MAX(seq), 0) + 1 FROM history), ?2)
ON CONFLICT(path) DO UPDATE SET
  selections  = selections + 1,
  seq         = (SELECT IFNULL(MAX(seq), 0) + 1 FROM history),
  selected_at = excluded.selected_at
`, path, now); err != nil {
		return fmt.Errorf("failed to record selection: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
DELETE FROM history
 WHERE path NOT IN (SELECT path FROM history ORDER BY seq DESC LIMIT ?)`,
		s.maxEntries,
	); err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}
	return tx.Commit()
}

// Selections returns how many times path was selected (0 when untracked).
func (s *SQLiteHistory) Selections(ctx context.Context, path string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT selections FROM history WHERE path = ?`, path).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return n, err
}

// Close closes the database connection.
func (s *SQLiteHistory) Close() error {
	return s.db.Close()
}
