// Package store exports loaded runs to SQLite.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/gauntlet/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for exported runs.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			username TEXT NOT NULL,
			run_at TEXT NOT NULL,
			source_path TEXT NOT NULL,
			dps_given REAL NOT NULL,
			dps_taken REAL NOT NULL,
			used_ticks REAL NOT NULL,
			wrong_off_prayer REAL NOT NULL,
			wrong_def_prayer REAL NOT NULL,
			wrong_attack_style REAL NOT NULL,
			tornado_hits REAL NOT NULL,
			total_ticks REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_username_run_at ON runs(username, run_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceRuns replaces every stored run for username with runs.
func (s *Store) ReplaceRuns(ctx context.Context, username string, runs []model.Run) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE username = ?`, username); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO runs (username, run_at, source_path, dps_given, dps_taken, used_ticks,
			wrong_off_prayer, wrong_def_prayer, wrong_attack_style, tornado_hits, total_ticks)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, r := range runs {
		if _, err = stmt.ExecContext(ctx,
			username,
			r.Date.Format(time.RFC3339),
			r.Path,
			r.DPSGiven,
			r.DPSTaken,
			r.UsedTicks,
			r.WrongOffPrayer,
			r.WrongDefPrayer,
			r.WrongAttackStyle,
			r.TornadoHits,
			r.TotalTicks,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CountRuns returns the number of stored runs for username.
func (s *Store) CountRuns(ctx context.Context, username string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE username = ?`, username).Scan(&count)
	return count, err
}
