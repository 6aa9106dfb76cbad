package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MarketCast/internal/domain/models"
	domrepo "MarketCast/internal/domain/repository"

	_ "modernc.org/sqlite"
)

// SQLiteStateStore persists watermarks and trigger instants in a local
// SQLite database so a restart neither re-fetches observed ranges nor
// re-fires an already-run trigger instant.
type SQLiteStateStore struct {
	db *sql.DB
}

// NewSQLiteStateStore opens (or creates) the database at path and runs
// migrations.
func NewSQLiteStateStore(path string) (*SQLiteStateStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	s := &SQLiteStateStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

var _ domrepo.StateStore = (*SQLiteStateStore)(nil)

func (s *SQLiteStateStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS watermarks (
			symbol      TEXT PRIMARY KEY,
			observed_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trigger_fires (
			cadence  TEXT PRIMARY KEY,
			fired_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStateStore) LastObserved(ctx context.Context, symbol string) (time.Time, bool, error) {
	var unix int64
	err := s.db.QueryRowContext(ctx,
		"SELECT observed_at FROM watermarks WHERE symbol = ?", symbol).Scan(&unix)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query watermark %s: %w", symbol, err)
	}
	return time.Unix(unix, 0).UTC(), true, nil
}

func (s *SQLiteStateStore) SetLastObserved(ctx context.Context, symbol string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO watermarks (symbol, observed_at) VALUES (?, ?)
		 ON CONFLICT(symbol) DO UPDATE SET observed_at = excluded.observed_at`,
		symbol, ts.Unix())
	if err != nil {
		return fmt.Errorf("set watermark %s: %w", symbol, err)
	}
	return nil
}

func (s *SQLiteStateStore) LastFired(ctx context.Context, class models.CadenceClass) (time.Time, bool, error) {
	var unix int64
	err := s.db.QueryRowContext(ctx,
		"SELECT fired_at FROM trigger_fires WHERE cadence = ?", string(class)).Scan(&unix)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query last fired %s: %w", class, err)
	}
	return time.Unix(unix, 0).UTC(), true, nil
}

func (s *SQLiteStateStore) SetLastFired(ctx context.Context, class models.CadenceClass, instant time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trigger_fires (cadence, fired_at) VALUES (?, ?)
		 ON CONFLICT(cadence) DO UPDATE SET fired_at = excluded.fired_at`,
		string(class), instant.Unix())
	if err != nil {
		return fmt.Errorf("set last fired %s: %w", class, err)
	}
	return nil
}

func (s *SQLiteStateStore) Close() error { return s.db.Close() }
