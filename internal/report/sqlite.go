package report

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS cycles (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	ts            INTEGER NOT NULL,
	iteration     INTEGER NOT NULL,
	path          TEXT    NOT NULL,
	profit_factor REAL    NOT NULL,
	profit_pct    REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(ts);`

// SQLite keeps the full history of reported cycles.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Report(ctx context.Context, it Iteration) error {
	if len(it.Cycles) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cycles (ts, iteration, path, profit_factor, profit_pct) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	ts := it.At.UnixMilli()
	for _, c := range it.Cycles {
		if _, err := stmt.ExecContext(ctx, ts, it.Seq, c.Path(), c.Profit, c.ProfitPct()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert cycle: %w", err)
		}
	}
	return tx.Commit()
}

// Count returns how many cycles are stored.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cycles`).Scan(&n)
	return n, err
}

func (s *SQLite) Close() error { return s.db.Close() }
