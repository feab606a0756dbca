package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gravitas-games/haxagon/internal/board"
)

const schema = `CREATE TABLE IF NOT EXISTS high_scores (
	player     TEXT    NOT NULL,
	mode       TEXT    NOT NULL,
	score      INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (player, mode)
)`

// SQLite persists high scores in a local database file.
type SQLite struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLite) Record(ctx context.Context, player string, mode board.ModeKey, score int) (res Result, err error) {
	if err := checkMode(mode); err != nil {
		return Result{}, err
	}
	if err := checkPlayer(player); err != nil {
		return Result{}, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var prev int
	had := true
	err = tx.QueryRowContext(ctx,
		`SELECT score FROM high_scores WHERE player = ? AND mode = ?`,
		player, string(mode),
	).Scan(&prev)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		had = false
	case err != nil:
		return Result{}, fmt.Errorf("load best score: %w", err)
	}

	res = merge(prev, had, score)
	if !had || res.Best > prev {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO high_scores (player, mode, score, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (player, mode) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`,
			player, string(mode), res.Best, s.now().UTC().UnixMilli(),
		)
		if err != nil {
			return Result{}, fmt.Errorf("store best score: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func (s *SQLite) Best(ctx context.Context, player string, mode board.ModeKey) (int, error) {
	var score int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT score FROM high_scores WHERE player = ? AND mode = ?`,
		player, string(mode),
	).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("load best score: %w", err)
	}
	return score, nil
}

func (s *SQLite) Top(ctx context.Context, mode board.ModeKey, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT player, score FROM high_scores WHERE mode = ? ORDER BY score DESC, player ASC LIMIT ?`,
		string(mode), n,
	)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, n)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Player, &e.Score); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return entries, nil
}
