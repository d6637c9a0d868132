// Package transcript persists finished chat turns to a local sqlite database.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go sqlite driver

	"edgellm/internal/common/fsutil"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id        TEXT    NOT NULL,
	model_path        TEXT    NOT NULL,
	result            TEXT    NOT NULL,
	query             TEXT    NOT NULL,
	response          TEXT    NOT NULL,
	tokens            INTEGER NOT NULL,
	elapsed_ns        INTEGER NOT NULL,
	tokens_per_second REAL    NOT NULL,
	created_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
`

// Turn is one generation as it ended.
type Turn struct {
	ID              int64
	SessionID       string
	ModelPath       string
	Result          string // completed, aborted or failed
	Query           string
	Response        string
	Tokens          int
	Elapsed         time.Duration
	TokensPerSecond float64
	CreatedAt       time.Time
}

// Store is a transcript database.
type Store struct {
	db *sql.DB
}

// Open opens (creating when needed) the database at path.
func Open(path string) (*Store, error) {
	p, err := fsutil.ResolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("transcript path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveTurn inserts t and returns its row id. A zero CreatedAt is stamped with
// the current time.
func (s *Store) SaveTurn(ctx context.Context, t Turn) (int64, error) {
	if t.SessionID == "" {
		return 0, errors.New("turn without session id")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (session_id, model_path, result, query, response, tokens, elapsed_ns, tokens_per_second, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SessionID, t.ModelPath, t.Result, t.Query, t.Response, t.Tokens,
		int64(t.Elapsed), t.TokensPerSecond, t.CreatedAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("insert turn: %w", err)
	}
	return res.LastInsertId()
}

// Turns returns the turns of one session in insertion order.
func (s *Store) Turns(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, model_path, result, query, response, tokens, elapsed_ns, tokens_per_second, created_at
		 FROM turns WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()
	var out []Turn
	for rows.Next() {
		var (
			t         Turn
			elapsed   int64
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &t.ModelPath, &t.Result, &t.Query, &t.Response,
			&t.Tokens, &elapsed, &t.TokensPerSecond, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Elapsed = time.Duration(elapsed)
		t.CreatedAt = time.Unix(0, createdAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
