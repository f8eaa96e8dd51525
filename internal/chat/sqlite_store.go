package chat

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the durable conversation store. One long-lived *sql.DB is
// held for the process lifetime; the driver's connection pool handles
// concurrent callers.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path, ensuring the
// parent directory exists, and initializes the schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db at %s: %w", path, err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			first_seen INTEGER NOT NULL DEFAULT (unixepoch())
		);

		CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_conv_user_time ON conversations(user_id, timestamp DESC);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, userID int64, role, content string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin append: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (user_id) VALUES (?)`, userID,
	); err != nil {
		return fmt.Errorf("%w: upsert user %d: %v", ErrStorage, userID, err)
	}

	// Clamp to the user's latest timestamp so replay order survives clock
	// steps; equal timestamps fall back to insertion (id) order.
	ts := time.Now().UnixNano()
	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(timestamp) FROM conversations WHERE user_id = ?`, userID,
	).Scan(&last); err != nil {
		return fmt.Errorf("%w: read last timestamp: %v", ErrStorage, err)
	}
	if last.Valid && ts < last.Int64 {
		ts = last.Int64
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (user_id, role, content, timestamp) VALUES (?, ?, ?, ?)`,
		userID, role, content, ts,
	); err != nil {
		return fmt.Errorf("%w: insert turn: %v", ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit append: %v", ErrStorage, err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, userID int64, limit int) ([]Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, timestamp FROM conversations
		 WHERE user_id = ?
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query recent turns: %v", ErrStorage, err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var ts int64
		if err := rows.Scan(&t.Role, &t.Content, &ts); err != nil {
			return nil, fmt.Errorf("%w: scan turn: %v", ErrStorage, err)
		}
		t.UserID = userID
		t.Timestamp = time.Unix(0, ts)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate turns: %v", ErrStorage, err)
	}

	// Retrieved newest-first; replay wants oldest-first.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (s *SQLiteStore) Clear(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE user_id = ?`, userID,
	); err != nil {
		return fmt.Errorf("%w: clear history for %d: %v", ErrStorage, userID, err)
	}
	return nil
}
