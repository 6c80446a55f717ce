// Package audit keeps an append-only record of every content guard
// verdict, blocked or not, for later review. Writes are best effort: an
// audit failure is logged and never blocks the response path.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/minber-ai/minber/internal/guard"
	"github.com/minber-ai/minber/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS content_filters (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       TEXT NOT NULL,
	session_id    TEXT,
	message       TEXT NOT NULL,
	is_religious  INTEGER NOT NULL,
	has_injection INTEGER NOT NULL,
	blocked       INTEGER NOT NULL,
	created_at    TEXT NOT NULL
);
`

// Log is an append-only verdict log backed by SQLite.
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the audit database at path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create content_filters table: %w", err)
	}
	return &Log{db: db}, nil
}

// Record appends one verdict. The caller treats failures as
// write-and-forget; Record logs them itself and returns the error only
// for tests.
func (l *Log) Record(ctx context.Context, userID, sessionID, message string, verdict guard.Verdict) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO content_filters (user_id, session_id, message, is_religious, has_injection, blocked, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, sessionID, message,
		boolToInt(verdict.IsReligious), boolToInt(verdict.HasInjection), boolToInt(verdict.Blocked()),
		verdict.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		logger.Warn("Failed to record content filter verdict for user %s: %v", userID, err)
		return err
	}
	return nil
}

// Count returns the number of recorded verdicts, optionally only blocked
// ones.
func (l *Log) Count(ctx context.Context, blockedOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM content_filters`
	if blockedOnly {
		query += ` WHERE blocked = 1`
	}
	var n int
	if err := l.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count audit records: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
