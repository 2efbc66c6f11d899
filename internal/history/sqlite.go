// Package history keeps a local sqlite archive of confirmed
// exchanges. The server stays the source of truth for thread state;
// the archive only exists so transcripts can be searched offline from
// the command line.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mjaros/chatterm/internal/api"
	"github.com/mjaros/chatterm/internal/config"
)

// Store is the sqlite-backed transcript archive.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    thread_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
    text TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_exchanges_thread ON exchanges(thread_id, id);
`

// Entry is one archived message.
type Entry struct {
	ID        int64
	ThreadID  string
	Role      api.Role
	Text      string
	CreatedAt time.Time
}

// Open opens (or creates) the archive. An empty path uses the default
// location under the data dir; ":memory:" is supported for tests.
func Open(path string) (*Store, error) {
	if path == "" {
		dataDir, err := config.GetDataDir()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		path = filepath.Join(dataDir, "history.db")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record archives one confirmed message.
func (s *Store) Record(threadID string, role api.Role, text string) error {
	_, err := s.db.Exec(
		`INSERT INTO exchanges (thread_id, role, text) VALUES (?, ?, ?)`,
		threadID, string(role), text,
	)
	return err
}

// Search returns archived messages containing the query, newest first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, role, text, created_at
		 FROM exchanges
		 WHERE text LIKE '%' || ? || '%'
		 ORDER BY id DESC
		 LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var role string
		if err := rows.Scan(&e.ID, &e.ThreadID, &role, &e.Text, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Role = api.Role(role)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Thread returns the archived transcript of one thread in order.
func (s *Store) Thread(ctx context.Context, threadID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, role, text, created_at
		 FROM exchanges WHERE thread_id = ? ORDER BY id`,
		threadID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var role string
		if err := rows.Scan(&e.ID, &e.ThreadID, &role, &e.Text, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Role = api.Role(role)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Forget removes the archive of a deleted thread.
func (s *Store) Forget(threadID string) error {
	_, err := s.db.Exec(`DELETE FROM exchanges WHERE thread_id = ?`, threadID)
	return err
}
