package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps saves in a key/payload table.
type SQLiteStore struct {
	conn *sqlx.DB
	now  func() time.Time
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &SQLiteStore{conn: conn, now: time.Now}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validKey(key); err != nil {
		return nil, false, err
	}
	var payload []byte
	err := s.conn.GetContext(ctx, &payload, "SELECT payload FROM saves WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load save %q: %w", key, err)
	}
	if payload == nil {
		payload = []byte{}
	}
	return payload, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, payload []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	if payload == nil {
		payload = []byte{}
	}
	_, err := s.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO saves (key, payload, updated_at) VALUES (?, ?, ?)",
		key, payload, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store save %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.conn.SelectContext(ctx, &out, "SELECT key FROM saves ORDER BY key"); err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
