// Package storage persists save blobs by key. Every backend stores opaque
// payloads; decoding and reconciliation happen in the caller.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var (
	ErrInvalidKey = errors.New("storage: invalid key")
	ErrClosed     = errors.New("storage: closed")
)

// Store is a blob load/store primitive.
type Store interface {
	// Get returns the payload for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte) error
	// Keys lists stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Backend names accepted by Open.
const (
	Memory = "memory"
	File   = "file"
	Bolt   = "bolt"
	SQLite = "sqlite"
)

// File names used inside a data dir.
const (
	FileDir    = "saves"
	BoltFile   = "webidle.db"
	SQLiteFile = "webidle.sqlite"
)

// Open builds the named backend rooted at dataDir.
func Open(kind, dataDir string) (Store, error) {
	if kind != Memory {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	switch kind {
	case Memory:
		return NewMemory(), nil
	case File:
		return NewFileStore(filepath.Join(dataDir, FileDir))
	case Bolt:
		return OpenBolt(filepath.Join(dataDir, BoltFile))
	case SQLite:
		return OpenSQLite(filepath.Join(dataDir, SQLiteFile))
	}
	return nil, fmt.Errorf("storage: unknown backend %q", kind)
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

func validKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append(make([]byte, 0, len(b)), b...)
}
