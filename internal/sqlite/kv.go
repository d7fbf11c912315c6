package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/focusboard/internal/snapshot"
)

// KV implements snapshot.KV on the snapshots table. The database file
// lives in a directory shared by every app process on the device, so all
// surfaces observe the same values.
type KV struct {
	db *DB
}

// NewKV creates a snapshot key-value store.
func NewKV(db *DB) *KV {
	return &KV{db: db}
}

// Save stores value under key, replacing any previous value.
func (s *KV) Save(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", key, err)
	}
	return nil
}

// Load returns the value stored under key, or snapshot.ErrNoValue when
// the key has never been written.
func (s *KV) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM snapshots WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, snapshot.ErrNoValue
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", key, err)
	}
	return value, nil
}
