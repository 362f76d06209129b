// Package sqlite provides a durable, single-file core.Storage backend on top
// of SQLite. One table holds all items; values are stored as JSON text. It
// suits single-process hosts that need state to survive restarts without
// running a database server.
//
// The backend enforces optimistic concurrency when a write carries a concrete
// ETag; the wildcard "*" (or an empty ETag) always wins. Errors from the
// driver surface unchanged, matching the storage contract: no retries at this
// layer.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/hupe1980/agenthost/core"
)

// ErrETagConflict is returned when a write carries a concrete ETag that no
// longer matches the stored row.
var ErrETagConflict = fmt.Errorf("sqlite: etag conflict")

const schema = `
CREATE TABLE IF NOT EXISTS kv_store (
	key  TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	etag TEXT NOT NULL
);`

// Store is a SQLite-backed core.Storage implementation.
type Store struct {
	db *sql.DB
}

// Open creates (or opens) the database at path and ensures the schema
// exists. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Read returns the items stored under the given keys; absent keys are
// missing from the result.
func (s *Store) Read(ctx context.Context, keys []string) (map[string]core.StoreItem, error) {
	result := make(map[string]core.StoreItem, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key, data, etag FROM kv_store WHERE key IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, data, etag string
		if err := rows.Scan(&key, &data, &etag); err != nil {
			return nil, err
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return nil, fmt.Errorf("sqlite: corrupt row %q: %w", key, err)
		}
		result[key] = core.StoreItem{Data: payload, ETag: etag}
	}
	return result, rows.Err()
}

// Write upserts all changes in one transaction. Each written row receives a
// fresh ETag.
func (s *Store) Write(ctx context.Context, changes map[string]core.StoreItem) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, item := range changes {
		if item.ETag != "" && item.ETag != core.ETagAny {
			var current string
			err := tx.QueryRowContext(ctx, "SELECT etag FROM kv_store WHERE key = ?", key).Scan(&current)
			switch {
			case err == sql.ErrNoRows:
				// New row; nothing to conflict with.
			case err != nil:
				return err
			case current != item.ETag:
				return fmt.Errorf("%w: key %q has etag %q, write carried %q", ErrETagConflict, key, current, item.ETag)
			}
		}

		data, err := json.Marshal(item.Data)
		if err != nil {
			return fmt.Errorf("sqlite: item %q not serializable: %w", key, err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO kv_store (key, data, etag) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET data = excluded.data, etag = excluded.etag",
			key, string(data), uuid.NewString())
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes the given keys; missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv_store WHERE key IN ("+placeholders+")", args...)
	return err
}
