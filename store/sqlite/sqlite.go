/*
Package sqlite provides a SQLite-backed implementation of store.RecordStore.

PURPOSE:
  Persists the engine's logical tables in a single records table keyed by
  (tbl, key), with the flat field map serialized as JSON. In production
  the portal's relational store sits behind the same contract; this
  implementation exists so the server binary and integration tests run
  against real persistence.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers do not
  block, a single writer at a time, better crash recovery.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety across the shared *sql.DB.

USAGE:
  st, err := sqlite.New("./data/claims.db")   // ":memory:" supported
  if err != nil { ... }
  defer st.Close()

SEE ALSO:
  - store/store.go: contract and field conventions
  - store/memory.go: in-memory implementation for unit tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/compensation-engine/store"
)

// Store implements store.RecordStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.RecordStore = (*Store)(nil)

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		tbl    TEXT NOT NULL,
		key    TEXT NOT NULL,
		fields TEXT NOT NULL,
		PRIMARY KEY (tbl, key)
	);

	CREATE INDEX IF NOT EXISTS idx_records_tbl ON records(tbl);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Find(ctx context.Context, table string, filter store.Filter) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT key, fields FROM records WHERE tbl = ?`, table)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", table, err)
	}
	defer rows.Close()

	var result []store.Record
	for rows.Next() {
		var key, fieldsJSON string
		if err := rows.Scan(&key, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("find %s: %w", table, err)
		}
		var rec store.Record
		if err := json.Unmarshal([]byte(fieldsJSON), &rec); err != nil {
			return nil, fmt.Errorf("find %s: corrupt record %s: %w", table, key, err)
		}
		if !filter.Matches(rec) {
			continue
		}
		rec[store.KeyField] = key
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (s *Store) UpsertByKey(ctx context.Context, table, key string, fields store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := fields.Clone()
	delete(rec, store.KeyField)
	fieldsJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", table, key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (tbl, key, fields) VALUES (?, ?, ?)
		ON CONFLICT (tbl, key) DO UPDATE SET fields = excluded.fields`,
		table, key, string(fieldsJSON))
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", table, key, err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, table string, fields store.Record) (string, error) {
	key := store.NewKey()
	return key, s.UpsertByKey(ctx, table, key, fields)
}

func (s *Store) DeleteByKey(ctx context.Context, table, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE tbl = ? AND key = ?`, table, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, key, err)
	}
	return nil
}
