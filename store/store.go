/*
Package store defines the record-store contract the engine persists through.

PURPOSE:
  The portal's relational store is an external collaborator. The engine
  sees it only as logical tables of flat records addressed by key, with
  equality-filtered finds. This keeps the calculators free of SQL and lets
  tests run against the in-memory implementation.

LOGICAL TABLES:
  claims:                 one record per claim, key = IRN
  workers:                key = worker id
  dependants:             key = dependant id
  employment:             key = worker id
  dictionary:             reference data, key = "type|key"
  attachments:            submitted documents, filtered by claim_id
  checklist:              injury checklist rows, key = "irn|criterion"
  compensation:           per-claim calculation summary, key = IRN
  dependant_compensation: death split rows, rewritten wholesale per claim
  reviews:                per-stage review records, key = "irn|stage"

FIELD CONVENTIONS:
  All field values are strings: decimal numbers, "2006-01-02" dates, and
  short enumerations. Parsing is the caller's job and is defensive; a
  corrupt numeric field reads as zero, never as an error.

IMPLEMENTATIONS:
  - store/memory.go: in-memory, for tests and dev
  - store/sqlite:    production SQLite

SEE ALSO:
  - claims/context.go: reads the input tables
  - review/persist.go: writes the output tables
*/
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// Record is one flat row. Values follow the field conventions above.
type Record map[string]string

// Filter matches records whose fields equal every filter value.
type Filter map[string]string

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Matches reports whether the record satisfies the filter.
func (f Filter) Matches(r Record) bool {
	for k, want := range f {
		if r[k] != want {
			return false
		}
	}
	return true
}

// KeyField is the reserved field under which Find returns each record's
// key. It is never persisted as a regular field.
const KeyField = "_key"

// RecordStore is the persistence contract. All writes are whole-record:
// UpsertByKey replaces the full field set for the key.
type RecordStore interface {
	// Find returns all records in table matching filter, in undefined
	// order. Each returned record carries its key under KeyField.
	Find(ctx context.Context, table string, filter Filter) ([]Record, error)

	// UpsertByKey creates or fully replaces the record at key.
	UpsertByKey(ctx context.Context, table, key string, fields Record) error

	// Insert stores fields under a generated key and returns that key.
	Insert(ctx context.Context, table string, fields Record) (string, error)

	// DeleteByKey removes the record at key. Missing keys are not an error.
	DeleteByKey(ctx context.Context, table, key string) error
}

// NewKey generates a random record key for Insert implementations.
func NewKey() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "k-error"
	}
	return hex.EncodeToString(b)
}
