package store

import (
	"context"
	"sync"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	tables map[string]map[string]Record
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string]map[string]Record)}
}

func (m *Memory) Find(_ context.Context, table string, filter Filter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Record
	for key, rec := range m.tables[table] {
		if filter.Matches(rec) {
			out := rec.Clone()
			out[KeyField] = key
			result = append(result, out)
		}
	}
	return result, nil
}

func (m *Memory) UpsertByKey(_ context.Context, table, key string, fields Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tables[table] == nil {
		m.tables[table] = make(map[string]Record)
	}
	rec := fields.Clone()
	delete(rec, KeyField)
	m.tables[table][key] = rec
	return nil
}

func (m *Memory) Insert(ctx context.Context, table string, fields Record) (string, error) {
	key := NewKey()
	return key, m.UpsertByKey(ctx, table, key, fields)
}

func (m *Memory) DeleteByKey(_ context.Context, table, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tables[table], key)
	return nil
}
