package repository

import (
	"context"
	"sync"
)

// MemoryStore is an in-process RecordStore. Columns listed in unique are
// enforced per table, mirroring the Postgres schema constraints.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]Row
	unique map[string][]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string][]Row),
		unique: map[string][]string{
			EmployeesTable: {"id", "username"},
		},
	}
}

func (s *MemoryStore) Find(_ context.Context, table string, filter Filter) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Row
	for _, row := range s.tables[table] {
		if !filter.Matches(row) {
			continue
		}
		result = append(result, copyRow(row))
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}

func (s *MemoryStore) Insert(_ context.Context, table string, row Row) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.violatesUnique(table, row, -1) {
		return nil, ErrDuplicate
	}
	stored := copyRow(row)
	s.tables[table] = append(s.tables[table], stored)
	return copyRow(stored), nil
}

func (s *MemoryStore) Update(_ context.Context, table string, filter Filter, patch Row) ([]Row, error) {
	if filter.Empty() {
		return nil, ErrUnfilteredUpdate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[table]
	var matched []int
	for i, row := range rows {
		if filter.Matches(row) {
			matched = append(matched, i)
		}
	}

	updated := make([]Row, 0, len(matched))
	for _, i := range matched {
		next := copyRow(rows[i])
		for k, v := range patch {
			next[k] = v
		}
		if s.violatesUnique(table, next, i) {
			return nil, ErrDuplicate
		}
		updated = append(updated, next)
	}
	for n, i := range matched {
		rows[i] = updated[n]
	}

	result := make([]Row, 0, len(updated))
	for _, row := range updated {
		result = append(result, copyRow(row))
	}
	return result, nil
}

func (s *MemoryStore) violatesUnique(table string, row Row, skip int) bool {
	for _, col := range s.unique[table] {
		val, ok := row[col]
		if !ok || val == nil {
			continue
		}
		for i, existing := range s.tables[table] {
			if i != skip && valueEqual(existing[col], val) {
				return true
			}
		}
	}
	return false
}

func copyRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
