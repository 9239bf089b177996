package repository

import (
	"context"
	"errors"
	"reflect"
	"sort"
)

var (
	// ErrNotFound is returned by single-record lookups that match nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert or update violates a unique column.
	ErrDuplicate = errors.New("duplicate record")
	// ErrUnfilteredUpdate guards against patching every row of a table.
	ErrUnfilteredUpdate = errors.New("update requires a filter")
)

// Row is a single record keyed by column name.
type Row map[string]any

// Filter selects rows. Every Eq column must match; when AnyOf is non-empty at
// least one of its columns must match too. Limit <= 0 means unlimited.
// OrderBy is honoured by stores that do not keep insertion order.
type Filter struct {
	Eq      map[string]any
	AnyOf   map[string]any
	Limit   int
	OrderBy string
}

// Where builds an equality filter from column/value pairs.
func Where(column string, value any) Filter {
	return Filter{Eq: map[string]any{column: value}}
}

// And adds another equality condition.
func (f Filter) And(column string, value any) Filter {
	eq := make(map[string]any, len(f.Eq)+1)
	for k, v := range f.Eq {
		eq[k] = v
	}
	eq[column] = value
	f.Eq = eq
	return f
}

// Empty reports whether the filter matches every row.
func (f Filter) Empty() bool {
	return len(f.Eq) == 0 && len(f.AnyOf) == 0
}

// Matches evaluates the filter against an in-memory row.
func (f Filter) Matches(row Row) bool {
	for col, want := range f.Eq {
		if !valueEqual(row[col], want) {
			return false
		}
	}
	if len(f.AnyOf) == 0 {
		return true
	}
	for col, want := range f.AnyOf {
		if valueEqual(row[col], want) {
			return true
		}
	}
	return false
}

// RecordStore is the narrow table-oriented contract the API needs from its datastore.
type RecordStore interface {
	Find(ctx context.Context, table string, filter Filter) ([]Row, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Update(ctx context.Context, table string, filter Filter, patch Row) ([]Row, error)
}

func valueEqual(a, b any) bool {
	return reflect.DeepEqual(deref(a), deref(b))
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return v
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
