package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Querier is the subset of *pgxpool.Pool the store uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore implements RecordStore over a pgx pool.
type PostgresStore struct {
	db Querier
}

// NewPostgresStore returns a Postgres-backed RecordStore.
func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Find(ctx context.Context, table string, filter Filter) ([]Row, error) {
	query, args := buildSelect(table, filter)
	return s.collect(ctx, query, args)
}

func (s *PostgresStore) Insert(ctx context.Context, table string, row Row) (Row, error) {
	if len(row) == 0 {
		return nil, fmt.Errorf("insert into %s: empty row", table)
	}
	query, args := buildInsert(table, row)
	rows, err := s.collect(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert into %s: no row returned", table)
	}
	return rows[0], nil
}

func (s *PostgresStore) Update(ctx context.Context, table string, filter Filter, patch Row) ([]Row, error) {
	if filter.Empty() {
		return nil, ErrUnfilteredUpdate
	}
	if len(patch) == 0 {
		return s.Find(ctx, table, filter)
	}
	query, args := buildUpdate(table, filter, patch)
	return s.collect(ctx, query, args)
}

func (s *PostgresStore) collect(ctx context.Context, query string, args []any) ([]Row, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, mapPgError(err)
	}
	result := make([]Row, 0, len(maps))
	for _, m := range maps {
		result = append(result, Row(m))
	}
	return result, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func buildSelect(table string, filter Filter) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(ident(table))
	args := writeWhere(&b, filter, nil)
	if filter.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(ident(filter.OrderBy))
	}
	if filter.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", filter.Limit)
	}
	return b.String(), args
}

func buildInsert(table string, row Row) (string, []any) {
	cols := sortedKeys(row)
	names := make([]string, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		args = append(args, row[col])
		names = append(names, ident(col))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		ident(table), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	return query, args
}

func buildUpdate(table string, filter Filter, patch Row) (string, []any) {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(ident(table))
	b.WriteString(" SET ")

	cols := sortedKeys(patch)
	args := make([]any, 0, len(cols)+len(filter.Eq)+len(filter.AnyOf))
	for i, col := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		args = append(args, patch[col])
		fmt.Fprintf(&b, "%s=$%d", ident(col), len(args))
	}
	args = writeWhere(&b, filter, args)
	b.WriteString(" RETURNING *")
	return b.String(), args
}

func writeWhere(b *strings.Builder, filter Filter, args []any) []any {
	if filter.Empty() {
		return args
	}
	clauses := make([]string, 0, len(filter.Eq)+1)
	for _, col := range sortedKeys(filter.Eq) {
		args = append(args, filter.Eq[col])
		clauses = append(clauses, fmt.Sprintf("%s=$%d", ident(col), len(args)))
	}
	if len(filter.AnyOf) > 0 {
		alts := make([]string, 0, len(filter.AnyOf))
		for _, col := range sortedKeys(filter.AnyOf) {
			args = append(args, filter.AnyOf[col])
			alts = append(alts, fmt.Sprintf("%s=$%d", ident(col), len(args)))
		}
		clauses = append(clauses, "("+strings.Join(alts, " OR ")+")")
	}
	b.WriteString(" WHERE ")
	b.WriteString(strings.Join(clauses, " AND "))
	return args
}
