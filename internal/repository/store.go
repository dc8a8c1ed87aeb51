package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrDuplicate marks a unique-constraint violation on insert or update.
var ErrDuplicate = errors.New("duplicate value for unique column")

// Descriptor configures a Store for a single table.
type Descriptor struct {
	// Table is the backing table name.
	Table string
	// Columns are the client-supplied insert columns. id, created_at,
	// updated_at and any server-assigned date columns are excluded.
	Columns []string
	// Defaulted are columns filled with now() on insert.
	Defaulted []string
}

// Store is a table-backed CRUD unit for one entity type. The four record
// stores share this implementation and differ only in their Descriptor.
type Store[T any] struct {
	db   *sqlx.DB
	desc Descriptor
}

// NewStore constructs a Store over the given table descriptor.
func NewStore[T any](db *sqlx.DB, desc Descriptor) *Store[T] {
	return &Store[T]{db: db, desc: desc}
}

// List returns every row ordered by id.
func (s *Store[T]) List(ctx context.Context) ([]T, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY id", s.desc.Table)
	rows := []T{}
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", s.desc.Table, err)
	}
	return rows, nil
}

// FindByID fetches one row by primary key, returning sql.ErrNoRows when the
// id is absent.
func (s *Store[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = $1", s.desc.Table)
	var row T
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// Insert persists a new row from the named fields of entity and returns the
// stored row including generated id and timestamps. Unique-constraint
// violations surface as ErrDuplicate.
func (s *Store[T]) Insert(ctx context.Context, entity *T) (*T, error) {
	cols := make([]string, 0, len(s.desc.Columns)+len(s.desc.Defaulted))
	vals := make([]string, 0, cap(cols))
	for _, col := range s.desc.Columns {
		cols = append(cols, col)
		vals = append(vals, ":"+col)
	}
	for _, col := range s.desc.Defaulted {
		cols = append(cols, col)
		vals = append(vals, "now()")
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		s.desc.Table, strings.Join(cols, ", "), strings.Join(vals, ", "))

	rows, err := sqlx.NamedQueryContext(ctx, s.db, query, entity)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, constraint)
		}
		return nil, fmt.Errorf("insert %s: %w", s.desc.Table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("insert %s: no row returned", s.desc.Table)
	}
	var stored T
	if err := rows.StructScan(&stored); err != nil {
		return nil, fmt.Errorf("scan inserted %s: %w", s.desc.Table, err)
	}
	return &stored, nil
}

// Update applies a partial set of column values to the row with the given id
// and returns the updated row. updated_at is always refreshed, even when
// fields is empty. Absent ids surface as sql.ErrNoRows.
func (s *Store[T]) Update(ctx context.Context, id int64, fields map[string]interface{}) (*T, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]interface{}, 0, len(cols)+1)
	for _, col := range cols {
		args = append(args, fields[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING *",
		s.desc.Table, strings.Join(sets, ", "), len(args)+1)
	args = append(args, id)

	var stored T
	if err := s.db.GetContext(ctx, &stored, query, args...); err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, constraint)
		}
		return nil, err
	}
	return &stored, nil
}

// Delete removes the row with the given id, returning sql.ErrNoRows when it
// does not exist.
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.desc.Table)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", s.desc.Table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", s.desc.Table, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint, true
	}
	return "", false
}
