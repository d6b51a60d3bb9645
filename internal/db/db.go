// Package db wraps a SQL connection with parameterized generic helpers and
// transactional scoping. It is a minimal helper layer, not a query builder:
// predicates are flat field-equality maps joined with AND.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rs/zerolog"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// Querier is satisfied by *sql.DB and *sql.Tx so the same adapter code runs
// inside and outside a transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Row is one result row keyed by column name.
type Row map[string]any

// Executor runs statements against a Querier, logging failed statements with
// their SQL and parameters before propagating the error unchanged.
type Executor struct {
	q   Querier
	log zerolog.Logger
}

// NewExecutor wraps q. The logger is used only for failure context.
func NewExecutor(q Querier, log zerolog.Logger) *Executor {
	return &Executor{q: q, log: log}
}

// Query runs a parameterized query. Errors are logged with the offending
// statement and params, never swallowed.
func (e *Executor) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		e.log.Error().Err(err).Str("query", query).Interface("params", args).Msg("database query error")
		return nil, err
	}
	return rows, nil
}

// QueryRow runs a single-row query. Errors surface at Scan time per
// database/sql semantics.
func (e *Executor) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return e.q.QueryRowContext(ctx, query, args...)
}

// Exec runs a statement that returns no rows.
func (e *Executor) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := e.q.ExecContext(ctx, query, args...)
	if err != nil {
		e.log.Error().Err(err).Str("query", query).Interface("params", args).Msg("database exec error")
		return nil, err
	}
	return res, nil
}

// WithinTx runs fn between BEGIN and COMMIT on conn, rolling back and
// propagating the error (or re-panicking) when fn fails.
func WithinTx(ctx context.Context, conn *sql.DB, log zerolog.Logger, fn func(tx *Executor) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(NewExecutor(tx, log)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// FindOptions carry the paging knobs the generic finders understand.
type FindOptions struct {
	OrderBy string
	Limit   int
	Offset  int
}

// Exists reports whether a row matching cond exists in table.
func (e *Executor) Exists(ctx context.Context, table string, cond Row) (bool, error) {
	where, args := whereClause(cond, 1)
	var exists bool
	row := e.QueryRow(ctx, fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s)", table, where), args...)
	if err := row.Scan(&exists); err != nil {
		e.log.Error().Err(err).Str("table", table).Interface("params", args).Msg("database exists error")
		return false, err
	}
	return exists, nil
}

// FindOne returns the first row matching cond, or nil when absent.
func (e *Executor) FindOne(ctx context.Context, table string, cond Row) (Row, error) {
	where, args := whereClause(cond, 1)
	rows, err := e.Query(ctx, fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT 1", table, where), args...)
	if err != nil {
		return nil, err
	}
	out, err := ScanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// FindMany returns rows matching cond; an empty cond selects everything.
func (e *Executor) FindMany(ctx context.Context, table string, cond Row, opts FindOptions) ([]Row, error) {
	query := "SELECT * FROM " + table
	var args []any
	if len(cond) > 0 {
		where, wargs := whereClause(cond, 1)
		query += " WHERE " + where
		args = wargs
	}
	if opts.OrderBy != "" {
		query += " ORDER BY " + opts.OrderBy
	}
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}
	rows, err := e.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return ScanRows(rows)
}

// Insert adds a row and returns it so callers can chain derived writes.
func (e *Executor) Insert(ctx context.Context, table string, fields Row) (Row, error) {
	query, args := insertStatement(table, fields)
	return e.queryOne(ctx, query, args)
}

// Update modifies rows matching cond and returns the first updated row.
func (e *Executor) Update(ctx context.Context, table string, cond, fields Row) (Row, error) {
	query, args := updateStatement(table, cond, fields)
	return e.queryOne(ctx, query, args)
}

// Delete removes rows matching cond and returns the first deleted row.
func (e *Executor) Delete(ctx context.Context, table string, cond Row) (Row, error) {
	where, args := whereClause(cond, 1)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s RETURNING *", table, where)
	return e.queryOne(ctx, query, args)
}

// Count returns the number of rows matching cond.
func (e *Executor) Count(ctx context.Context, table string, cond Row) (int, error) {
	query := "SELECT COUNT(*) FROM " + table
	var args []any
	if len(cond) > 0 {
		where, wargs := whereClause(cond, 1)
		query += " WHERE " + where
		args = wargs
	}
	var n int
	if err := e.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		e.log.Error().Err(err).Str("query", query).Interface("params", args).Msg("database count error")
		return 0, err
	}
	return n, nil
}

func (e *Executor) queryOne(ctx context.Context, query string, args []any) (Row, error) {
	rows, err := e.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out, err := ScanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// whereClause builds "k1 = $n AND k2 = $n+1" with keys sorted so the same
// cond always produces the same SQL. Values are always parameterized.
func whereClause(cond Row, start int) (string, []any) {
	keys := sortedKeys(cond)
	parts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		parts = append(parts, fmt.Sprintf("%s = $%d", k, start+i))
		args = append(args, cond[k])
	}
	return strings.Join(parts, " AND "), args
}

func insertStatement(table string, fields Row) (string, []any) {
	keys := sortedKeys(fields)
	placeholders := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, fields[k])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(keys, ", "), strings.Join(placeholders, ", "))
	return query, args
}

func updateStatement(table string, cond, fields Row) (string, []any) {
	fieldKeys := sortedKeys(fields)
	setParts := make([]string, 0, len(fieldKeys))
	args := make([]any, 0, len(fieldKeys)+len(cond))
	for i, k := range fieldKeys {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", k, i+1))
		args = append(args, fields[k])
	}
	where, whereArgs := whereClause(cond, len(fieldKeys)+1)
	args = append(args, whereArgs...)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s RETURNING *",
		table, strings.Join(setParts, ", "), where)
	return query, args
}

func sortedKeys(m Row) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ScanRows drains rows into column-keyed maps, converting raw byte slices
// to strings.
func ScanRows(rows *sql.Rows) ([]Row, error) {
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
