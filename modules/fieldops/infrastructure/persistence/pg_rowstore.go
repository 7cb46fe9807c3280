package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/ports"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/query"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/types"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGRowStore runs dynamically assembled statements against one Postgres
// database. Every column identifier in the SQL it renders came out of a
// schema snapshot; every request value travels as a positional parameter.
type PGRowStore struct {
	q querier
	// beginner is nil on transaction-bound stores; WithKeyLock is then a
	// plain nested call under the already-held lock.
	beginner pgBeginner
	// tx is set on transaction-bound stores. Insert then runs inside a
	// savepoint: a unique violation would otherwise abort the enclosing
	// transaction and kill the retry-as-update path.
	tx pgx.Tx
}

type pgPool interface {
	querier
	pgBeginner
}

func NewPGRowStore(pool pgPool) *PGRowStore {
	return &PGRowStore{q: pool, beginner: pool}
}

// appendArgs copies predicate arguments before appending trailing
// parameters, so the predicate's own slice is never grown in place.
func appendArgs(predArgs []any, extra ...any) []any {
	out := make([]any, 0, len(predArgs)+len(extra))
	out = append(out, predArgs...)
	out = append(out, extra...)
	return out
}

// quoteTable quotes a possibly schema-qualified table name part by part.
func quoteTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	for i, p := range parts {
		parts[i] = query.Ident(p)
	}
	return strings.Join(parts, ".")
}

func (s *PGRowStore) Select(ctx context.Context, table string, cols []string, where query.Predicate, orderBy string, limit int) (types.Result, error) {
	sel := make([]string, 0, len(cols))
	for _, c := range cols {
		sel = append(sel, query.Ident(c)+"::text")
	}

	var b strings.Builder
	b.WriteString("SELECT " + strings.Join(sel, ", ") + " FROM " + quoteTable(table))
	whereSQL, next := where.WhereSQL(1)
	b.WriteString(whereSQL)
	if orderBy != "" {
		b.WriteString(" ORDER BY " + orderBy)
	}
	args := appendArgs(where.Args(), limit)
	fmt.Fprintf(&b, " LIMIT $%d;", next)

	rows, err := s.q.Query(ctx, b.String(), args...)
	if err != nil {
		return types.Result{}, err
	}
	defer rows.Close()
	return renderResult(rows, cols)
}

func (s *PGRowStore) SelectProjected(ctx context.Context, table string, projections []ports.Projection, where query.Predicate, orderBy string, limit int) (types.Result, error) {
	sel := make([]string, 0, len(projections))
	aliases := make([]string, 0, len(projections))
	for _, p := range projections {
		if p.Column == "" {
			sel = append(sel, "''::text AS "+query.Ident(p.Alias))
		} else {
			sel = append(sel, query.Ident(p.Column)+"::text AS "+query.Ident(p.Alias))
		}
		aliases = append(aliases, p.Alias)
	}

	var b strings.Builder
	b.WriteString("SELECT " + strings.Join(sel, ", ") + " FROM " + quoteTable(table))
	whereSQL, next := where.WhereSQL(1)
	b.WriteString(whereSQL)
	if orderBy != "" {
		b.WriteString(" ORDER BY " + orderBy)
	}
	args := appendArgs(where.Args(), limit)
	fmt.Fprintf(&b, " LIMIT $%d;", next)

	rows, err := s.q.Query(ctx, b.String(), args...)
	if err != nil {
		return types.Result{}, err
	}
	defer rows.Close()
	return renderResult(rows, aliases)
}

// renderResult drains rows into the text-rendered result contract. All
// selected expressions carry ::text casts, so values arrive as string or
// NULL; NULL renders as the empty string.
func renderResult(rows pgx.Rows, cols []string) (types.Result, error) {
	res := types.Result{Columns: cols, Rows: []map[string]string{}}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return types.Result{}, err
		}
		row := make(map[string]string, len(cols))
		for i, c := range cols {
			if i >= len(vals) || vals[i] == nil {
				row[c] = ""
				continue
			}
			if s, ok := vals[i].(string); ok {
				row[c] = s
			} else {
				row[c] = fmt.Sprint(vals[i])
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return types.Result{}, err
	}
	return res, nil
}

func (s *PGRowStore) DistinctValues(ctx context.Context, table string, column string, where query.Predicate, limit int) ([]string, error) {
	cond, next := where.SQL(1)
	notNull := query.Ident(column) + " IS NOT NULL"
	if cond != "" {
		cond = cond + " AND " + notNull
	} else {
		cond = notNull
	}

	sql := fmt.Sprintf("SELECT DISTINCT %s::text FROM %s WHERE %s ORDER BY 1 ASC LIMIT $%d;",
		query.Ident(column), quoteTable(table), cond, next)
	args := appendArgs(where.Args(), limit)

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PGRowStore) Exists(ctx context.Context, table string, where query.Predicate) (bool, error) {
	whereSQL, _ := where.WhereSQL(1)
	sql := "SELECT EXISTS (SELECT 1 FROM " + quoteTable(table) + whereSQL + ");"
	var exists bool
	if err := s.q.QueryRow(ctx, sql, where.Args()...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *PGRowStore) Count(ctx context.Context, table string, where query.Predicate) (int64, error) {
	whereSQL, _ := where.WhereSQL(1)
	sql := "SELECT count(*) FROM " + quoteTable(table) + whereSQL + ";"
	var n int64
	if err := s.q.QueryRow(ctx, sql, where.Args()...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PGRowStore) CountDistinct(ctx context.Context, table string, column string, where query.Predicate) (int64, error) {
	whereSQL, _ := where.WhereSQL(1)
	sql := "SELECT count(DISTINCT " + query.Ident(column) + ") FROM " + quoteTable(table) + whereSQL + ";"
	var n int64
	if err := s.q.QueryRow(ctx, sql, where.Args()...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func insertSQL(table string, columns []string) string {
	cols := make([]string, 0, len(columns))
	marks := make([]string, 0, len(columns))
	for i, c := range columns {
		cols = append(cols, query.Ident(c))
		marks = append(marks, fmt.Sprintf("$%d", i+1))
	}
	return "INSERT INTO " + quoteTable(table) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ");"
}

func (s *PGRowStore) Insert(ctx context.Context, table string, values []ports.ColumnValue) error {
	cols := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for _, cv := range values {
		cols = append(cols, cv.Column)
		args = append(args, cv.Value)
	}
	if s.tx == nil {
		if _, err := s.q.Exec(ctx, insertSQL(table, cols), args...); err != nil {
			return translateInsertErr(err)
		}
		return nil
	}

	// Transaction-bound: a failed INSERT must not poison the transaction,
	// so it runs under a savepoint that is rolled back on error.
	sp, err := s.tx.Begin(ctx)
	if err != nil {
		return err
	}
	if _, err := sp.Exec(ctx, insertSQL(table, cols), args...); err != nil {
		_ = sp.Rollback(ctx)
		return translateInsertErr(err)
	}
	return sp.Commit(ctx)
}

func translateInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ports.ErrDuplicateKey
	}
	return err
}

func (s *PGRowStore) Update(ctx context.Context, table string, set []ports.ColumnValue, where query.Predicate) (int64, error) {
	assigns := make([]string, 0, len(set))
	args := make([]any, 0, len(set)+len(where.Args()))
	for i, cv := range set {
		assigns = append(assigns, fmt.Sprintf("%s = $%d", query.Ident(cv.Column), i+1))
		args = append(args, cv.Value)
	}
	whereSQL, _ := where.WhereSQL(len(set) + 1)
	args = append(args, where.Args()...)

	sql := "UPDATE " + quoteTable(table) + " SET " + strings.Join(assigns, ", ") + whereSQL + ";"
	tag, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PGRowStore) InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	sql := insertSQL(table, columns)
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(sql, r...)
	}
	br := s.q.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for range rows {
		if _, err := br.Exec(); err != nil {
			return inserted, translateInsertErr(err)
		}
		inserted++
	}
	return inserted, nil
}

// WithKeyLock serializes work on one business key with a transaction-scoped
// advisory lock, so check-then-act upserts on the same key never interleave.
func (s *PGRowStore) WithKeyLock(ctx context.Context, key string, fn func(ctx context.Context, tx ports.RowStore) error) error {
	if s.beginner == nil {
		return fn(ctx, s)
	}
	tx, err := s.beginner.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0));`, key); err != nil {
		return err
	}
	if err := fn(ctx, &PGRowStore{q: tx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
