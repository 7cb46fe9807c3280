package persistence

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/ports"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/query"
)

type recordedStmt struct {
	sql  string
	args []any
}

type stubQuerier struct {
	stmts   []recordedStmt
	rows    *stubRows
	scanVal any
	execErr error
}

func (s *stubQuerier) record(sql string, args []any) {
	s.stmts = append(s.stmts, recordedStmt{sql: sql, args: args})
}

func (s *stubQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	s.record(sql, args)
	if s.rows == nil {
		return &stubRows{}, nil
	}
	return s.rows, nil
}

func (s *stubQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	s.record(sql, args)
	return stubRow{val: s.scanVal}
}

func (s *stubQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.record(sql, args)
	return pgconn.NewCommandTag("UPDATE 1"), s.execErr
}

func (s *stubQuerier) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	return stubBatchResults{n: b.Len(), err: s.execErr}
}

type stubRows struct {
	data [][]any
	pos  int
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}
func (r *stubRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	for i := range dest {
		if i >= len(row) || row[i] == nil {
			continue
		}
		if d, ok := dest[i].(*string); ok {
			*d = row[i].(string)
		}
	}
	return nil
}
func (r *stubRows) Values() ([]any, error) { return r.data[r.pos-1], nil }
func (r *stubRows) RawValues() [][]byte    { return nil }
func (r *stubRows) Conn() *pgx.Conn        { return nil }

type stubRow struct {
	val any
}

func (r stubRow) Scan(dest ...any) error {
	if len(dest) == 0 || r.val == nil {
		return nil
	}
	switch d := dest[0].(type) {
	case *bool:
		*d = r.val.(bool)
	case *int64:
		*d = r.val.(int64)
	case *string:
		*d = r.val.(string)
	}
	return nil
}

type stubBatchResults struct {
	n   int
	err error
}

func (b stubBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, b.err }
func (b stubBatchResults) Query() (pgx.Rows, error)         { return &stubRows{}, nil }
func (b stubBatchResults) QueryRow() pgx.Row                { return stubRow{} }
func (b stubBatchResults) Close() error                     { return nil }

type stubTx struct {
	q          *stubQuerier
	savepoint  *stubTx
	begun      int
	committed  bool
	rolledBack bool
}

func (t *stubTx) Begin(context.Context) (pgx.Tx, error) {
	t.begun++
	if t.savepoint == nil {
		t.savepoint = &stubTx{q: &stubQuerier{}}
	}
	return t.savepoint, nil
}
func (t *stubTx) Commit(context.Context) error   { t.committed = true; return nil }
func (t *stubTx) Rollback(context.Context) error { t.rolledBack = true; return nil }
func (t *stubTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return t.q.SendBatch(ctx, b)
}
func (t *stubTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }
func (t *stubTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *stubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.q.Exec(ctx, sql, args...)
}
func (t *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.q.Query(ctx, sql, args...)
}
func (t *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.q.QueryRow(ctx, sql, args...)
}
func (t *stubTx) Conn() *pgx.Conn { return nil }

type stubPool struct {
	*stubQuerier
	tx *stubTx
}

func (p *stubPool) Begin(context.Context) (pgx.Tx, error) { return p.tx, nil }

func wherePred(clause string, args ...any) query.Predicate {
	var p query.Predicate
	p.Append(clause, args...)
	return p
}

func TestSelectRendersPlaceholdersAfterWhere(t *testing.T) {
	q := &stubQuerier{rows: &stubRows{data: [][]any{{"SR-1", nil}}}}
	store := &PGRowStore{q: q}

	where := wherePred(`"ZONE"::text = ?`, "East")
	res, err := store.Select(context.Background(), "fieldops.install_base", []string{"Serial_No", "LOCATION"}, where, `"id" DESC`, 500)
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	stmt := q.stmts[0]
	want := `SELECT "Serial_No"::text, "LOCATION"::text FROM "fieldops"."install_base" WHERE "ZONE"::text = $1 ORDER BY "id" DESC LIMIT $2;`
	if stmt.sql != want {
		t.Fatalf("sql=%q", stmt.sql)
	}
	if len(stmt.args) != 2 || stmt.args[0] != "East" || stmt.args[1] != 500 {
		t.Fatalf("args=%v", stmt.args)
	}
	if len(res.Rows) != 1 || res.Rows[0]["Serial_No"] != "SR-1" {
		t.Fatalf("rows=%v", res.Rows)
	}
	if res.Rows[0]["LOCATION"] != "" {
		t.Fatalf("null must render empty, got %q", res.Rows[0]["LOCATION"])
	}
}

func TestSelectProjectedRendersMissingColumnAsLiteral(t *testing.T) {
	q := &stubQuerier{}
	store := &PGRowStore{q: q}

	projections := []ports.Projection{
		{Alias: "serialNo", Column: "Serial_No"},
		{Alias: "state", Column: ""},
	}
	if _, err := store.SelectProjected(context.Background(), "install_base", projections, query.Predicate{}, "", 1); err != nil {
		t.Fatalf("err=%v", err)
	}
	sql := q.stmts[0].sql
	if !strings.Contains(sql, `''::text AS "state"`) {
		t.Fatalf("sql=%q", sql)
	}
	if !strings.Contains(sql, `"Serial_No"::text AS "serialNo"`) {
		t.Fatalf("sql=%q", sql)
	}
}

func TestDistinctValuesFiltersNulls(t *testing.T) {
	q := &stubQuerier{rows: &stubRows{data: [][]any{{"Acme"}}}}
	store := &PGRowStore{q: q}

	where := wherePred(`"ZONE"::text = ?`, "East")
	vals, err := store.DistinctValues(context.Background(), "install_base", "CUSTOMER_NAME", where, 10)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(vals) != 1 || vals[0] != "Acme" {
		t.Fatalf("vals=%v", vals)
	}
	sql := q.stmts[0].sql
	if !strings.Contains(sql, `"CUSTOMER_NAME" IS NOT NULL`) {
		t.Fatalf("sql=%q", sql)
	}
	if !strings.Contains(sql, "ORDER BY 1 ASC LIMIT $2") {
		t.Fatalf("sql=%q", sql)
	}
}

func TestInsertTranslatesDuplicateKey(t *testing.T) {
	q := &stubQuerier{execErr: &pgconn.PgError{Code: "23505"}}
	store := &PGRowStore{q: q}

	err := store.Insert(context.Background(), "install_base", []ports.ColumnValue{{Column: "Serial_No", Value: "SR-1"}})
	if !errors.Is(err, ports.ErrDuplicateKey) {
		t.Fatalf("err=%v", err)
	}
}

func TestInsertPassesOtherErrorsThrough(t *testing.T) {
	cause := &pgconn.PgError{Code: "42703"}
	q := &stubQuerier{execErr: cause}
	store := &PGRowStore{q: q}

	err := store.Insert(context.Background(), "install_base", []ports.ColumnValue{{Column: "Serial_No", Value: "SR-1"}})
	if !errors.Is(err, cause) {
		t.Fatalf("err=%v", err)
	}
}

func TestUpdateNumbersSetBeforeWhere(t *testing.T) {
	q := &stubQuerier{}
	store := &PGRowStore{q: q}

	set := []ports.ColumnValue{
		{Column: "LOCATION", Value: "Pune"},
		{Column: "Model", Value: "X5"},
	}
	where := wherePred(`upper("Serial_No"::text) = upper(?)`, "SR-1")
	n, err := store.Update(context.Background(), "install_base", set, where)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if n != 1 {
		t.Fatalf("rows=%d", n)
	}
	stmt := q.stmts[0]
	want := `UPDATE "install_base" SET "LOCATION" = $1, "Model" = $2 WHERE upper("Serial_No"::text) = upper($3);`
	if stmt.sql != want {
		t.Fatalf("sql=%q", stmt.sql)
	}
	if len(stmt.args) != 3 || stmt.args[2] != "SR-1" {
		t.Fatalf("args=%v", stmt.args)
	}
}

func TestInsertBatchCountsRows(t *testing.T) {
	q := &stubQuerier{}
	store := &PGRowStore{q: q}

	rows := [][]any{{"SR-1", "Acme"}, {"SR-2", "Acme"}}
	n, err := store.InsertBatch(context.Background(), "install_base", []string{"Serial_No", "CUSTOMER_NAME"}, rows)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if n != 2 {
		t.Fatalf("inserted=%d", n)
	}
}

func TestWithKeyLockInsertDuplicateKeepsTransactionUsable(t *testing.T) {
	root := &stubTx{
		q:         &stubQuerier{},
		savepoint: &stubTx{q: &stubQuerier{execErr: &pgconn.PgError{Code: "23505"}}},
	}
	pool := &stubPool{stubQuerier: &stubQuerier{}, tx: root}
	store := NewPGRowStore(pool)

	err := store.WithKeyLock(context.Background(), "install_base:SR-1", func(ctx context.Context, tx ports.RowStore) error {
		insErr := tx.Insert(ctx, "install_base", []ports.ColumnValue{{Column: "Serial_No", Value: "SR-1"}})
		if !errors.Is(insErr, ports.ErrDuplicateKey) {
			t.Fatalf("insert err=%v", insErr)
		}
		set := []ports.ColumnValue{{Column: "LOCATION", Value: "Pune"}}
		where := wherePred(`upper("Serial_No"::text) = upper(?)`, "SR-1")
		if _, err := tx.Update(ctx, "install_base", set, where); err != nil {
			t.Fatalf("update err=%v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	sp := root.savepoint
	if !sp.rolledBack || sp.committed {
		t.Fatalf("savepoint rolledBack=%v committed=%v", sp.rolledBack, sp.committed)
	}
	if len(sp.q.stmts) != 1 || !strings.HasPrefix(sp.q.stmts[0].sql, `INSERT INTO "install_base"`) {
		t.Fatalf("savepoint stmts=%v", sp.q.stmts)
	}

	// The failed INSERT stayed inside the savepoint; only the advisory lock
	// and the retried UPDATE ran on the outer transaction.
	stmts := root.q.stmts
	if len(stmts) != 2 || !strings.Contains(stmts[0].sql, "pg_advisory_xact_lock") {
		t.Fatalf("tx stmts=%v", stmts)
	}
	if !strings.HasPrefix(stmts[1].sql, `UPDATE "install_base"`) {
		t.Fatalf("sql=%q", stmts[1].sql)
	}
	if !root.committed {
		t.Fatal("transaction must commit")
	}
}

func TestWithKeyLockInsertReleasesSavepointOnSuccess(t *testing.T) {
	root := &stubTx{q: &stubQuerier{}}
	pool := &stubPool{stubQuerier: &stubQuerier{}, tx: root}
	store := NewPGRowStore(pool)

	err := store.WithKeyLock(context.Background(), "install_base:SR-2", func(ctx context.Context, tx ports.RowStore) error {
		return tx.Insert(ctx, "install_base", []ports.ColumnValue{{Column: "Serial_No", Value: "SR-2"}})
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	sp := root.savepoint
	if sp == nil || root.begun != 1 {
		t.Fatalf("begun=%d", root.begun)
	}
	if !sp.committed || sp.rolledBack {
		t.Fatalf("savepoint committed=%v rolledBack=%v", sp.committed, sp.rolledBack)
	}
	if len(sp.q.stmts) != 1 || !strings.HasPrefix(sp.q.stmts[0].sql, `INSERT INTO "install_base"`) {
		t.Fatalf("savepoint stmts=%v", sp.q.stmts)
	}
	if !root.committed {
		t.Fatal("transaction must commit")
	}
}

func TestSplitQualifiedDefaultsPublic(t *testing.T) {
	schemaName, tableName := splitQualified("install_base")
	if schemaName != "public" || tableName != "install_base" {
		t.Fatalf("got %q.%q", schemaName, tableName)
	}
	schemaName, tableName = splitQualified("fieldops.install_base")
	if schemaName != "fieldops" || tableName != "install_base" {
		t.Fatalf("got %q.%q", schemaName, tableName)
	}
}
