package services

import (
	"context"
	"strings"

	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/ports"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/query"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/types"
)

type fakeSchema struct {
	cols map[string][]string
	err  error
}

func (f *fakeSchema) TableColumns(_ context.Context, table string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cols[table], nil
}

type selectCall struct {
	table   string
	cols    []string
	where   query.Predicate
	orderBy string
	limit   int
}

type insertCall struct {
	table  string
	values []ports.ColumnValue
}

type updateCall struct {
	table string
	set   []ports.ColumnValue
	where query.Predicate
}

type distinctCall struct {
	table  string
	column string
	where  query.Predicate
	limit  int
}

// fakeRows records every statement it receives. Existence is keyed on the
// uppercased first predicate argument, which for upsert paths is the
// normalized business key.
type fakeRows struct {
	existing map[string]bool

	selectResult   types.Result
	distinctResult map[string][]string
	countResult    int64
	distinctCount  int64
	insertErr      error

	selects   []selectCall
	projected []selectCall
	inserts   []insertCall
	updates   []updateCall
	distincts []distinctCall
	locks     []string
}

func newFakeRows() *fakeRows {
	return &fakeRows{existing: map[string]bool{}, distinctResult: map[string][]string{}}
}

func (f *fakeRows) Select(_ context.Context, table string, cols []string, where query.Predicate, orderBy string, limit int) (types.Result, error) {
	f.selects = append(f.selects, selectCall{table: table, cols: cols, where: where, orderBy: orderBy, limit: limit})
	return f.selectResult, nil
}

func (f *fakeRows) SelectProjected(_ context.Context, table string, projections []ports.Projection, where query.Predicate, orderBy string, limit int) (types.Result, error) {
	cols := make([]string, 0, len(projections))
	for _, p := range projections {
		cols = append(cols, p.Alias)
	}
	f.projected = append(f.projected, selectCall{table: table, cols: cols, where: where, orderBy: orderBy, limit: limit})
	return f.selectResult, nil
}

func (f *fakeRows) DistinctValues(_ context.Context, table string, column string, where query.Predicate, limit int) ([]string, error) {
	f.distincts = append(f.distincts, distinctCall{table: table, column: column, where: where, limit: limit})
	return f.distinctResult[column], nil
}

func (f *fakeRows) Exists(_ context.Context, _ string, where query.Predicate) (bool, error) {
	args := where.Args()
	if len(args) == 0 {
		return false, nil
	}
	key, _ := args[0].(string)
	return f.existing[strings.ToUpper(key)], nil
}

func (f *fakeRows) Count(_ context.Context, _ string, _ query.Predicate) (int64, error) {
	return f.countResult, nil
}

func (f *fakeRows) CountDistinct(_ context.Context, _ string, _ string, _ query.Predicate) (int64, error) {
	return f.distinctCount, nil
}

func (f *fakeRows) Insert(_ context.Context, table string, values []ports.ColumnValue) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts = append(f.inserts, insertCall{table: table, values: values})
	for _, cv := range values {
		if s, ok := cv.Value.(string); ok {
			f.existing[strings.ToUpper(s)] = true
		}
	}
	return nil
}

func (f *fakeRows) Update(_ context.Context, table string, set []ports.ColumnValue, where query.Predicate) (int64, error) {
	f.updates = append(f.updates, updateCall{table: table, set: set, where: where})
	return 1, nil
}

func (f *fakeRows) InsertBatch(_ context.Context, table string, columns []string, rows [][]any) (int64, error) {
	for range rows {
		f.inserts = append(f.inserts, insertCall{table: table})
	}
	return int64(len(rows)), nil
}

func (f *fakeRows) WithKeyLock(ctx context.Context, key string, fn func(ctx context.Context, tx ports.RowStore) error) error {
	f.locks = append(f.locks, key)
	return fn(ctx, f)
}

func columnValue(values []ports.ColumnValue, col string) (any, bool) {
	for _, cv := range values {
		if cv.Column == col {
			return cv.Value, true
		}
	}
	return nil, false
}
