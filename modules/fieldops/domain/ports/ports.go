package ports

import (
	"context"
	"errors"

	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/query"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/types"
)

// ErrDuplicateKey is returned by RowStore.Insert when the storage layer's
// uniqueness constraint rejects the row. The upsert engine converts it into
// a retried update.
var ErrDuplicateKey = errors.New("fieldops: duplicate key")

// SchemaProvider returns the current ordered column list of a qualified
// table. Implementations must not cache across calls: the schema can change
// between deployments and every request re-reads it.
type SchemaProvider interface {
	TableColumns(ctx context.Context, table string) ([]string, error)
}

// ColumnValue pairs a resolved physical column with the value to store.
// A nil Value stores SQL NULL.
type ColumnValue struct {
	Column string
	Value  any
}

// Projection selects one output column. Column is a resolved physical
// column; when it is empty the projection renders as a constant empty
// string under Alias (the column is absent from this schema).
type Projection struct {
	Alias  string
	Column string
}

// RowStore executes parameterized statements against one named table.
// Predicates arrive fully built; implementations only render placeholders
// and run the statement.
type RowStore interface {
	// Select returns the given columns (all rendered as text) for rows
	// matching where, ordered by the orderBy fragment when non-empty.
	Select(ctx context.Context, table string, cols []string, where query.Predicate, orderBy string, limit int) (types.Result, error)

	// SelectProjected returns aliased projections for matching rows.
	SelectProjected(ctx context.Context, table string, projections []Projection, where query.Predicate, orderBy string, limit int) (types.Result, error)

	// DistinctValues returns distinct non-null text values of column for
	// rows matching where, ascending, capped at limit.
	DistinctValues(ctx context.Context, table string, column string, where query.Predicate, limit int) ([]string, error)

	Exists(ctx context.Context, table string, where query.Predicate) (bool, error)
	Count(ctx context.Context, table string, where query.Predicate) (int64, error)
	CountDistinct(ctx context.Context, table string, column string, where query.Predicate) (int64, error)

	Insert(ctx context.Context, table string, values []ColumnValue) error
	Update(ctx context.Context, table string, set []ColumnValue, where query.Predicate) (int64, error)
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// WithKeyLock runs fn inside a transaction holding an advisory lock on
	// key, serializing concurrent upserts of the same business key. The
	// RowStore passed to fn is bound to that transaction.
	WithKeyLock(ctx context.Context, key string, fn func(ctx context.Context, tx RowStore) error) error
}
