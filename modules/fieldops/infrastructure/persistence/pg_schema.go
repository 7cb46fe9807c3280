package persistence

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
)

type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGSchemaProvider reads the live column list of a table from
// information_schema on every call. No caching: the whole point of the
// snapshot is to track schema drift between requests.
type PGSchemaProvider struct {
	q pgQuerier
}

func NewPGSchemaProvider(q pgQuerier) *PGSchemaProvider {
	return &PGSchemaProvider{q: q}
}

// splitQualified splits "schema.table" into its parts, defaulting the schema
// to public for bare table names.
func splitQualified(table string) (string, string) {
	if i := strings.IndexByte(table, '.'); i >= 0 {
		return table[:i], table[i+1:]
	}
	return "public", table
}

func (p *PGSchemaProvider) TableColumns(ctx context.Context, table string) ([]string, error) {
	schemaName, tableName := splitQualified(table)
	rows, err := p.q.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position;
	`, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cols, nil
}
