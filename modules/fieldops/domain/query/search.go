package query

import (
	"strings"

	"github.com/supankharikap/ServiceTeam/modules/fieldops/domain/fieldmeta"
)

// searchColumnCap bounds the fallback column set so a search over a schema
// with hundreds of columns does not explode into an unbounded OR list.
const searchColumnCap = 30

// TokenSearch turns a free-text query into an AND of per-token ORs: a row
// matches iff every whitespace-separated token appears, case-insensitively,
// in at least one searched column. Preferred aliases are matched by NormKey
// equality only; when none resolves the first searchColumnCap schema columns
// are searched in their native order. An empty query yields the empty
// predicate.
func TokenSearch(q string, cols []string, preferred []string) Predicate {
	var pred Predicate

	q = strings.TrimSpace(q)
	if q == "" {
		return pred
	}
	tokens := strings.Fields(q)
	if len(tokens) == 0 {
		return pred
	}

	idx := fieldmeta.ColumnIndex(cols)
	var searchCols []string
	for _, pc := range preferred {
		if c, ok := idx[fieldmeta.NormKey(pc)]; ok {
			searchCols = append(searchCols, c)
		}
	}
	if len(searchCols) == 0 {
		searchCols = cols
		if len(searchCols) > searchColumnCap {
			searchCols = searchCols[:searchColumnCap]
		}
	}
	if len(searchCols) == 0 {
		return pred
	}

	for _, tok := range tokens {
		ors := make([]string, 0, len(searchCols))
		args := make([]any, 0, len(searchCols))
		for _, c := range searchCols {
			ors = append(ors, Ident(c)+"::text ILIKE ?")
			args = append(args, "%"+EscapeLike(tok)+"%")
		}
		pred.Append("("+strings.Join(ors, " OR ")+")", args...)
	}
	return pred
}
