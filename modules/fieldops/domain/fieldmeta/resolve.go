package fieldmeta

import "strings"

// ColumnIndex maps NormKey -> physical column name. When two physical
// columns normalize to the same key the first one in schema order wins.
func ColumnIndex(cols []string) map[string]string {
	idx := make(map[string]string, len(cols))
	for _, c := range cols {
		k := NormKey(c)
		if _, ok := idx[k]; !ok {
			idx[k] = c
		}
	}
	return idx
}

// ResolveColumn maps a logical field onto the current schema snapshot.
// Phase 1 tries each alias in priority order against the NormKey index.
// Phase 2, only when no alias matched and tokens were given, scans columns
// in schema order and returns the first whose NormKey contains every token.
// A miss is not an error: the feature is simply absent for this schema.
func ResolveColumn(cols []string, aliases []string, tokens []string) (string, bool) {
	idx := ColumnIndex(cols)
	for _, a := range aliases {
		if c, ok := idx[NormKey(a)]; ok {
			return c, true
		}
	}

	var normTokens []string
	for _, t := range tokens {
		if nt := NormKey(t); nt != "" {
			normTokens = append(normTokens, nt)
		}
	}
	if len(normTokens) == 0 {
		return "", false
	}
	for _, c := range cols {
		nc := NormKey(c)
		all := true
		for _, t := range normTokens {
			if !strings.Contains(nc, t) {
				all = false
				break
			}
		}
		if all {
			return c, true
		}
	}
	return "", false
}

// Resolve is ResolveColumn for a catalog field.
func Resolve(cols []string, f LogicalField) (string, bool) {
	return ResolveColumn(cols, f.Aliases, f.Tokens)
}
