package query

import (
	"strings"
)

// Predicate is a conjunction of clause fragments plus the ordered parameter
// values they reference. Fragments embed only resolved column identifiers
// (quoted via Ident); caller-supplied values travel exclusively through the
// parameter list, marked by '?' placeholders that SQL rewrites to pgx $n.
type Predicate struct {
	clauses []string
	args    []any
}

func (p Predicate) IsEmpty() bool { return len(p.clauses) == 0 }

// Append adds one conjunct. The number of '?' markers in clause must equal
// len(args).
func (p *Predicate) Append(clause string, args ...any) {
	p.clauses = append(p.clauses, clause)
	p.args = append(p.args, args...)
}

// And returns the conjunction of the given predicates, skipping empty ones.
func And(ps ...Predicate) Predicate {
	var out Predicate
	for _, p := range ps {
		out.clauses = append(out.clauses, p.clauses...)
		out.args = append(out.args, p.args...)
	}
	return out
}

func (p Predicate) Args() []any { return p.args }

// SQL renders the conjunction with positional placeholders starting at
// start ($1-based) and returns the next free placeholder index. An empty
// predicate renders as the empty string. A '?' inside a double-quoted
// identifier is literal text, not a placeholder: imported column names can
// contain any character.
func (p Predicate) SQL(start int) (string, int) {
	if len(p.clauses) == 0 {
		return "", start
	}
	joined := strings.Join(p.clauses, " AND ")
	var b strings.Builder
	b.Grow(len(joined) + 3*len(p.args))
	n := start
	inIdent := false
	for _, r := range joined {
		switch {
		case r == '"':
			inIdent = !inIdent
			b.WriteRune(r)
		case r == '?' && !inIdent:
			b.WriteByte('$')
			b.WriteString(itoa(n))
			n++
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), n
}

// WhereSQL is SQL with a leading " WHERE " when non-empty.
func (p Predicate) WhereSQL(start int) (string, int) {
	sql, next := p.SQL(start)
	if sql == "" {
		return "", next
	}
	return " WHERE " + sql, next
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Ident quotes a resolved column identifier for safe embedding in clause
// text. Only identifiers that came out of the schema snapshot may be passed
// here, never request input.
func Ident(col string) string {
	return `"` + strings.ReplaceAll(col, `"`, `""`) + `"`
}

// EscapeLike escapes ILIKE pattern metacharacters in a literal token.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// normEqClause builds a case-insensitive, whitespace-normalized equality
// test against col. Tabs, newlines and non-breaking spaces in stored values
// are folded to plain spaces, runs of spaces collapse to one and the ends
// are trimmed, so both sides of the comparison go through the same
// normalization as NormValue applies on the Go side.
func normEqClause(col string) string {
	return "upper(btrim(regexp_replace(translate(" + Ident(col) +
		"::text, chr(9)||chr(10)||chr(13)||chr(160), '    '), ' +', ' ', 'g'))) = upper(?)"
}
