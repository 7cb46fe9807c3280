package fieldmeta

import "strings"

// NormKey reduces a column or alias name to its canonical matching form:
// lowercase with every non-alphanumeric rune stripped. Two names refer to
// the same column iff their NormKeys are equal.
func NormKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormValue prepares a data value for equality comparison. Upstream data
// entry mixes tabs, non-breaking spaces and doubled spaces, so those are
// collapsed to single spaces and the ends trimmed. Case folding happens in
// SQL, not here. The stored side of an equality test goes through the same
// folding, collapse and trim in query.normEqClause.
func NormValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\u00a0' || r == '\n' || r == '\r' {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
