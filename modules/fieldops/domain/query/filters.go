package query

// Equals builds an exact equality test against a resolved column.
func Equals(col string, value string) Predicate {
	var pred Predicate
	pred.Append(Ident(col)+"::text = ?", value)
	return pred
}

// Contains builds a case-insensitive substring test against a resolved
// column.
func Contains(col string, value string) Predicate {
	var pred Predicate
	pred.Append(Ident(col)+"::text ILIKE ?", "%"+EscapeLike(value)+"%")
	return pred
}

// HasPrefix builds a case-insensitive prefix test against a resolved
// column. Prefix matching keeps suggestion lookups on the column's index.
func HasPrefix(col string, value string) Predicate {
	var pred Predicate
	pred.Append(Ident(col)+"::text ILIKE ?", EscapeLike(value)+"%")
	return pred
}
